package riff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkBytes(id string, body []byte) []byte {
	var hdr [8]byte
	copy(hdr[0:4], id)
	hdr[4] = byte(len(body))
	hdr[5] = byte(len(body) >> 8)
	hdr[6] = byte(len(body) >> 16)
	hdr[7] = byte(len(body) >> 24)
	return append(hdr[:], body...)
}

func Test_ReadChunk_plain(t *testing.T) {
	src := NewMemorySource(chunkBytes("shdr", []byte("hello")))
	ck, err := ReadChunk(src, false)
	require.NoError(t, err)
	assert.Equal(t, [4]byte{'s', 'h', 'd', 'r'}, ck.ID)
	assert.Equal(t, uint32(5), ck.Size)
}

func Test_ReadChunk_list_subtracts_form(t *testing.T) {
	body := append([]byte("pdta"), []byte("xyz")...)
	src := NewMemorySource(chunkBytes("LIST", body))
	ck, err := ReadChunk(src, false)
	require.NoError(t, err)
	assert.Equal(t, [4]byte{'p', 'd', 't', 'a'}, ck.ID)
	assert.Equal(t, uint32(3), ck.Size)
}

func Test_ReadChunk_rejects_nested_RIFF(t *testing.T) {
	body := append([]byte("sfbk"), []byte("abcd")...)
	src := NewMemorySource(chunkBytes("RIFF", body))
	_, err := ReadChunk(src, false)
	assert.Error(t, err)
}

func Test_ReadChunk_allows_toplevel_RIFF(t *testing.T) {
	body := append([]byte("sfbk"), []byte("abcd")...)
	src := NewMemorySource(chunkBytes("RIFF", body))
	ck, err := ReadChunk(src, true)
	require.NoError(t, err)
	assert.Equal(t, [4]byte{'s', 'f', 'b', 'k'}, ck.ID)
}

func Test_ReadChunk_rejects_unprintable_fourcc(t *testing.T) {
	b := chunkBytes("shdr", nil)
	b[0] = 0x01
	src := NewMemorySource(b)
	_, err := ReadChunk(src, false)
	assert.Error(t, err)
}

func Test_ChunkReader_rejects_overrun(t *testing.T) {
	src := NewMemorySource([]byte("0123456789"))
	parent := NewChunkReader(src, 4)
	_, err := parent.ReadAll()
	require.NoError(t, err)

	// A second read on an exhausted reader must fail, not silently read into
	// whatever comes next in the parent stream.
	var buf [1]byte
	_, err = parent.Read(buf[:])
	assert.Error(t, err)
}

func Test_ChunkReader_nested_bound_by_parent(t *testing.T) {
	// inner chunk claims more bytes than the outer chunk has left.
	inner := chunkBytes("shdr", make([]byte, 20))
	src := NewMemorySource(inner)
	outer := NewChunkReader(src, 10) // only 10 bytes available, inner wants 8+20

	ck, err := ReadChunk(outer, false)
	require.NoError(t, err)
	body := NewChunkReader(outer, ck.Size)
	_, err = body.ReadAll()
	assert.Error(t, err)
}
