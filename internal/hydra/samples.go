package hydra

import (
	"encoding/binary"

	"github.com/Alextopher/soundfont/internal/riff"
)

// sampleReadWindow bounds how many int16 samples are pulled from the stream
// at a time while converting to float — keeps the loader's working set small
// regardless of bank size.
const sampleReadWindow = 1024

// ReadSamples streams the sdta/smpl chunk's little-endian signed 16-bit PCM
// into a normalized float32 pool, one sample -> x/32767.
func ReadSamples(smpl *riff.ChunkReader) ([]float32, error) {
	total := smpl.Remaining() / 2
	out := make([]float32, 0, total)

	raw := make([]byte, sampleReadWindow*2)
	for remaining := total; remaining > 0; {
		n := sampleReadWindow
		if uint32(n) > remaining {
			n = int(remaining)
		}
		buf := raw[:n*2]
		if _, err := smpl.Read(buf); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
			out = append(out, float32(v)/32767.0)
		}
		remaining -= uint32(n)
	}
	return out, nil
}
