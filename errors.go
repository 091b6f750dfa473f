package soundfont

import "errors"

// LoadKind discriminates why Load/LoadMemory/LoadFile rejected a SoundFont,
// matching the Invalid{...} outcomes of spec §7.
type LoadKind int

const (
	// ErrFileNotFound is returned only by LoadFile, when the path can't be opened.
	ErrFileNotFound LoadKind = iota
	// ErrNoSfbkHeader means the stream didn't open with a RIFF "sfbk" form.
	ErrNoSfbkHeader
	// ErrIncompleteHydra means one or more of the nine required pdta sub-chunks
	// was missing or malformed.
	ErrIncompleteHydra
	// ErrNoSampleData means no sdta/smpl chunk was found.
	ErrNoSampleData
)

func (k LoadKind) String() string {
	switch k {
	case ErrFileNotFound:
		return "file not found"
	case ErrNoSfbkHeader:
		return "missing RIFF sfbk header"
	case ErrIncompleteHydra:
		return "incomplete hydra (pdta) chunks"
	case ErrNoSampleData:
		return "no sample data"
	default:
		return "unknown load error"
	}
}

// LoadError is the discriminated outcome of a failed load. Callers can
// distinguish kinds with errors.As and LoadError.Kind, or with IsLoadKind.
// Unwrap exposes the underlying cause to errors.Is.
type LoadError struct {
	Kind LoadKind
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return "soundfont: " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "soundfont: " + e.Kind.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

func newLoadError(kind LoadKind, err error) *LoadError {
	return &LoadError{Kind: kind, Err: err}
}

// IsLoadKind reports whether err is a *LoadError of the given kind.
func IsLoadKind(err error, kind LoadKind) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	return le.Kind == kind
}
