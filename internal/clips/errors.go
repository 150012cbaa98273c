package clips

import "errors"

// Failure kinds surfaced by rendering and editing. Wrapped errors keep the
// encoder's message; match with errors.Is.
var (
	ErrExtraction    = errors.New("subclip extraction failed")
	ErrRender        = errors.New("clip render failed")
	ErrInvalidWindow = errors.New("invalid clip window")
)
