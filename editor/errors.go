package editor

import (
	"errors"
	"fmt"
)

var (
	ErrUsernameLocked  = errors.New("username can not be changed")
	ErrLinkIndex       = errors.New("link index out of range")
	ErrGalleryIndex    = errors.New("gallery index out of range")
	ErrUnknownField    = errors.New("unknown profile field")
	ErrUnknownPlatform = errors.New("unknown social platform")
	ErrNotEditing      = errors.New("profile is not in edit mode")
	ErrNotLoaded       = errors.New("draft is not loaded")
)

// ValidationError is returned by Save when the draft is rejected before
// reaching the profile store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SaveError carries the profile store failure message unchanged.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return e.Err.Error()
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
