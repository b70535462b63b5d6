// Package avatar defines the image-processing collaborator for profile
// pictures.
//
// The Processor accepts raw upload bytes and returns the blob to store on
// the user record. Its failures are client-visible validation errors, never
// server faults: a bad upload is the caller's problem. The shipped
// implementation validates size and sniffed content type and passes the
// bytes through unchanged; resizing and re-encoding belong behind the same
// interface.
package avatar

import (
	"fmt"
	"net/http"

	"github.com/mlanden/task-manager/internal/apperror"
)

// Processor turns raw upload bytes into the stored avatar blob.
type Processor interface {
	Process(data []byte) ([]byte, error)
}

// Validator is a Processor that enforces the upload contract: a non-empty
// body of at most maxBytes whose content sniffs as JPEG or PNG. The content
// type comes from the bytes themselves, never from a client-supplied
// filename or header.
type Validator struct {
	maxBytes int64
}

// NewValidator creates a Validator with the given size cap in bytes.
func NewValidator(maxBytes int64) *Validator {
	return &Validator{maxBytes: maxBytes}
}

var _ Processor = (*Validator)(nil)

func (v *Validator) Process(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, apperror.ValidationFailed("avatar", "avatar image is required")
	}
	if int64(len(data)) > v.maxBytes {
		return nil, apperror.ValidationFailed("avatar",
			fmt.Sprintf("avatar must be %d bytes or fewer", v.maxBytes))
	}

	switch contentType := http.DetectContentType(data); contentType {
	case "image/jpeg", "image/png":
		return data, nil
	default:
		return nil, apperror.ValidationFailed("avatar", "avatar must be a jpeg or png image")
	}
}
