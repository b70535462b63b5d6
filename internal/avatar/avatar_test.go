package avatar

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mlanden/task-manager/internal/apperror"
)

// pngHeader is the magic prefix http.DetectContentType uses for image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestProcessAcceptsPNG(t *testing.T) {
	v := NewValidator(1000)

	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 16)...)
	got, err := v.Process(data)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Process() should pass the bytes through unchanged")
	}
}

func TestProcessAcceptsJPEG(t *testing.T) {
	v := NewValidator(1000)

	data := append([]byte{0xFF, 0xD8, 0xFF}, bytes.Repeat([]byte{0}, 16)...)
	if _, err := v.Process(data); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
}

func TestProcessRejections(t *testing.T) {
	v := NewValidator(32)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"oversized", append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)},
		{"not an image", []byte("<!DOCTYPE html><html></html>")},
		{"plain text", []byte("just some text, definitely no image")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Process(tt.data)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Process() error = %v, want ErrValidation", err)
			}
		})
	}
}
