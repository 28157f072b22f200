package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractionError_Error(t *testing.T) {
	err := Wrap(ErrorTypeCorruptedData, "failed to read PDF", io.ErrUnexpectedEOF).
		WithFile("declaracao.pdf").
		WithPage(2)

	assert.Equal(t,
		"[CORRUPTED_DATA] failed to read PDF (declaracao.pdf) page 2: unexpected EOF",
		err.Error())
	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, err.Timestamp.IsZero())
}

func TestErrorTypeString(t *testing.T) {
	tests := map[ErrorType]string{
		ErrorTypeUnknown:       "UNKNOWN",
		ErrorTypeEmptyInput:    "EMPTY_INPUT",
		ErrorTypeTooLarge:      "TOO_LARGE",
		ErrorTypeInvalidHeader: "INVALID_HEADER",
		ErrorTypeCorruptedData: "CORRUPTED_DATA",
		ErrorTypeMalformedPage: "MALFORMED_PAGE",
		ErrorTypeLibraryPanic:  "LIBRARY_PANIC",
		ErrorType(99):          "UNKNOWN",
	}
	for et, want := range tests {
		assert.Equal(t, want, et.String())
	}
}

func TestAsExtraction(t *testing.T) {
	base := NewExtractionError(ErrorTypeEmptyInput, "empty PDF content")
	wrapped := fmt.Errorf("process upload: %w", base)

	got, ok := AsExtraction(wrapped)
	assert.True(t, ok)
	assert.Same(t, base, got)
	assert.True(t, IsExtraction(wrapped))
	assert.False(t, IsExtraction(io.EOF))
}
