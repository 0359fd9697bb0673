package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("connection refused")

	assert.Equal(t, "[connection_failed] ping failed: connection refused",
		Wrap(ErrKindConnectionFailed, "ping failed", cause).Error())
	assert.Equal(t, "[validation] bad flags", New(ErrKindValidation, "bad flags").Error())
	assert.Equal(t, "[stream] copy users", Newf(ErrKindStream, "copy %s", "users").Error())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"timeout", New(ErrKindTimeout, "x"), IsTimeout},
		{"connection", New(ErrKindConnectionFailed, "x"), IsConnectionFailed},
		{"query", New(ErrKindQueryFailed, "x"), IsQueryFailed},
		{"invalid input", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"permission", New(ErrKindPermissionDenied, "x"), IsPermissionDenied},
		{"catalog", New(ErrKindCatalogQuery, "x"), IsCatalogQuery},
		{"row encoding", New(ErrKindRowEncoding, "x"), IsRowEncoding},
		{"stream", New(ErrKindStream, "x"), IsStream},
		{"validation", New(ErrKindValidation, "x"), IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			assert.True(t, tt.pred(fmt.Errorf("wrapped: %w", tt.err)), "predicate must see through fmt wrapping")
			assert.False(t, tt.pred(errors.New("plain")))
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrKindCatalogQuery, "read tables", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrKindUnknown, KindOf(cause))
	assert.Equal(t, "catalog_query", ErrKindCatalogQuery.String())
	assert.Equal(t, "unknown", ErrKind(99).String())
}
