package dump

import (
	"testing"

	"github.com/koustreak/dsqldump/internal/errs"
	"github.com/koustreak/dsqldump/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Defaults(t *testing.T) {
	opts := Options{Schema: "  "}
	require.NoError(t, opts.Validate())

	assert.Equal(t, "public", opts.Schema)
	assert.Equal(t, render.DataModeBuffered, opts.DataMode)
	assert.Equal(t, FKOrderKind, opts.FKOrder)
	assert.Equal(t, "dev", opts.Version)
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"exclusive", Options{DataOnly: true, SchemaOnly: true}},
		{"data mode", Options{DataMode: "parallel"}},
		{"fk order", Options{FKOrder: "alphabetical"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
		})
	}
}
