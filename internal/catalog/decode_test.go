package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRow(t *testing.T) {
	schema := []field{
		{"name", fieldText},
		{"comment", fieldNullText},
		{"flag", fieldBool},
	}

	rec, err := decodeRow(map[string]any{"name": "t", "comment": nil, "flag": true, "extra": 1}, schema)
	require.NoError(t, err)
	assert.Equal(t, "t", rec.str("name"))
	assert.Equal(t, "", rec.str("comment"))
	assert.True(t, rec.boolean("flag"))
	assert.NotContains(t, rec, "extra")
}

func TestDecodeRow_Errors(t *testing.T) {
	tests := []struct {
		name    string
		row     map[string]any
		schema  []field
		wantErr string
	}{
		{
			name:    "missing field",
			row:     map[string]any{},
			schema:  []field{{"name", fieldText}},
			wantErr: `field "name" missing from result`,
		},
		{
			name:    "null in non-null text",
			row:     map[string]any{"name": nil},
			schema:  []field{{"name", fieldText}},
			wantErr: `field "name" is NULL, want text`,
		},
		{
			name:    "wrong text type",
			row:     map[string]any{"name": 42},
			schema:  []field{{"name", fieldNullText}},
			wantErr: `field "name" has type int, want nullable text`,
		},
		{
			name:    "wrong bool type",
			row:     map[string]any{"flag": "t"},
			schema:  []field{{"flag", fieldBool}},
			wantErr: `field "flag" has type string, want bool`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRow(tt.row, tt.schema)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
