package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{name: "outfit name", input: json.RawMessage(`"Weekend Layers"`), want: "Weekend Layers"},
		{name: "numeric outfit name", input: json.RawMessage(`2`), want: "2"},
		{name: "float", input: json.RawMessage(`7.5`), want: "7.5"},
		{name: "large integer keeps digits", input: json.RawMessage(`9007199254740992`), want: "9007199254740992"},
		{name: "boolean", input: json.RawMessage(`false`), want: "false"},
		{name: "null tip", input: json.RawMessage(`null`), want: ""},
		{name: "missing field", input: nil, want: ""},
		{name: "tip list kept raw", input: json.RawMessage(`["roll the sleeves"]`), want: `["roll the sleeves"]`},
		{name: "object kept raw", input: json.RawMessage(`{"tip":"tuck"}`), want: `{"tip":"tuck"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlexibleStringValue(tt.input))
		})
	}
}

func TestFlexibleInt64(t *testing.T) {
	tests := []struct {
		name    string
		input   json.RawMessage
		want    int64
		wantErr bool
	}{
		{name: "number", input: json.RawMessage(`12`), want: 12},
		{name: "numeric string", input: json.RawMessage(`"12"`), want: 12},
		{name: "hash prefixed", input: json.RawMessage(`"#7"`), want: 7},
		{name: "padded string", input: json.RawMessage(`" 3 "`), want: 3},
		{name: "whole float", input: json.RawMessage(`4.0`), want: 4},
		{name: "fractional", input: json.RawMessage(`4.5`), wantErr: true},
		{name: "word", input: json.RawMessage(`"shirt"`), wantErr: true},
		{name: "null", input: json.RawMessage(`null`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlexibleInt64(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlexibleIDs(t *testing.T) {
	ids, skipped, err := FlexibleIDs(json.RawMessage(`[1, "2", "#3", "shoe", null]`))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, 2, skipped)

	ids, skipped, err = FlexibleIDs(json.RawMessage(`"9"`))
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, ids)
	assert.Zero(t, skipped)

	ids, _, err = FlexibleIDs(nil)
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, _, err = FlexibleIDs(json.RawMessage(`{"id": 1}`))
	assert.Error(t, err)
}
