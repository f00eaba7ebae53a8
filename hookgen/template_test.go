package hookgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	cases := []struct {
		name     string
		template string
		want     string
	}{
		{"self", "JMP {self}", "JMP SELF"},
		{"target", "CALL {target}", "CALL TARGET"},
		{"both", "CALL {target}\nJMP {self}", "CALL TARGET\nJMP SELF"},
		{"inner whitespace", "JMP { self }", "JMP SELF"},
		{"repeated", "{self} {self}", "SELF SELF"},
		{"no placeholders", "RET", "RET"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Expand(tc.template, "SELF", "TARGET")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpand_UnknownPlaceholder(t *testing.T) {
	_, err := Expand("JMP {somewhere}", "SELF", "TARGET")

	var unknown *UnknownPlaceholderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "somewhere", unknown.Name)
}

func TestExpand_TrailingText(t *testing.T) {
	_, err := Expand("JMP {self +4}", "SELF", "TARGET")

	var stray *PlaceholderTextError
	require.ErrorAs(t, err, &stray)
	assert.Equal(t, "self", stray.Name)
	assert.Equal(t, "+4", stray.Text)
}

func TestExpand_EmptyPlaceholder(t *testing.T) {
	_, err := Expand("JMP {}", "SELF", "TARGET")

	var unknown *UnknownPlaceholderError
	assert.ErrorAs(t, err, &unknown)
}
