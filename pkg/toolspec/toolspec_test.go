package toolspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalogSideEffectClasses(t *testing.T) {
	cat, err := NewBuiltinCatalog()
	require.NoError(t, err)

	cases := map[string]SideEffectClass{
		"think":            Pure,
		"complete":         Pure,
		"memory:retrieve":  Pure,
		"read_file":        ReadOnly,
		"list_directory":   ReadOnly,
		"git_status":       ReadOnly,
		"write_file":       Mutating,
		"edit_file":        Mutating,
		"run_command":      Mutating,
		"search_replace":   Mutating,
		"multi_edit":       Mutating,
		"delegate_to_coder": External,
		"ask_user":         External,
	}
	for name, want := range cases {
		assert.Equal(t, want, cat.SideEffectOf(name), "tool %s", name)
	}
}

func TestSideEffectOfUnknownToolIsExternal(t *testing.T) {
	cat, err := NewBuiltinCatalog()
	require.NoError(t, err)
	assert.Equal(t, External, cat.SideEffectOf("nonexistent_tool"))
}

func TestDefinitionsIncludeRequiredArgs(t *testing.T) {
	cat, err := NewBuiltinCatalog()
	require.NoError(t, err)

	defs := cat.Definitions()
	require.NotEmpty(t, defs)

	var readFile *Definition
	for i := range defs {
		if defs[i].Name == "read_file" {
			readFile = &defs[i]
		}
	}
	require.NotNil(t, readFile)
	required, ok := readFile.Parameters["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "path")
}

func TestArgsGetIntAcceptsNumericString(t *testing.T) {
	args := Args{"count": StringValue("5")}
	n, err := args.GetInt("count")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestArgsGetStringMissingIsArgMissing(t *testing.T) {
	args := Args{}
	_, err := args.GetString("path")
	require.Error(t, err)
}
