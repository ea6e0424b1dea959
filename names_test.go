package oml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omlkit/oml"
)

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		local  string
	}{
		{"base:Component", "base", "Component"},
		{"Component", "", "Component"},
		{"a:b:c", "a", "b:c"},
		{":Component", "", "Component"},
	}

	for _, tt := range tests {
		prefix, local := oml.SplitName(tt.name)
		assert.Equal(t, tt.prefix, prefix, tt.name)
		assert.Equal(t, tt.local, local, tt.name)
	}
}

func TestJoinName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "base:Component", oml.JoinName("base", "Component"))
	assert.Equal(t, "Component", oml.JoinName("", "Component"))
}

func TestIsQualified(t *testing.T) {
	t.Parallel()

	assert.True(t, oml.IsQualified("base:Component"))
	assert.False(t, oml.IsQualified("Component"))
}

func TestLocalName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Component", oml.LocalName("base:Component"))
	assert.Equal(t, "Component", oml.LocalName("Component"))
}

func TestPrefixFromNamespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		iri  string
		want string
	}{
		{"http://example.org/vocab/base#", "base"},
		{"http://example.org/vocab/base/", "base"},
		{"http://example.org/missions#", "missions"},
		{"base#", "base"},
		{"#", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, oml.PrefixFromNamespace(tt.iri), tt.iri)
	}
}
