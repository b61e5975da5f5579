package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	s := String()
	assert.True(t, strings.HasPrefix(s, Version+" "))
	assert.Contains(t, s, "go="+GoVersion)
	assert.NotContains(t, s, "commit=,")
}

func TestOrUnknown(t *testing.T) {
	assert.Equal(t, "unknown", orUnknown(""))
	assert.Equal(t, "abc", orUnknown("abc"))
}
