package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionIsValidSemver(t *testing.T) {
	assert.True(t, IsValid())
}

func TestGetIncludesBuildInfo(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestInfoString(t *testing.T) {
	s := Get().String()

	assert.True(t, strings.HasPrefix(s, "zchat v"))
	assert.Contains(t, s, Version)
}
