package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyChainIncludesAll(t *testing.T) {
	c := NewChain()
	assert.True(t, c.Match("/any/file.txt", false, 1024))
	assert.True(t, c.Match("/any/dir", true, 0))
	assert.True(t, c.Empty())
}

func TestExcludePattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("*.log"))

	assert.False(t, c.Match("/app.log", false, 100))
	assert.False(t, c.Match("/sub/debug.log", false, 100))
	assert.True(t, c.Match("/app.txt", false, 100))
}

func TestIncludeOverridesExclude(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddInclude("yfile-1.bin"))
	require.NoError(t, c.AddExclude("yfile-*.bin"))

	assert.True(t, c.Match("/yfile-1.bin", false, 100))
	assert.False(t, c.Match("/yfile-2.bin", false, 100))
}

func TestExcludeIncludeOrder(t *testing.T) {
	// Exclude comes first, so the include never gets a chance.
	c := NewChain()
	require.NoError(t, c.AddExclude("*.log"))
	require.NoError(t, c.AddInclude("important.log"))

	assert.False(t, c.Match("/important.log", false, 100))
	assert.False(t, c.Match("/debug.log", false, 100))
}

func TestDirOnlyPattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("build/"))

	assert.False(t, c.Match("/build", true, 0))
	assert.True(t, c.Match("/build", false, 100)) // file named "build" is not excluded
}

func TestSlashPatternUsesWholePath(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("/data/*.bin"))

	assert.False(t, c.Match("/data/a.bin", false, 1))
	assert.True(t, c.Match("/data/sub/a.bin", false, 1))
	assert.True(t, c.Match("/other/a.bin", false, 1))
}

func TestHiddenFilesNeedExplicitDot(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("*"))

	assert.False(t, c.Match("/visible", false, 1))
	assert.True(t, c.Match("/.hidden", false, 1))

	require.NoError(t, c.AddExclude(".*"))
	assert.False(t, c.Match("/.hidden", false, 1))
}

func TestMalformedRuleRejected(t *testing.T) {
	c := NewChain()
	err := c.AddExclude("[a-")
	require.ErrorIs(t, err, ErrMalformedPattern)
	assert.True(t, c.Empty())
}

func TestSizeFilters(t *testing.T) {
	c := NewChain()
	c.SetMinSize(100)
	c.SetMaxSize(10000)

	assert.False(t, c.Match("/tiny.txt", false, 50))
	assert.True(t, c.Match("/medium.txt", false, 500))
	assert.False(t, c.Match("/huge.bin", false, 50000))

	// Directories ignore size filters.
	assert.True(t, c.Match("/somedir", true, 0))
}
