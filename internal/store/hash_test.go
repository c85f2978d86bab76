package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), []byte("hello"), 0o644))
	l, err := NewLocalFS(root, 0)
	require.NoError(t, err)

	sum, err := Hash(l, "/f")
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	again, err := HashReader(strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, sum, again)

	other, err := HashReader(strings.NewReader("hellO"))
	require.NoError(t, err)
	assert.NotEqual(t, sum, other)

	_, err = Hash(l, "/missing")
	assert.Error(t, err)
}
