package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModule(t *testing.T) {
	t.Run("walks up to go.mod", func(t *testing.T) {
		dir := t.TempDir()
		goMod := `module github.com/example/testapp

go 1.25

require (
	github.com/labstack/echo/v4 v4.13.4
	go.uber.org/fx v1.24.0
)
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0644))
		nested := filepath.Join(dir, "internal", "forms")
		require.NoError(t, os.MkdirAll(nested, 0755))

		m, err := ResolveModule(nested)
		require.NoError(t, err)
		assert.Equal(t, "github.com/example/testapp", m.Path)
		assert.Equal(t, "1.25", m.GoVersion)
		assert.Equal(t, dir, m.Dir)
	})

	t.Run("missing module declaration", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("go 1.25\n"), 0644))

		_, err := ResolveModule(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no module declaration")
	})

	t.Run("malformed go.mod", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module\n"), 0644))

		_, err := ResolveModule(dir)
		assert.Error(t, err)
	})
}
