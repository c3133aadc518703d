package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.ExecutableDir))
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "output"), paths.OutputDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "output", "figures"), paths.FigDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "files", "TFC phase components.xlsx"), paths.ComponentsFile)
}

func TestResolvePaths(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		cfg   PathsConfig
		check func(*testing.T, *Paths)
	}{
		{
			name: "empty config uses defaults",
			base: "/opt/fear",
			check: func(t *testing.T, p *Paths) {
				assert.Equal(t, "/opt/fear/data", p.DataDir)
				assert.Equal(t, "/opt/fear/logs", p.LogsDir)
			},
		},
		{
			name: "absolute entries are kept",
			base: "/opt/fear",
			cfg:  PathsConfig{DataDir: "/srv/data", OutputDir: "out"},
			check: func(t *testing.T, p *Paths) {
				assert.Equal(t, "/srv/data", p.DataDir)
				assert.Equal(t, "/opt/fear/out", p.OutputDir)
			},
		},
		{
			name: "executable dir overrides base",
			base: "/opt/fear",
			cfg:  PathsConfig{ExecutableDir: "/home/lab"},
			check: func(t *testing.T, p *Paths) {
				assert.Equal(t, "/home/lab", p.ExecutableDir)
				assert.Equal(t, "/home/lab/data", p.DataDir)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ResolvePaths(tt.base, tt.cfg))
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := ResolvePaths(base, PathsConfig{})

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.OutputDir, paths.FigDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	// Input directories are left alone.
	assert.False(t, FileExists(paths.DataDir))
}

func TestPathHelperMethods(t *testing.T) {
	paths := ResolvePaths("/base", PathsConfig{})

	assert.Equal(t, "/base/output/train_clean.csv", paths.GetOutputPath("train_clean.csv"))
	assert.Equal(t, "/base/output/figures/train.png", paths.GetFigurePath("train.png"))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.csv")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "y.csv")))
}
