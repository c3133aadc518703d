package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fearcli/internal/config"
)

// Artifact kinds written by a session run.
const (
	KindClean    = "clean"
	KindPrism    = "prism"
	KindWorkbook = "workbook"
	KindFigure   = "figure"
)

// Manager names and places the files a run writes.
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger}
}

// ArtifactPath returns where an output of the given kind is written for a
// session, e.g. output/train_clean.csv or output/figures/train_bins.png.
func (m *Manager) ArtifactPath(session, kind, suffix, ext string) string {
	name := sanitize(session)
	if suffix != "" {
		name += "_" + sanitize(suffix)
	}
	name += "." + strings.TrimPrefix(ext, ".")

	if kind == KindFigure {
		return m.paths.GetFigurePath(name)
	}
	return m.paths.GetOutputPath(name)
}

// EnsureParent creates the directory that will hold path.
func (m *Manager) EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	m.logger.Debug("Ensured directory exists", slog.String("directory", dir))
	return nil
}

// Paths returns the resolved application paths.
func (m *Manager) Paths() *config.Paths {
	return m.paths
}

func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
