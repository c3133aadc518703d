package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir  string
	DataDir        string
	OutputDir      string
	FigDir         string
	LogsDir        string
	ComponentsFile string
}

// GetPaths returns the default application paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	exeDir := filepath.Dir(exe)
	slog.Debug("Resolved executable directory",
		slog.String("exe_path", exe),
		slog.String("exe_dir", exeDir))

	return ResolvePaths(exeDir, Default().Paths), nil
}

// ResolvePaths anchors the configured paths at base. Absolute entries are
// kept as they are.
//
//	base/
//	  ├── data/                (instrument exports)
//	  ├── files/               (component time workbooks)
//	  ├── output/              (cleaned tables, pivots, workbooks)
//	  │   └── figures/
//	  └── logs/
func ResolvePaths(base string, cfg PathsConfig) *Paths {
	if cfg.ExecutableDir != "" {
		base = cfg.ExecutableDir
	}
	resolve := func(p, def string) string {
		if p == "" {
			p = def
		}
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		ExecutableDir:  base,
		DataDir:        resolve(cfg.DataDir, DefaultDataDir),
		OutputDir:      resolve(cfg.OutputDir, DefaultOutputDir),
		FigDir:         resolve(cfg.FigDir, DefaultFigDir),
		LogsDir:        resolve(cfg.LogsDir, DefaultLogsDir),
		ComponentsFile: resolve(cfg.ComponentsFile, DefaultComponentsFile),
	}
}

// EnsureDirectories creates the output directories if they don't exist.
// Input directories are never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		p.FigDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetOutputPath returns the path for an exported table or workbook
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// GetFigurePath returns the path for a saved figure
func (p *Paths) GetFigurePath(filename string) string {
	return filepath.Join(p.FigDir, filename)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("figures", p.FigDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("components", p.ComponentsFile),
			slog.Bool("components_exists", FileExists(p.ComponentsFile)),
		))
}
