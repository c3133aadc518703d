package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ExportExtensions are the file types the instrument can export.
var ExportExtensions = []string{".csv", ".xlsx", ".xls"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindExportFiles lists the csv and Excel files in dir, sorted by name.
func (d *Discovery) FindExportFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsExportFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// FindSessionExport returns the export whose file name contains the session
// name, ignoring case. Names are matched on word boundaries first, so "tone"
// prefers "tone_export.csv" over "pretone_export.csv". Among equal matches
// csv wins over Excel, then the first name in sort order.
func (d *Discovery) FindSessionExport(dir, session string) (FileInfo, bool, error) {
	files, err := d.FindExportFiles(dir)
	if err != nil {
		return FileInfo{}, false, err
	}

	session = strings.ToLower(session)
	var best FileInfo
	bestScore := -1
	for _, f := range files {
		stem := strings.ToLower(strings.TrimSuffix(f.Name, filepath.Ext(f.Name)))
		if !strings.Contains(stem, session) {
			continue
		}
		score := 0
		if containsWord(stem, session) {
			score += 2
		}
		if strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			score++
		}
		if score > bestScore {
			best, bestScore = f, score
		}
	}

	return best, bestScore >= 0, nil
}

// IsExportFile reports whether name has an instrument export extension.
func IsExportFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ExportExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

func containsWord(s, word string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	for _, f := range fields {
		if f == word {
			return true
		}
	}
	return false
}
