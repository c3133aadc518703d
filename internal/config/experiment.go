package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// Experiment is the project file (expt_config.yaml) describing where the
// instrument exports live and how animals map to groups.
//
//	raw_data_path: data/raw
//	proc_data_path: data/proc
//	raw_data: true
//	sessions: [train, tone, context]
//	train_file: train_export.csv
//	group_ids:
//	  ctrl: [1, 2, 3]
//	  exp: [4, 5, 6]
//	sex: true
//	sex_ids:
//	  M: [1, 4]
//	  F: [2, 3, 5, 6]
type Experiment struct {
	ProjectPath    string                 `yaml:"project_path"`
	RawDataPath    string                 `yaml:"raw_data_path"`
	ProcDataPath   string                 `yaml:"proc_data_path"`
	RawData        bool                   `yaml:"raw_data"`
	FigPath        string                 `yaml:"fig_path"`
	Sessions       []string               `yaml:"sessions" validate:"required,min=1,dive,required"`
	Files          map[string]string      `yaml:"files"`
	GroupIDs       map[string][]string    `yaml:"group_ids"`
	Sex            bool                   `yaml:"sex"`
	SexIDs         map[string][]string    `yaml:"sex_ids" validate:"required_if=Sex true"`
	ComponentsFile string                 `yaml:"components_file"`
	Labels         map[string]LabelScheme `yaml:"labels" validate:"dive"`

	// Extra collects the <session>_file keys of the classic layout.
	Extra map[string]interface{} `yaml:",inline"`

	dir string
}

// LabelScheme declares the phase labels of one session.
type LabelScheme struct {
	Phases   []string          `yaml:"phases" validate:"dive,required"`
	PhaseMap map[string]string `yaml:"phase_map"`
}

// LoadExperiment reads and validates an experiment file. Relative data paths
// are resolved against project_path, or the file's own directory.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewMissingFileError(path, err)
		}
		return nil, apperrors.NewConfigError("failed to read experiment config", err)
	}
	return ParseExperiment(data, filepath.Dir(path))
}

// ParseExperiment decodes an experiment file held in memory. dir anchors
// relative paths when project_path is empty.
func ParseExperiment(data []byte, dir string) (*Experiment, error) {
	var exp Experiment
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return nil, apperrors.NewConfigError("failed to parse experiment config", err)
	}
	exp.dir = dir

	if err := validator.New().Struct(&exp); err != nil {
		return nil, apperrors.NewConfigError("invalid experiment config", err)
	}

	for i, s := range exp.Sessions {
		exp.Sessions[i] = strings.ToLower(strings.TrimSpace(s))
	}

	return &exp, nil
}

// HasSession reports whether name is listed in sessions, ignoring case.
func (e *Experiment) HasSession(name string) bool {
	return slices.Contains(e.Sessions, strings.ToLower(name))
}

// DataDir returns the directory the session exports are read from.
func (e *Experiment) DataDir() string {
	dir := e.ProcDataPath
	if e.RawData {
		dir = e.RawDataPath
	}
	return e.resolve(dir)
}

// FigDir returns fig_path resolved like the data paths.
func (e *Experiment) FigDir() string {
	if e.FigPath == "" {
		return ""
	}
	return e.resolve(e.FigPath)
}

// SessionFile returns the export file configured for a session, if any.
func (e *Experiment) SessionFile(name string) (string, bool) {
	name = strings.ToLower(name)
	if f, ok := e.Files[name]; ok && f != "" {
		return filepath.Join(e.DataDir(), f), true
	}
	if v, ok := e.Extra[name+"_file"]; ok {
		if f := fmt.Sprint(v); f != "" {
			return filepath.Join(e.DataDir(), f), true
		}
	}
	return "", false
}

// Session resolves the configuration of one session. File is empty when the
// experiment names no export for it; the loader then searches DataDir.
func (e *Experiment) Session(name string) (domain.SessionConfig, error) {
	if !e.HasSession(name) {
		return domain.SessionConfig{}, apperrors.NewConfigError(
			fmt.Sprintf("session %q not found in sessions list %v", name, e.Sessions), nil).
			WithContext("session", name)
	}

	id := strings.ToLower(name)
	file, _ := e.SessionFile(id)
	sess := domain.SessionConfig{
		ID:       id,
		File:     file,
		GroupIDs: e.GroupIDs,
	}
	if e.Sex {
		sess.SexIDs = e.SexIDs
	}
	if e.ComponentsFile != "" {
		sess.ComponentsFile = e.resolve(e.ComponentsFile)
	}
	if scheme, ok := e.Labels[id]; ok {
		sess.Phases = slices.Clone(scheme.Phases)
		sess.PhaseMap = scheme.PhaseMap
	}

	return sess, nil
}

func (e *Experiment) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	base := e.ProjectPath
	switch {
	case base == "":
		base = e.dir
	case !filepath.IsAbs(base):
		base = filepath.Join(e.dir, base)
	}
	return filepath.Join(base, p)
}
