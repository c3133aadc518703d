package dataprocessing

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"fearcli/internal/config"
	apperrors "fearcli/internal/errors"
	"fearcli/internal/files"
	"fearcli/internal/infrastructure"
	"fearcli/internal/validation"
	"fearcli/pkg/contracts/domain"
)

// Loader reads instrument exports into raw session tables.
type Loader struct {
	logger    *slog.Logger
	validator *validation.FileValidator
	discovery *files.Discovery
}

// NewLoader creates a loader. A nil logger uses slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	logger = infrastructure.WithComponent(logger, "loader")
	return &Loader{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
		discovery: files.NewDiscovery(""),
	}
}

// LoadData loads the export of one session named in the experiment with a
// default loader.
func LoadData(exp *config.Experiment, session string) (*domain.Table, error) {
	return NewLoader(nil).LoadData(exp, session)
}

// LoadData resolves the session, locates its export and returns the raw
// table with groups, sexes and mapped phases filled in.
func (l *Loader) LoadData(exp *config.Experiment, session string) (*domain.Table, error) {
	sess, err := l.ResolveSession(exp, session)
	if err != nil {
		return nil, err
	}
	return l.LoadSession(sess)
}

// ResolveSession returns the session configuration with its export path
// filled in, searching the data directory when the experiment names no file.
func (l *Loader) ResolveSession(exp *config.Experiment, session string) (domain.SessionConfig, error) {
	sess, err := exp.Session(session)
	if err != nil {
		return sess, err
	}
	if sess.File != "" {
		return sess, nil
	}

	dir := exp.DataDir()
	if err := l.validator.ValidateInputDirectory(dir); err != nil {
		return sess, err
	}
	found, ok, err := l.discovery.FindSessionExport(dir, sess.ID)
	if err != nil {
		return sess, apperrors.NewStorageError("failed to search data directory", err).WithContext("path", dir)
	}
	if !ok {
		pattern := filepath.Join(dir, "*"+sess.ID+"*")
		return sess, apperrors.NewMissingFileError(pattern,
			fmt.Errorf("no .csv or .xlsx export for session %q", sess.ID))
	}

	l.logger.Debug("Discovered session export",
		slog.String("session", sess.ID),
		slog.String("file", found.Path))
	sess.File = found.Path
	return sess, nil
}

// LoadSession loads a resolved session configuration.
func (l *Loader) LoadSession(sess domain.SessionConfig) (*domain.Table, error) {
	if strings.TrimSpace(sess.File) == "" {
		return nil, apperrors.NewMissingFileError("", fmt.Errorf("session %q has no export file", sess.ID))
	}
	if err := validation.ValidateStruct(sess); err != nil {
		return nil, err
	}
	if err := l.validator.ValidateExportFile(sess.File); err != nil {
		return nil, err
	}

	table, err := parseExport(sess.File, l.logger)
	if err != nil {
		return nil, err
	}
	table.Session = sess.ID
	table.HasSex = sess.TracksSex()

	assignIDs(table, sess.GroupIDs, func(r *domain.FreezeRecord, group string) { r.Group = group })
	if sess.TracksSex() {
		assignIDs(table, sess.SexIDs, func(r *domain.FreezeRecord, sex string) { r.Sex = sex })
	}

	if len(sess.PhaseMap) > 0 {
		unmapped := 0
		for i := range table.Records {
			r := &table.Records[i]
			if phase, ok := sess.PhaseFor(r.Component); ok {
				r.Phase = phase
			} else {
				unmapped++
			}
		}
		if unmapped > 0 {
			l.logger.Debug("Components without a phase",
				slog.String("session", sess.ID),
				slog.Int("rows", unmapped))
		}
	}

	l.logger.Info("Loaded session export",
		slog.String("session", sess.ID),
		slog.String("file", sess.File),
		slog.Int("rows", table.Len()),
		slog.Int("animals", len(table.Animals())))

	return table, nil
}

// assignIDs sets a label on every record whose animal is listed under a key
// of ids. Keys are visited in sorted order so an animal listed twice gets
// the last key consistently.
func assignIDs(table *domain.Table, ids map[string][]string, set func(*domain.FreezeRecord, string)) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for k := range ids {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lookup := make(map[string]string)
	for _, k := range keys {
		for _, id := range ids[k] {
			lookup[NormalizeAnimalID(id)] = k
		}
	}
	for i := range table.Records {
		if label, ok := lookup[strings.TrimSpace(table.Records[i].Animal)]; ok {
			set(&table.Records[i], label)
		}
	}
}
