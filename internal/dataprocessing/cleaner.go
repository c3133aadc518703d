package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"fearcli/internal/config"
	apperrors "fearcli/internal/errors"
	"fearcli/internal/infrastructure"
	"fearcli/pkg/contracts/domain"
)

// CleanOptions tune Clean. The zero value harmonises labels only.
type CleanOptions struct {
	// IncludePhases keeps only rows in these phases (case-insensitive).
	IncludePhases []string
	// IncludeComponents keeps only rows with these components (case-insensitive).
	IncludeComponents []string
	// BaselineSubtract subtracts each animal's mean baseline PctFreeze.
	BaselineSubtract bool
	// DropIncomplete drops rows with missing numbers instead of flagging them.
	DropIncomplete bool
	// PhaseLabels replaces the session's declared phase set.
	PhaseLabels []string
}

// Cleaner turns raw session tables into cleaned tables.
type Cleaner struct {
	logger *slog.Logger
	loader *Loader
}

// NewCleaner creates a cleaner. A nil logger uses slog.Default().
func NewCleaner(logger *slog.Logger) *Cleaner {
	return &Cleaner{
		logger: infrastructure.WithComponent(logger, "cleaner"),
		loader: NewLoader(logger),
	}
}

// Clean cleans a raw table with a default cleaner.
func Clean(raw *domain.Table, sess domain.SessionConfig, opts CleanOptions) (*domain.Table, error) {
	return NewCleaner(nil).Clean(raw, sess, opts)
}

// CleanData loads and cleans one session with a default cleaner.
func CleanData(exp *config.Experiment, session string, opts CleanOptions) (*domain.Table, error) {
	return NewCleaner(nil).CleanData(exp, session, opts)
}

// CleanData is LoadData followed by Clean.
func (c *Cleaner) CleanData(exp *config.Experiment, session string, opts CleanOptions) (*domain.Table, error) {
	sess, err := c.loader.ResolveSession(exp, session)
	if err != nil {
		return nil, err
	}
	raw, err := c.loader.LoadSession(sess)
	if err != nil {
		return nil, err
	}
	return c.Clean(raw, sess, opts)
}

// Clean labels every row with a phase, applies the optional baseline
// subtraction and then the row filters, and checks that every phase is
// declared. raw is not modified.
//
// Context sessions get integer minute components and phase "context".
// Sessions with a phase map keep mapped rows only. Other sessions are
// labelled by component name: bins before tone-1 are baseline, then tone,
// trace and iti.
func (c *Cleaner) Clean(raw *domain.Table, sess domain.SessionConfig, opts CleanOptions) (*domain.Table, error) {
	if raw == nil {
		return nil, apperrors.NewValidationError("no table to clean")
	}

	table := raw.Clone()
	table.Stage = domain.StageCleaned
	if table.Session == "" {
		table.Session = sess.ID
	}
	before := table.Len()

	var err error
	switch {
	case sess.IsContext():
		err = labelContext(table)
	case len(sess.PhaseMap) > 0:
		table = labelMapped(table, sess)
	default:
		labelProtocol(table)
	}
	if err != nil {
		return nil, err
	}

	incomplete := 0
	for _, r := range table.Records {
		if r.Missing != 0 {
			incomplete++
		}
	}
	if opts.DropIncomplete && incomplete > 0 {
		table = table.Filter(func(r domain.FreezeRecord) bool { return r.Missing == 0 })
	}

	// Baseline means come from the full labelled table, so the include
	// filters may drop the baseline rows themselves.
	if opts.BaselineSubtract {
		if err := c.subtractBaseline(table); err != nil {
			return nil, err
		}
	}

	if len(opts.IncludePhases) > 0 {
		table = table.Filter(func(r domain.FreezeRecord) bool {
			return containsFold(opts.IncludePhases, r.Phase)
		})
	}
	if len(opts.IncludeComponents) > 0 {
		table = table.Filter(func(r domain.FreezeRecord) bool {
			return containsFold(opts.IncludeComponents, r.Component)
		})
	}

	declared := opts.PhaseLabels
	if len(declared) == 0 {
		declared = sess.DeclaredPhases()
	}
	if err := CheckPhases(table, declared); err != nil {
		return nil, err
	}

	c.logger.Info("Cleaned session table",
		slog.String("session", table.Session),
		slog.Int("rows_in", before),
		slog.Int("rows_out", table.Len()),
		slog.Int("incomplete", incomplete),
		slog.Bool("incomplete_dropped", opts.DropIncomplete),
		slog.Bool("baseline_subtracted", opts.BaselineSubtract))

	return table, nil
}

// CheckPhases returns a VALIDATION error naming the first row whose phase is
// outside declared.
func CheckPhases(table *domain.Table, declared []string) error {
	for i, r := range table.Records {
		if !slices.Contains(declared, r.Phase) {
			return apperrors.NewValidationError(
				fmt.Sprintf("phase %q of component %q is not declared %v", r.Phase, r.Component, declared)).
				WithContext("row", i).
				WithContext("phase", r.Phase).
				WithContext("declared", declared)
		}
	}
	return nil
}

func labelContext(table *domain.Table) error {
	for i := range table.Records {
		r := &table.Records[i]
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Component), 64)
		if err != nil || v != math.Trunc(v) || math.Abs(v) >= math.MaxInt64 {
			return apperrors.NewValidationError(
				fmt.Sprintf("context component %q is not a whole minute bin", r.Component)).
				WithContext("row", i)
		}
		r.Component = strconv.FormatInt(int64(v), 10)
		r.Phase = domain.PhaseContext
	}
	return nil
}

// labelMapped re-applies the phase map, so tables not produced by the
// loader are labelled too, and drops unmapped rows.
func labelMapped(table *domain.Table, sess domain.SessionConfig) *domain.Table {
	for i := range table.Records {
		r := &table.Records[i]
		r.Phase, _ = sess.PhaseFor(r.Component)
	}
	return table.Filter(func(r domain.FreezeRecord) bool {
		return r.Phase != ""
	})
}

func labelProtocol(table *domain.Table) {
	baseline := make(map[string]bool)
	for _, r := range table.Records {
		comp := strings.ToLower(r.Component)
		if comp == config.FirstToneComponent {
			break
		}
		baseline[comp] = true
	}

	for i := range table.Records {
		r := &table.Records[i]
		r.Component = strings.ToLower(r.Component)
		r.Phase = PhaseForComponent(r.Component, baseline)
	}
}

// PhaseForComponent labels one lower-cased component of a train or tone
// session. baseline holds the components seen before tone-1.
func PhaseForComponent(component string, baseline map[string]bool) string {
	switch {
	case baseline[component]:
		return domain.PhaseBaseline
	case strings.Contains(component, domain.PhaseTone):
		return domain.PhaseTone
	case strings.Contains(component, domain.PhaseTrace):
		return domain.PhaseTrace
	default:
		return domain.PhaseITI
	}
}

// subtractBaseline subtracts each animal's mean baseline freezing from its
// PctFreeze values. Missing values stay missing.
func (c *Cleaner) subtractBaseline(table *domain.Table) error {
	samples := make(map[string][]float64)
	for _, r := range table.Records {
		if !strings.EqualFold(r.Phase, domain.PhaseBaseline) {
			continue
		}
		if v, ok := r.Value(domain.ColumnPctFreeze); ok {
			samples[r.Animal] = append(samples[r.Animal], v)
		}
	}
	if len(samples) == 0 {
		return apperrors.NewValidationError("baseline subtraction needs baseline rows").
			WithContext("session", table.Session)
	}

	means := make(map[string]float64, len(samples))
	for animal, xs := range samples {
		means[animal] = stat.Mean(xs, nil)
	}

	var skipped []string
	for i := range table.Records {
		r := &table.Records[i]
		mean, ok := means[r.Animal]
		if !ok {
			if !slices.Contains(skipped, r.Animal) {
				skipped = append(skipped, r.Animal)
			}
			continue
		}
		if !r.Missing.Has(domain.MissingPctFreeze) {
			r.PctFreeze -= mean
		}
	}
	if len(skipped) > 0 {
		c.logger.Warn("Animals without baseline left unchanged",
			slog.String("session", table.Session),
			slog.Any("animals", skipped))
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
