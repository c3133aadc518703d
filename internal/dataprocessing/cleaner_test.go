package dataprocessing

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

func trainSession() domain.SessionConfig {
	return domain.SessionConfig{ID: "train", File: "train.csv"}
}

func TestClean_ProtocolPhases(t *testing.T) {
	raw := makeTable("train", []string{"1"},
		[]string{"BL-1", "BL-2", "Tone-1", "Trace-1", "ITI-1", "Tone-2", "Trace-2", "Shock-2", "ITI-2"},
		freezeFor)

	cleaned, err := Clean(raw, trainSession(), CleanOptions{})
	require.NoError(t, err)

	var got [][2]string
	for _, r := range cleaned.Records {
		got = append(got, [2]string{r.Component, r.Phase})
	}
	assert.Equal(t, [][2]string{
		{"bl-1", "baseline"},
		{"bl-2", "baseline"},
		{"tone-1", "tone"},
		{"trace-1", "trace"},
		{"iti-1", "iti"},
		{"tone-2", "tone"},
		{"trace-2", "trace"},
		{"shock-2", "iti"},
		{"iti-2", "iti"},
	}, got)
	assert.Equal(t, domain.StageCleaned, cleaned.Stage)

	// The input is left untouched.
	assert.Equal(t, "BL-1", raw.Records[0].Component)
	assert.Empty(t, raw.Records[0].Phase)
}

func TestClean_Context(t *testing.T) {
	raw := makeTable("context", []string{"1", "2"}, []string{"1", "2.0", " 3 "}, freezeFor)

	cleaned, err := Clean(raw, domain.SessionConfig{ID: "context"}, CleanOptions{})
	require.NoError(t, err)

	comps, _ := cleaned.Labels(domain.ColumnComponent)
	assert.Equal(t, []string{"1", "2", "3"}, comps)
	assert.Equal(t, []string{domain.PhaseContext}, phasesOf(cleaned))

	for _, comp := range []string{"BL-1", "1e20"} {
		raw.Records[1].Component = comp
		_, err = Clean(raw, domain.SessionConfig{ID: "ctx"}, CleanOptions{})
		assert.ErrorIs(t, err, apperrors.ErrValidation, comp)
	}
}

func TestClean_PhaseMap(t *testing.T) {
	sess := domain.SessionConfig{
		ID:       "tone",
		Phases:   []string{"Baseline", "Tone", "Shock"},
		PhaseMap: map[string]string{"BL-1": "Baseline", "Tone-1": "Tone", "Shock-1": "Shock"},
	}
	raw := makeTable("tone", []string{"1", "2"}, []string{"BL-1", "Tone-1", "Shock-1", "Extra"}, freezeFor)

	cleaned, err := Clean(raw, sess, CleanOptions{})
	require.NoError(t, err)

	assert.Equal(t, 6, cleaned.Len(), "unmapped components are dropped")
	assert.Equal(t, []string{"Baseline", "Tone", "Shock"}, phasesOf(cleaned))
	assert.Equal(t, "Tone-1", cleaned.Records[1].Component, "mapped components keep their spelling")
}

func TestClean_UndeclaredPhase(t *testing.T) {
	raw := makeTable("train", []string{"1"}, []string{"BL-1", "Tone-1", "Trace-1"}, freezeFor)

	_, err := Clean(raw, trainSession(), CleanOptions{PhaseLabels: []string{"baseline", "tone"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), `"trace"`)

	sess := domain.SessionConfig{
		ID:       "tone",
		Phases:   []string{"Baseline"},
		PhaseMap: map[string]string{"BL-1": "Baseline", "Tone-1": "Tone"},
	}
	_, err = Clean(raw, sess, CleanOptions{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestClean_Filters(t *testing.T) {
	raw := makeTable("train", []string{"1", "2"}, []string{"BL-1", "Tone-1", "Trace-1", "ITI-1"}, freezeFor)

	cleaned, err := Clean(raw, trainSession(), CleanOptions{IncludePhases: []string{"Tone", " trace"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"tone", "trace"}, phasesOf(cleaned))
	assert.Equal(t, 4, cleaned.Len())

	cleaned, err = Clean(raw, trainSession(), CleanOptions{IncludeComponents: []string{"TONE-1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Len())
}

func TestClean_MissingValues(t *testing.T) {
	raw := makeTable("train", []string{"1", "2"}, []string{"BL-1", "Tone-1"}, freezeFor)
	raw.Records[1].Missing = domain.MissingPctFreeze
	raw.Records[1].PctFreeze = 0
	raw.Records[2].Missing = domain.MissingAvgMotion

	flagged, err := Clean(raw, trainSession(), CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, flagged.Len())
	assert.True(t, flagged.Records[1].Missing.Has(domain.MissingPctFreeze))

	dropped, err := Clean(raw, trainSession(), CleanOptions{DropIncomplete: true})
	require.NoError(t, err)
	assert.Equal(t, 2, dropped.Len())
	for _, r := range dropped.Records {
		assert.Zero(t, r.Missing)
	}
}

func TestClean_BaselineSubtract(t *testing.T) {
	raw := makeTable("train", []string{"1", "2"}, []string{"BL-1", "BL-2", "Tone-1"}, func(a, c int) float64 {
		return []float64{10, 20, 50}[c] + float64(a)*100
	})
	raw.Records[2].Missing = domain.MissingPctFreeze

	cleaned, err := Clean(raw, trainSession(), CleanOptions{BaselineSubtract: true})
	require.NoError(t, err)

	got := make([]float64, 0, cleaned.Len())
	for _, r := range cleaned.Records {
		got = append(got, r.PctFreeze)
	}
	// Animal 1 baseline mean 15, animal 2 baseline mean 115; the missing value is untouched.
	assert.InDeltaSlice(t, []float64{-5, 5, 50, -5, 5, 35}, got, 1e-9)

	// Filtering to tone keeps the baseline means of the full table.
	raw = makeTable("train", []string{"1", "2"}, []string{"BL-1", "BL-2", "Tone-1", "Trace-1"}, func(a, c int) float64 {
		return []float64{1, 2, 3, 4}[c] + float64(a)*10
	})
	toneOnly, err := Clean(raw, trainSession(), CleanOptions{BaselineSubtract: true, IncludePhases: []string{"tone"}})
	require.NoError(t, err)
	require.Equal(t, 2, toneOnly.Len())
	for _, r := range toneOnly.Records {
		assert.Equal(t, "tone-1", r.Component)
		assert.InDelta(t, 1.5, r.PctFreeze, 1e-9)
	}

	_, err = Clean(makeTable("context", []string{"1"}, []string{"1"}, freezeFor),
		domain.SessionConfig{ID: "context"}, CleanOptions{BaselineSubtract: true})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestClean_NilTable(t *testing.T) {
	_, err := Clean(nil, trainSession(), CleanOptions{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCleanData_EqualsCleanOfLoadData(t *testing.T) {
	optionSets := []CleanOptions{
		{},
		{DropIncomplete: true},
		{BaselineSubtract: true},
		{IncludePhases: []string{"tone", "trace"}},
		{BaselineSubtract: true, IncludePhases: []string{"tone"}},
	}

	exp := setupExperiment(t, "")
	loader := NewLoader(nil)
	sess, err := loader.ResolveSession(exp, "train")
	require.NoError(t, err)

	for i, opts := range optionSets {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			raw, err := loader.LoadSession(sess)
			require.NoError(t, err)

			composed, err := Clean(raw, sess, opts)
			require.NoError(t, err)

			direct, err := CleanData(exp, "train", opts)
			require.NoError(t, err)

			assert.Equal(t, composed, direct)
		})
	}
}

func TestClean_PhasesAlwaysDeclared(t *testing.T) {
	// Random protocols: whatever the component names, cleaned phases stay
	// within the declared set and missing numbers stay flagged.
	rng := rand.New(rand.NewSource(7))
	names := []string{"BL-%d", "Tone-%d", "Trace-%d", "ITI-%d", "Shock-%d", "pre-%d"}

	for run := 0; run < 50; run++ {
		n := 1 + rng.Intn(12)
		comps := make([]string, n)
		for i := range comps {
			comps[i] = fmt.Sprintf(names[rng.Intn(len(names))], 1+rng.Intn(3))
		}
		raw := makeTable("train", []string{"1", "2"}, comps, freezeFor)
		for i := range raw.Records {
			if rng.Intn(5) == 0 {
				raw.Records[i].Missing = domain.MissingPctFreeze
			}
		}

		sess := trainSession()
		cleaned, err := Clean(raw, sess, CleanOptions{})
		require.NoError(t, err)

		declared := sess.DeclaredPhases()
		for i, r := range cleaned.Records {
			assert.True(t, slices.Contains(declared, r.Phase), "run %d: phase %q", run, r.Phase)
			if raw.Records[i].Missing != 0 {
				_, ok := r.Value(domain.ColumnPctFreeze)
				assert.False(t, ok, "missing value must stay flagged")
			}
		}
	}
}
