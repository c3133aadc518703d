package dataprocessing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fearcli/internal/errors"
	"fearcli/internal/shared/testutil"
	"fearcli/pkg/contracts/domain"
)

// highResTable has 37 bins per animal, which spreads the 360 s train
// protocol on a 10 s grid.
func highResTable(animals ...string) *domain.Table {
	comps := make([]string, 37)
	for i := range comps {
		comps[i] = fmt.Sprintf("bin-%d", i+1)
	}
	table := makeTable("train", animals, comps, freezeFor)
	table.Stage = domain.StageCleaned
	return table
}

func TestLabelFCData(t *testing.T) {
	table := highResTable("1", "2")

	labeled, err := LabelFCData(table, testutil.TrainTimes())
	require.NoError(t, err)
	assert.Equal(t, domain.StageLabeled, labeled.Stage)
	assert.Equal(t, domain.StageCleaned, table.Stage, "input left untouched")
	require.Equal(t, 74, labeled.Len())

	epochs := map[float64]string{
		0:   "baseline",
		110: "baseline",
		120: "tone-1",
		150: "trace-1",
		160: "shock-1",
		170: "iti-1",
		240: "tone-2",
		360: "iti-2",
	}
	for _, r := range labeled.Records[37:] {
		assert.Equal(t, "2", r.Animal)
	}
	for k, r := range labeled.Records[:37] {
		assert.InDelta(t, float64(10*k), r.Time, 1e-9)
		if want, ok := epochs[r.Time]; ok {
			assert.Equal(t, want, r.Epoch, "time %v", r.Time)
		}
	}
	assert.Equal(t, labeled.Records[12].Time, labeled.Records[37+12].Time)
}

func TestLabelFCData_Uncovered(t *testing.T) {
	table := highResTable("1")
	times := []domain.ComponentTime{
		{Phase: "baseline", Start: 0, End: 100},
		{Phase: "tone-1", Start: 200, End: 360},
	}

	labeled, err := LabelFCData(table, times)
	require.NoError(t, err)
	assert.Equal(t, "baseline", labeled.Records[10].Epoch)
	assert.Empty(t, labeled.Records[15].Epoch)
	assert.Equal(t, "tone-1", labeled.Records[20].Epoch)
}

func TestLabelFCData_Errors(t *testing.T) {
	uneven := highResTable("1", "2")
	uneven.Records = uneven.Records[:len(uneven.Records)-1]

	_, err := LabelFCData(uneven, testutil.TrainTimes())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = LabelFCData(&domain.Table{}, testutil.TrainTimes())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = LabelFCData(highResTable("1"), nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLinspace(t *testing.T) {
	assert.Nil(t, linspace(0, 1, 0, 2))
	assert.Equal(t, []float64{1.23}, linspace(1.234, 9, 1, 2))
	assert.Equal(t, []float64{0, 0.33, 0.67, 1}, linspace(0, 1, 4, 2))
	assert.Equal(t, []float64{-20, -10, 0, 10}, linspace(-20, 10, 4, 1))
}

func TestTrialsFrame(t *testing.T) {
	labeled, err := LabelFCData(highResTable("1", "2"), testutil.TrainTimes())
	require.NoError(t, err)

	trials, err := TrialsFrame(labeled, testutil.TrainTimes(), -20, 60)
	require.NoError(t, err)
	assert.Equal(t, domain.StageTrials, trials.Stage)
	require.Equal(t, 36, trials.Len())

	wantTimes := []float64{-20, -10, 0, 10, 20, 30, 40, 50, 60}
	for i, animal := range []string{"1", "2"} {
		for trial := 1; trial <= 2; trial++ {
			start := i*18 + (trial-1)*9
			rows := trials.Records[start : start+9]

			var got []float64
			for _, r := range rows {
				assert.Equal(t, animal, r.Animal)
				assert.Equal(t, trial, r.Trial)
				got = append(got, r.TrialTime)
			}
			assert.Equal(t, wantTimes, got, "animal %s trial %d", animal, trial)
		}
	}

	first := trials.Records[0]
	assert.InDelta(t, 100, first.Time, 1e-9)
	assert.Equal(t, "baseline", first.Epoch)
}

func TestTrialsFrame_Errors(t *testing.T) {
	labeled, err := LabelFCData(highResTable("1"), testutil.TrainTimes())
	require.NoError(t, err)

	_, err = TrialsFrame(highResTable("1"), testutil.TrainTimes(), -20, 60)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "needs labelled stage")

	_, err = TrialsFrame(labeled, testutil.TrainTimes(), 60, -20)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "inverted window")

	_, err = TrialsFrame(labeled, testutil.TrainTimes()[:1], -20, 60)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "no tone components")
}
