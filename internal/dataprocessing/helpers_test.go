package dataprocessing

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fearcli/internal/config"
	"fearcli/internal/shared/testutil"
	"fearcli/pkg/contracts/domain"
)

const experimentYAML = `
raw_data_path: raw
proc_data_path: proc
raw_data: true
sessions: [train, tone, context]
train_file: train.csv
group_ids:
  ctrl: [1, 2]
  exp: [3]
sex: true
sex_ids:
  M: [1, 3]
  F: [2]
`

// freezeFor gives each animal and component a distinct, predictable value.
func freezeFor(a, c int) float64 {
	return float64(10*a + c)
}

// setupExperiment writes an experiment file with a csv train export of
// three animals and returns the loaded experiment.
func setupExperiment(t *testing.T, extra string) *config.Experiment {
	t.Helper()

	dir := t.TempDir()
	raw := filepath.Join(dir, "raw")
	rows := testutil.ExportRows([]string{"1", "2", "3"}, testutil.TFCComponents(2), freezeFor)
	testutil.WriteExportCSV(t, mkdir(t, raw), "train.csv", rows)

	path := testutil.WriteFile(t, dir, "expt_config.yaml", experimentYAML+extra)
	exp, err := config.LoadExperiment(path)
	require.NoError(t, err)
	return exp
}

func mkdir(t *testing.T, dir string) string {
	t.Helper()
	testutil.WriteFile(t, dir, ".keep", "")
	return dir
}

// makeTable builds an in-memory raw table, animal-major.
func makeTable(session string, animals, components []string, freeze func(a, c int) float64) *domain.Table {
	table := &domain.Table{Session: session, Stage: domain.StageRaw}
	for a, animal := range animals {
		for c, comp := range components {
			v := freeze(a, c)
			table.Records = append(table.Records, domain.FreezeRecord{
				Animal:    animal,
				Group:     "g" + animal,
				Component: comp,
				PctFreeze: v,
				AvgMotion: 100 - v,
			})
		}
	}
	return table
}

func phasesOf(table *domain.Table) []string {
	phases, _ := table.Labels(domain.ColumnPhase)
	return phases
}
