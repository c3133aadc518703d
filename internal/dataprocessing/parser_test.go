package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fearcli/internal/errors"
	"fearcli/internal/shared/testutil"
	"fearcli/pkg/contracts/domain"
)

const messyExport = "\ufeffFile,train.csv\n" +
	",,\n" +
	"Experiment,Animal,Group,Component Name,Pct Component Time Freezing,Avg Motion Index,Notes\n" +
	"TFC,12.0,A,BL-1,10.5,200,\n" +
	"TFC,13,A,BL-1,,150,\n" +
	"TFC,,,,,,\n" +
	"TFC,14,A,BL-1,nan,abc,late\n" +
	"TFC,m7, B ,Tone-1,33,90,\n"

func TestParseExport_CSV(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "train.csv", messyExport)

	table, err := ParseExport(path)
	require.NoError(t, err)

	assert.Equal(t, domain.StageRaw, table.Stage)
	assert.Equal(t, path, table.Source)
	require.Len(t, table.Records, 4, "row with a single non-empty cell is dropped")

	first := table.Records[0]
	assert.Equal(t, "12", first.Animal)
	assert.Equal(t, "A", first.Group)
	assert.Equal(t, "BL-1", first.Component)
	assert.Equal(t, 10.5, first.PctFreeze)
	assert.Equal(t, 200.0, first.AvgMotion)
	assert.Zero(t, first.Missing)

	assert.True(t, table.Records[1].Missing.Has(domain.MissingPctFreeze))
	assert.False(t, table.Records[1].Missing.Has(domain.MissingAvgMotion))
	assert.True(t, table.Records[2].Missing.Has(domain.MissingPctFreeze|domain.MissingAvgMotion))

	last := table.Records[3]
	assert.Equal(t, "m7", last.Animal)
	assert.Equal(t, "B", last.Group)
}

func TestParseExport_OptionalColumns(t *testing.T) {
	content := "Experiment,Animal,Component Name,Pct Component Time Freezing\n" +
		"TFC,1,BL-1,5\n"
	path := testutil.WriteFile(t, t.TempDir(), "train.csv", content)

	table, err := ParseExport(path)
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Empty(t, table.Records[0].Group)
	assert.True(t, table.Records[0].Missing.Has(domain.MissingAvgMotion))

	_, ok := table.Records[0].Value(domain.ColumnAvgMotion)
	assert.False(t, ok)
}

func TestParseExport_XLSX(t *testing.T) {
	rows := testutil.ExportRows([]string{"1", "2"}, []string{"BL-1", "Tone-1"}, freezeFor)
	path := testutil.WriteExportXLSX(t, t.TempDir(), "tone.xlsx", "Components", rows)

	table, err := ParseExport(path)
	require.NoError(t, err)
	require.Len(t, table.Records, 4)
	assert.Equal(t, "2", table.Records[3].Animal)
	assert.Equal(t, "Tone-1", table.Records[3].Component)
	assert.Equal(t, 11.0, table.Records[3].PctFreeze)
}

func TestParseExport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    error
		msg     string
	}{
		{
			name:    "no header row",
			file:    "train.csv",
			content: "Animal,Component Name\n1,BL-1\n",
			want:    apperrors.ErrFormat,
			msg:     "no header row",
		},
		{
			name:    "missing required column",
			file:    "train.csv",
			content: "Experiment,Animal,Component Name\nTFC,1,BL-1\n",
			want:    apperrors.ErrFormat,
			msg:     "Pct Component Time Freezing",
		},
		{
			name:    "unsupported extension",
			file:    "train.txt",
			content: "Experiment\n",
			want:    apperrors.ErrFormat,
		},
		{
			name:    "not a workbook",
			file:    "train.xlsx",
			content: "Experiment,Animal\n",
			want:    apperrors.ErrFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, t.TempDir(), tt.file, tt.content)
			_, err := ParseExport(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestParseExport_MissingFile(t *testing.T) {
	_, err := ParseExport(t.TempDir() + "/absent.csv")
	assert.ErrorIs(t, err, apperrors.ErrMissingFile)
}

func TestNormalizeAnimalID(t *testing.T) {
	tests := map[string]string{
		"12.0":  "12",
		" 7 ":   "7",
		"3.5":   "3.5",
		"m12":   "m12",
		"":      "",
		"1e2":   "100",
		"012.0": "12",
		"-4.0":  "-4",
		"1e20":  "1e20",
		"-1e19": "-1e19",
		"inf":   "inf",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeAnimalID(in), "input %q", in)
	}
}
