package dataprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// PrismTable is a wide table for GraphPad Prism: one row per animal, one
// column per label of the pivot column.
type PrismTable struct {
	Session string
	Column  string
	Labels  []string
	Rows    []PrismRow
}

// PrismRow holds one animal's mean PctFreeze per label. Present is false
// where the animal has no value for a label.
type PrismRow struct {
	Animal  string
	Group   string
	Values  []float64
	Present []bool
}

// PrismFormat pivots mean PctFreeze into one row per (Animal, Group) and one
// column per label of column, in first-seen order. Rows are ordered by
// Group, then Animal. Missing values are left out of the means.
func PrismFormat(table *domain.Table, column string) (*PrismTable, error) {
	if table.Len() == 0 {
		return nil, apperrors.NewValidationError("cannot pivot an empty table")
	}
	if !domain.IsCategorical(column) || column == domain.ColumnAnimal {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot pivot on column %q", column))
	}

	labels, err := table.Labels(column)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	labelIdx := make(map[string]int, len(labels))
	for i, l := range labels {
		labelIdx[l] = i
	}

	type rowKey struct{ animal, group string }
	samples := make(map[rowKey][][]float64)
	var keys []rowKey
	for _, r := range table.Records {
		k := rowKey{r.Animal, r.Group}
		if _, ok := samples[k]; !ok {
			samples[k] = make([][]float64, len(labels))
			keys = append(keys, k)
		}
		v, ok := r.Value(domain.ColumnPctFreeze)
		if !ok {
			continue
		}
		label, _ := r.Label(column)
		j := labelIdx[label]
		samples[k][j] = append(samples[k][j], v)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].group != keys[j].group {
			return keys[i].group < keys[j].group
		}
		return keys[i].animal < keys[j].animal
	})

	out := &PrismTable{
		Session: table.Session,
		Column:  column,
		Labels:  labels,
		Rows:    make([]PrismRow, 0, len(keys)),
	}
	for _, k := range keys {
		row := PrismRow{
			Animal:  k.animal,
			Group:   k.group,
			Values:  make([]float64, len(labels)),
			Present: make([]bool, len(labels)),
		}
		for j, xs := range samples[k] {
			if len(xs) > 0 {
				row.Values[j] = stat.Mean(xs, nil)
				row.Present[j] = true
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
