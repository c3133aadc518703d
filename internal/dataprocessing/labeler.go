package dataprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// LabelFCData assigns session time and epoch to high resolution exports.
// Each animal's rows are spread evenly from 0 to the end of the last
// component (rounded to 2 decimals), and Epoch is the component covering
// that time. Later components win where spans overlap; times no component
// covers keep an empty Epoch. Every animal must have as many rows as the
// first one.
func LabelFCData(table *domain.Table, times []domain.ComponentTime) (*domain.Table, error) {
	if table.Len() == 0 {
		return nil, apperrors.NewValidationError("cannot label an empty table")
	}
	if len(times) == 0 {
		return nil, apperrors.NewValidationError("no component times to label with")
	}

	sessionEnd := times[0].End
	for _, ct := range times[1:] {
		sessionEnd = math.Max(sessionEnd, ct.End)
	}

	out := table.Clone()
	out.Stage = domain.StageLabeled

	rows := rowsByAnimal(out)
	animals := out.Animals()
	n := len(rows[animals[0]])
	for _, a := range animals {
		if len(rows[a]) != n {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("animal %s has %d rows, expected %d", a, len(rows[a]), n)).
				WithContext("animal", a)
		}
	}

	grid := linspace(0, sessionEnd, n, 2)
	for _, a := range animals {
		for k, idx := range rows[a] {
			r := &out.Records[idx]
			r.Time = grid[k]
			r.Epoch = ""
			for _, ct := range times {
				if ct.Contains(r.Time) {
					r.Epoch = ct.Phase
				}
			}
		}
	}
	return out, nil
}

// rowsByAnimal returns the record indexes of each animal in table order.
func rowsByAnimal(table *domain.Table) map[string][]int {
	rows := make(map[string][]int)
	for i, r := range table.Records {
		rows[r.Animal] = append(rows[r.Animal], i)
	}
	return rows
}

// linspace returns n evenly spaced values from lo to hi inclusive, rounded
// to the given number of decimals.
func linspace(lo, hi float64, n, decimals int) []float64 {
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{round(lo, decimals)}
	}
	out := floats.Span(make([]float64, n), lo, hi)
	for i := range out {
		out[i] = round(out[i], decimals)
	}
	return out
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
