package dataprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// TotalByPhase averages each animal's rows per phase, split by hue when hue
// is not empty. Used for plotting by phase.
func TotalByPhase(table *domain.Table, hue string) (*domain.Table, error) {
	return MeanByAnimal(table, domain.ColumnPhase, hue)
}

// MeanByAnimal averages PctFreeze and AvgMotion per (Animal, hue, key) in
// first-seen order. Missing values are left out of the means; a group with
// none keeps the missing flag. Group and Sex are carried over when they are
// constant within the group.
func MeanByAnimal(table *domain.Table, key, hue string) (*domain.Table, error) {
	if !domain.IsCategorical(key) || key == domain.ColumnAnimal {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot group by column %q", key))
	}
	if hue != "" && (!domain.IsCategorical(hue) || hue == domain.ColumnAnimal || hue == key) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot split by column %q", hue))
	}

	type groupKey struct{ animal, hue, key string }
	type acc struct {
		rec    domain.FreezeRecord
		freeze []float64
		motion []float64
	}

	groups := make(map[groupKey]*acc)
	var order []groupKey
	for _, r := range table.Records {
		k := groupKey{animal: r.Animal}
		k.key, _ = r.Label(key)
		if hue != "" {
			k.hue, _ = r.Label(hue)
		}

		a, ok := groups[k]
		if !ok {
			a = &acc{}
			a.rec.Animal = r.Animal
			a.rec.Group = r.Group
			a.rec.Sex = r.Sex
			a.rec.SetLabel(key, k.key)
			if hue != "" {
				a.rec.SetLabel(hue, k.hue)
			}
			groups[k] = a
			order = append(order, k)
		} else {
			if a.rec.Group != r.Group && key != domain.ColumnGroup && hue != domain.ColumnGroup {
				a.rec.Group = ""
			}
			if a.rec.Sex != r.Sex && key != domain.ColumnSex && hue != domain.ColumnSex {
				a.rec.Sex = ""
			}
		}

		if v, ok := r.Value(domain.ColumnPctFreeze); ok {
			a.freeze = append(a.freeze, v)
		}
		if v, ok := r.Value(domain.ColumnAvgMotion); ok {
			a.motion = append(a.motion, v)
		}
	}

	out := &domain.Table{
		Session: table.Session,
		Source:  table.Source,
		Stage:   domain.StageSummary,
		HasSex:  table.HasSex,
		Records: make([]domain.FreezeRecord, 0, len(order)),
	}
	for _, k := range order {
		a := groups[k]
		rec := a.rec
		if len(a.freeze) > 0 {
			rec.PctFreeze = stat.Mean(a.freeze, nil)
		} else {
			rec.Missing |= domain.MissingPctFreeze
		}
		if len(a.motion) > 0 {
			rec.AvgMotion = stat.Mean(a.motion, nil)
		} else {
			rec.Missing |= domain.MissingAvgMotion
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}
