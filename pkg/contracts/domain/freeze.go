package domain

import "strconv"

// Column names used by tables, pivots and exports.
const (
	ColumnAnimal    = "Animal"
	ColumnSex       = "Sex"
	ColumnGroup     = "Group"
	ColumnPhase     = "Phase"
	ColumnComponent = "Component"
	ColumnPctFreeze = "PctFreeze"
	ColumnAvgMotion = "AvgMotion"
	ColumnEpoch     = "Epoch"
	ColumnTime      = "Time"
	ColumnTrial     = "Trial"
	ColumnTrialTime = "TrialTime"
)

// Phase labels assigned by the cleaner when a session declares no phase map.
const (
	PhaseBaseline = "baseline"
	PhaseTone     = "tone"
	PhaseTrace    = "trace"
	PhaseITI      = "iti"
	PhaseContext  = "context"
)

// MissingFlags marks numeric columns that had no usable value in the export.
type MissingFlags uint8

const (
	MissingPctFreeze MissingFlags = 1 << iota
	MissingAvgMotion
)

// Has reports whether every flag in f is set.
func (m MissingFlags) Has(f MissingFlags) bool {
	return m&f == f
}

// FreezeRecord is one row of a VideoFreeze component export: one animal, one
// component bin.
type FreezeRecord struct {
	Animal    string       `json:"animal"`
	Sex       string       `json:"sex,omitempty"`
	Group     string       `json:"group"`
	Phase     string       `json:"phase"`
	Component string       `json:"component"`
	PctFreeze float64      `json:"pct_freeze"`
	AvgMotion float64      `json:"avg_motion"`
	Epoch     string       `json:"epoch,omitempty"`
	Time      float64      `json:"time,omitempty"`
	Trial     int          `json:"trial,omitempty"`
	TrialTime float64      `json:"trial_time,omitempty"`
	Missing   MissingFlags `json:"missing,omitempty"`
}

// Label returns the string value of a categorical column.
func (r FreezeRecord) Label(column string) (string, bool) {
	switch column {
	case ColumnAnimal:
		return r.Animal, true
	case ColumnSex:
		return r.Sex, true
	case ColumnGroup:
		return r.Group, true
	case ColumnPhase:
		return r.Phase, true
	case ColumnComponent:
		return r.Component, true
	case ColumnEpoch:
		return r.Epoch, true
	case ColumnTrial:
		return strconv.Itoa(r.Trial), true
	}
	return "", false
}

// SetLabel sets a categorical column. It reports false for columns that are
// not categorical or not settable from a string.
func (r *FreezeRecord) SetLabel(column, value string) bool {
	switch column {
	case ColumnAnimal:
		r.Animal = value
	case ColumnSex:
		r.Sex = value
	case ColumnGroup:
		r.Group = value
	case ColumnPhase:
		r.Phase = value
	case ColumnComponent:
		r.Component = value
	case ColumnEpoch:
		r.Epoch = value
	case ColumnTrial:
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		r.Trial = n
	default:
		return false
	}
	return true
}

// IsCategorical reports whether column holds labels rather than measurements.
func IsCategorical(column string) bool {
	switch column {
	case ColumnAnimal, ColumnSex, ColumnGroup, ColumnPhase, ColumnComponent, ColumnEpoch, ColumnTrial:
		return true
	}
	return false
}

// Value returns a numeric column. ok is false for unknown columns and for
// values flagged as missing.
func (r FreezeRecord) Value(column string) (v float64, ok bool) {
	switch column {
	case ColumnPctFreeze:
		return r.PctFreeze, !r.Missing.Has(MissingPctFreeze)
	case ColumnAvgMotion:
		return r.AvgMotion, !r.Missing.Has(MissingAvgMotion)
	case ColumnTime:
		return r.Time, true
	case ColumnTrialTime:
		return r.TrialTime, true
	}
	return 0, false
}
