package dataprocessing

import (
	"fmt"
	"strings"

	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// TrialsFrame cuts a labelled table into tone trials. Every component whose
// phase contains "tone" opens a trial window [start+winStart, start+winEnd]
// in session time; rows outside every window are dropped. TrialTime spreads
// each animal's rows within a trial evenly from winStart to winEnd, rounded
// to 1 decimal. Trials are numbered from 1 in component order.
func TrialsFrame(table *domain.Table, times []domain.ComponentTime, winStart, winEnd float64) (*domain.Table, error) {
	if table.Stage != domain.StageLabeled {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("trials need a labelled table, got stage %q", table.Stage))
	}
	if winStart >= winEnd {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("trial window start %.1f must be before end %.1f", winStart, winEnd))
	}

	type window struct{ lo, hi float64 }
	var windows []window
	for _, ct := range times {
		if strings.Contains(strings.ToLower(ct.Phase), domain.PhaseTone) {
			windows = append(windows, window{ct.Start + winStart, ct.Start + winEnd})
		}
	}
	if len(windows) == 0 {
		return nil, apperrors.NewValidationError("component times have no tone components")
	}

	out := table.Clone()
	out.Stage = domain.StageTrials
	for i := range out.Records {
		r := &out.Records[i]
		r.Trial = 0
		for w, win := range windows {
			if win.lo <= r.Time && r.Time <= win.hi {
				r.Trial = w + 1
			}
		}
	}
	out = out.Filter(func(r domain.FreezeRecord) bool { return r.Trial > 0 })

	type trialKey struct {
		animal string
		trial  int
	}
	members := make(map[trialKey][]int)
	for i, r := range out.Records {
		k := trialKey{r.Animal, r.Trial}
		members[k] = append(members[k], i)
	}
	for _, idxs := range members {
		grid := linspace(winStart, winEnd, len(idxs), 1)
		for k, idx := range idxs {
			out.Records[idx].TrialTime = grid[k]
		}
	}
	return out, nil
}
