package domain

import (
	"fmt"
	"slices"
)

// TableStage records which step of the pipeline produced a table.
type TableStage string

const (
	StageRaw     TableStage = "raw"
	StageCleaned TableStage = "cleaned"
	StageLabeled TableStage = "labeled"
	StageTrials  TableStage = "trials"
	StageSummary TableStage = "summary"
)

// Table is an in-memory session table. Rows keep the order of the source file.
type Table struct {
	Session string         `json:"session"`
	Source  string         `json:"source"`
	Stage   TableStage     `json:"stage"`
	HasSex  bool           `json:"has_sex"`
	Records []FreezeRecord `json:"records"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := *t
	out.Records = slices.Clone(t.Records)
	return &out
}

// Labels returns the distinct values of a categorical column in first-seen order.
func (t *Table) Labels(column string) ([]string, error) {
	seen := make(map[string]bool)
	var labels []string
	for _, r := range t.Records {
		v, ok := r.Label(column)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", column)
		}
		if !seen[v] {
			seen[v] = true
			labels = append(labels, v)
		}
	}
	return labels, nil
}

// Animals returns the distinct animal ids in first-seen order.
func (t *Table) Animals() []string {
	labels, _ := t.Labels(ColumnAnimal)
	return labels
}

// Filter returns a copy of the table holding only rows accepted by keep.
func (t *Table) Filter(keep func(FreezeRecord) bool) *Table {
	out := *t
	out.Records = make([]FreezeRecord, 0, len(t.Records))
	for _, r := range t.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return &out
}
