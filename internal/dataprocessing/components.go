package dataprocessing

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// Component time protocols, one sheet each in the component times workbook.
const (
	ProtocolTrain = "train"
	ProtocolTone  = "tone"
)

// ProtocolFor picks the component time sheet for a session: "train" when the
// session name contains it, else "tone".
func ProtocolFor(session string) (string, error) {
	s := strings.ToLower(session)
	switch {
	case strings.Contains(s, ProtocolTrain):
		return ProtocolTrain, nil
	case strings.Contains(s, ProtocolTone):
		return ProtocolTone, nil
	}
	return "", apperrors.NewConfigError(
		fmt.Sprintf("session %q must include %q or %q to have component times", session, ProtocolTrain, ProtocolTone), nil).
		WithContext("session", session)
}

// LoadComponentTimes reads the phase, start and end columns of the
// session's protocol sheet.
func LoadComponentTimes(path, session string) ([]domain.ComponentTime, error) {
	protocol, err := ProtocolFor(session)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewMissingFileError(path, err)
		}
		return nil, apperrors.NewFormatError("failed to open component times", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := ""
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(name), protocol) {
			sheet = name
			break
		}
	}
	if sheet == "" {
		return nil, apperrors.NewFormatError(fmt.Sprintf("component times have no %q sheet", protocol), nil).
			WithContext("path", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewFormatError("failed to read component times", err).WithContext("path", path)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewFormatError(fmt.Sprintf("sheet %q is empty", sheet), nil).WithContext("path", path)
	}

	cols := map[string]int{}
	for j, cell := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(cell))] = j
	}
	for _, required := range []string{"phase", "start", "end"} {
		if _, ok := cols[required]; !ok {
			return nil, apperrors.NewFormatError(fmt.Sprintf("sheet %q has no %q column", sheet, required), nil).
				WithContext("path", path)
		}
	}

	var times []domain.ComponentTime
	for i, row := range rows[1:] {
		get := func(col string) string {
			if j := cols[col]; j < len(row) {
				return strings.TrimSpace(row[j])
			}
			return ""
		}
		phase := get("phase")
		if phase == "" && get("start") == "" && get("end") == "" {
			continue
		}

		start, errS := strconv.ParseFloat(get("start"), 64)
		end, errE := strconv.ParseFloat(get("end"), 64)
		if phase == "" || errS != nil || errE != nil {
			return nil, apperrors.NewFormatError(fmt.Sprintf("invalid component time on row %d", i+2), nil).
				WithContext("path", path).
				WithContext("sheet", sheet)
		}
		if end < start {
			return nil, apperrors.NewFormatError(
				fmt.Sprintf("component %q ends before it starts (row %d)", phase, i+2), nil).
				WithContext("path", path)
		}
		times = append(times, domain.ComponentTime{Phase: phase, Start: start, End: end})
	}

	if len(times) == 0 {
		return nil, apperrors.NewFormatError(fmt.Sprintf("sheet %q has no component times", sheet), nil).
			WithContext("path", path)
	}
	return times, nil
}
