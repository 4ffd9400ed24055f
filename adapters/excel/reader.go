// Package excel reads game-state observations from spreadsheet files, with a
// plain CSV fallback for .csv paths.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"winstack/domain/dataset"
	"winstack/internal/errors"
	"winstack/ports"
)

// Required column headers, matched case-insensitively.
const (
	colScoreDiff = "score_diff"
	colTimeLeft  = "time_left"
	colLabel     = "label"
	colGameID    = "game_id"
)

// ObservationReader loads observations from an .xlsx or .csv file.
type ObservationReader struct {
	path string
}

// NewObservationReader creates a reader for the given file path.
func NewObservationReader(path string) ports.ObservationRepository {
	return &ObservationReader{path: path}
}

// LoadObservations parses the file into a validated dataset.
func (r *ObservationReader) LoadObservations(ctx context.Context) (*dataset.Dataset, error) {
	rows, err := r.readRows()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.DataSourceError(r.path, fmt.Errorf("need a header row and at least one data row"))
	}

	cols, err := columnIndex(rows[0])
	if err != nil {
		return nil, errors.DataSourceError(r.path, err)
	}

	observations := make([]dataset.Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		scoreDiff, err1 := cellInt(row, cols[colScoreDiff])
		timeLeft, err2 := cellInt(row, cols[colTimeLeft])
		label, err3 := cellInt(row, cols[colLabel])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, errors.DataSourceError(r.path, fmt.Errorf("row %d: unparseable numeric cell", i+2))
		}
		gameID := ""
		if idx := cols[colGameID]; idx < len(row) {
			gameID = strings.TrimSpace(row[idx])
		}
		observations = append(observations, dataset.Observation{
			Features: dataset.StateFeatures(scoreDiff, timeLeft),
			Label:    label,
			GroupID:  gameID,
		})
	}
	ds, err := dataset.New(observations)
	if err != nil {
		return nil, errors.DataSourceError(r.path, err)
	}
	return ds, nil
}

func (r *ObservationReader) readRows() ([][]string, error) {
	if strings.EqualFold(filepath.Ext(r.path), ".csv") {
		f, err := os.Open(r.path)
		if err != nil {
			return nil, errors.DataSourceError(r.path, err)
		}
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			return nil, errors.DataSourceError(r.path, err)
		}
		return rows, nil
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, errors.DataSourceError(r.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.DataSourceError(r.path, fmt.Errorf("workbook has no sheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.DataSourceError(r.path, err)
	}
	return rows, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colScoreDiff, colTimeLeft, colLabel, colGameID} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return cols, nil
}

func cellInt(row []string, idx int) (int, error) {
	if idx >= len(row) {
		return 0, fmt.Errorf("short row")
	}
	value := strings.TrimSpace(row[idx])
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	// Spreadsheet numerics often come back as floats ("3.0").
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
