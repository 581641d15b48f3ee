package menu

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

// csvHeader matches the downstream training pipeline's expected columns.
// The Beilagensalat and Regio Apfel lines are stripped from descriptions
// and recorded as constant "no" columns instead.
var csvHeader = []string{
	"description", "Beilagensalat", "Regio Apfel",
	"type", "diet", "mensa", "image_path",
}

// CSVFileName derives the run's CSV filename from the name tag and the
// inclusive date range it covers.
func CSVFileName(csvName string, start, stop time.Time) string {
	return fmt.Sprintf("%s_%s_%s.csv", csvName, ISODate(start), ISODate(stop))
}

// WriteCSV writes all meal rows plus the header to path, replacing any
// previous file. It returns the number of meal rows written.
func WriteCSV(path string, meals []Meal) (int, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, meal := range meals {
		row := []string{
			meal.Description,
			"no",
			"no",
			meal.DishType,
			meal.Diet,
			meal.Mensa,
			meal.ImagePath,
		}
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return 0, fmt.Errorf("write csv %s: %w", path, err)
	}
	return len(meals), nil
}
