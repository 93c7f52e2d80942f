package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
)

var csvHeader = []string{"Task", "Date", "Minutes", "Duration"}

// ToCSV writes one row per completed focus period, in record order.
func ToCSV(records []store.SessionRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Task,
			r.Date.Format(store.DateLayout),
			strconv.Itoa(r.Minutes),
			session.FormatMinutes(r.Minutes),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}
