package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	Task     string `json:"task"`
	Date     string `json:"date"`
	Minutes  int    `json:"minutes"`
	Duration string `json:"duration"`
}

// now is swapped in tests.
var now = time.Now

func ToJSON(records []store.SessionRecord, path string) error {
	export := jsonExport{
		ExportedAt: now().UTC().Format(time.RFC3339),
		Count:      len(records),
		Sessions:   make([]jsonSession, 0, len(records)),
	}

	for _, r := range records {
		export.Sessions = append(export.Sessions, jsonSession{
			Task:     r.Task,
			Date:     r.Date.Format(store.DateLayout),
			Minutes:  r.Minutes,
			Duration: session.FormatMinutes(r.Minutes),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
