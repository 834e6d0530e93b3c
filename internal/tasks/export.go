package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nhle/taskmaster/internal/model"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExportFileName returns tasks_YYYY-MM-DD.<ext> for the given day.
func ExportFileName(day time.Time, format string) string {
	ext := "json"
	if format == FormatYAML {
		ext = "yaml"
	}
	return fmt.Sprintf("tasks_%s.%s", day.Format("2006-01-02"), ext)
}

// Export writes the whole collection, deleted tasks included, in store order.
// JSON output uses the persisted layout indented by two spaces.
func (s *Store) Export(w io.Writer, format string) error {
	snapshot := s.Snapshot()

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if snapshot == nil {
			snapshot = []model.Task{}
		}
		if err := enc.Encode(snapshot); err != nil {
			return fmt.Errorf("exporting tasks as json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toYAML(snapshot)); err != nil {
			return fmt.Errorf("exporting tasks as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("exporting tasks as yaml: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}

// yamlTask mirrors the persisted JSON keys.
type yamlTask struct {
	ID            int64  `yaml:"id"`
	Text          string `yaml:"text"`
	Priority      string `yaml:"priority"`
	Completed     bool   `yaml:"completed"`
	Deleted       bool   `yaml:"deleted"`
	CreatedAt     string `yaml:"createdAt"`
	ReminderAt    string `yaml:"reminderAt,omitempty"`
	ReminderEmail bool   `yaml:"reminderEmail"`
	ReminderTo    string `yaml:"reminderTo,omitempty"`
	ReminderSent  bool   `yaml:"reminderSent"`
}

func toYAML(in []model.Task) []yamlTask {
	out := make([]yamlTask, 0, len(in))
	for _, t := range in {
		y := yamlTask{
			ID:            t.ID,
			Text:          t.Text,
			Priority:      string(t.Priority),
			Completed:     t.Completed,
			Deleted:       t.Deleted,
			CreatedAt:     t.CreatedAt.String(),
			ReminderEmail: t.ReminderEmail,
			ReminderTo:    t.ReminderTo,
			ReminderSent:  t.ReminderSent,
		}
		if t.ReminderAt != nil {
			y.ReminderAt = t.ReminderAt.String()
		}
		out = append(out, y)
	}
	return out
}
