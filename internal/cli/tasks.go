package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/tasks"
	"github.com/nhle/taskmaster/internal/view"
)

// openQuiet opens the core for commands that never announce anything.
func openQuiet(cmd *cobra.Command, opts *rootOptions) (*core, error) {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	return openCore(cmd.Context(), cfg, coreOptions{
		display: &consoleDisplay{w: cmd.ErrOrStderr(), verbose: opts.verbose},
	})
}

func listCmd(opts *rootOptions) *cobra.Command {
	var (
		status   string
		priority string
		sortBy   string
		search   string
		deleted  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := buildQuery(status, priority, sortBy, search)
			if err != nil {
				return err
			}

			c, err := openQuiet(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Close()

			snapshot := c.tasks.Snapshot()
			rows := view.Apply(snapshot, q)
			if deleted {
				rows = view.Deleted(snapshot)
			}
			renderTasks(cmd.OutOrStdout(), rows, time.Now())
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(view.StatusAll), "Status filter: all, active, completed, deleted")
	cmd.Flags().StringVar(&priority, "priority", string(view.PriorityAll), "Priority filter: all, high, medium, low")
	cmd.Flags().StringVar(&sortBy, "sort", string(view.SortDate), "Sort order: date, priority, name")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only tasks containing this text")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "List the deleted tasks in restore order")
	return cmd
}

// buildQuery validates the list flags.
func buildQuery(status, priority, sortBy, search string) (view.Query, error) {
	q := view.DefaultQuery()

	if !contains(view.Statuses, view.Status(status)) {
		return q, fmt.Errorf("unknown status %q", status)
	}
	q.Status = view.Status(status)

	p := model.Priority(priority)
	if p != view.PriorityAll && !contains(model.Priorities, p) {
		return q, fmt.Errorf("unknown priority %q", priority)
	}
	q.Priority = p

	if !contains(view.Sorts, view.Sort(sortBy)) {
		return q, fmt.Errorf("unknown sort %q", sortBy)
	}
	q.Sort = view.Sort(sortBy)
	q.Search = search
	return q, nil
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// renderTasks prints rows as a numbered table; the numbers are the ones
// voice commands refer to.
func renderTasks(w io.Writer, rows []model.Task, now time.Time) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false

	t.AppendHeader(table.Row{"#", "Task", "Priority", "Status", "Reminder", "Created"})
	for i, task := range rows {
		t.AppendRow(table.Row{
			i + 1,
			task.Text,
			priorityText(task.Priority),
			statusText(task),
			reminderText(task, now),
			task.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t.Render()
}

func priorityText(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return text.FgHiRed.Sprint(string(p))
	case model.PriorityLow:
		return text.FgHiBlue.Sprint(string(p))
	default:
		return text.FgHiYellow.Sprint(string(p))
	}
}

func statusText(t model.Task) string {
	switch {
	case t.Deleted:
		return text.FgHiBlack.Sprint("deleted")
	case t.Completed:
		return text.FgHiGreen.Sprint("done")
	default:
		return "active"
	}
}

func reminderText(t model.Task, now time.Time) string {
	if t.ReminderAt == nil || t.ReminderAt.IsZero() {
		return ""
	}
	s := t.ReminderAt.Local().Format("2006-01-02 15:04")
	switch {
	case t.ReminderSent:
		s += " (sent)"
	case t.ReminderDue(now):
		s += " (due)"
	}
	if t.ReminderEmail {
		s += " ✉"
	}
	return s
}

func exportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task, deleted ones included, to a file",
		Long: `Export writes the whole collection in store order. The default file is
tasks_YYYY-MM-DD.json in the current directory; use --output - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != tasks.FormatJSON && format != tasks.FormatYAML {
				return fmt.Errorf("unknown export format %q", format)
			}

			c, err := openQuiet(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Close()

			if output == "-" {
				return c.tasks.Export(cmd.OutOrStdout(), format)
			}
			if output == "" {
				output = tasks.ExportFileName(time.Now(), format)
			}
			if err := writeFile(output, func(w io.Writer) error {
				return c.tasks.Export(w, format)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(c.tasks.Snapshot()), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", tasks.FormatJSON, "Export format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout")
	return cmd
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return write(f)
}
