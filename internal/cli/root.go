// Package cli is the taskmaster command line: the interactive terminal UI
// by default, plus one-shot commands for scripting.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/nhle/taskmaster/internal/app"
	"github.com/nhle/taskmaster/internal/credential"
	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/voice"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	verbose    bool
}

// Execute runs the root command.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "taskmaster",
		Short: "Task Master - a voice-driven task list",
		Long: `Task Master keeps a prioritized task list that can be driven by spoken
commands, with reminders delivered as notifications and email.

Run without arguments to open the terminal UI.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "Path to the config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print assistant status and transcripts")

	root.AddCommand(sayCmd(opts))
	root.AddCommand(listenCmd(opts))
	root.AddCommand(listCmd(opts))
	root.AddCommand(exportCmd(opts))
	root.AddCommand(emailCmd(opts))
	root.AddCommand(remindersCmd(opts))
	root.AddCommand(configCmd(opts))

	return root
}

// runTUI opens the interactive terminal UI. Logs go to a file since the
// terminal belongs to the UI.
func runTUI(ctx context.Context, opts *rootOptions) error {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logPath := filepath.Join(model.ConfigDir(), "taskmaster.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := tea.LogToFile(logPath, "taskmaster")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	// The URL opener reports on stdout, which belongs to the UI.
	browser.Stdout = logFile
	browser.Stderr = logFile

	disp := app.NewDisplay()
	rec := voice.NewTextRecognizer(cfg.Voice.SessionTimeout())
	c, err := openCore(ctx, cfg, coreOptions{display: disp, confirm: disp, recognizer: rec})
	if err != nil {
		return err
	}
	defer c.Close()

	m := app.New(app.Deps{
		KV:          c.kv,
		Tasks:       c.tasks,
		View:        c.view,
		Prefs:       c.prefs,
		Announcer:   c.ann,
		Interpreter: c.interp,
		Session:     c.session,
		Recognizer:  rec,
		Scheduler:   c.scheduler,
		Sender:      c.sender,
		Composer:    c.composer,
		SetPassword: credential.SetSMTPPassword,
		Display:     disp,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
