package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/voice"
)

func sayCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "say <command...>",
		Short: "Run one spoken-style command, e.g. say add buy milk high",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			disp := &consoleDisplay{w: cmd.OutOrStdout(), verbose: opts.verbose}
			c, err := openCore(cmd.Context(), cfg, coreOptions{
				display: disp,
				confirm: confirmer(yes, true),
			})
			if err != nil {
				return err
			}
			defer c.Close()

			out := c.interp.Interpret(strings.Join(args, " "))
			if out.Intent.Kind == voice.KindUnknown {
				return fmt.Errorf("command not recognized: %q", strings.Join(args, " "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Approve bulk deletions without asking")
	return cmd
}

func listenCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Interpret transcripts from stdin, one utterance per line",
		Long: `Listen runs a continuous voice session fed by standard input, so an
external speech-to-text tool can be piped in. Saying "stop" or closing the
input ends the session. Reminders that come due while listening are announced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			disp := &consoleDisplay{w: cmd.OutOrStdout(), verbose: opts.verbose}
			rec := voice.NewLineRecognizer(cmd.InOrStdin())
			// Stdin carries transcripts, so there is no prompt to confirm with.
			c, err := openCore(cmd.Context(), cfg, coreOptions{
				display:    disp,
				confirm:    confirmer(yes, false),
				recognizer: rec,
			})
			if err != nil {
				return err
			}
			defer c.Close()

			ended := make(chan struct{})
			var once sync.Once
			c.session.SetOnStateChange(func(s voice.State) {
				if s == voice.StateIdle || s == voice.StateError {
					once.Do(func() { close(ended) })
				}
			})

			c.scheduler.Start()
			if err := c.session.Start(); err != nil {
				return err
			}

			select {
			case <-ended:
			case <-rec.Done():
			case <-cmd.Context().Done():
			}
			if c.session.Listening() {
				c.session.Stop()
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Approve bulk deletions without asking")
	return cmd
}
