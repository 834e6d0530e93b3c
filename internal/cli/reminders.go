package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func remindersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Work with task reminders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Deliver every reminder that is due now",
		Long: `Check runs one reminder scan, e.g. from cron. Each due reminder is
delivered once and then marked sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openQuiet(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Close()

			fired := c.scheduler.Poll(cmd.Context())
			for _, t := range fired {
				fmt.Fprintf(cmd.OutOrStdout(), "Reminder: %s\n", t.Text)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d reminder(s) delivered.\n", len(fired))
			return nil
		},
	})

	return cmd
}
