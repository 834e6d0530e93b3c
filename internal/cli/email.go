package cli

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nhle/taskmaster/internal/credential"
	"github.com/nhle/taskmaster/internal/mailer"
	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/store"
)

const testSendTimeout = 30 * time.Second

func emailCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Manage the reminder email relay",
	}
	cmd.AddCommand(emailShowCmd(opts))
	cmd.AddCommand(emailSetCmd(opts))
	cmd.AddCommand(emailTestCmd(opts))
	return cmd
}

func emailShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the email settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openQuiet(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Close()

			settings, err := store.LoadEmailSettings(cmd.Context(), c.kv)
			if err != nil {
				return err
			}
			renderSettings(cmd.OutOrStdout(), settings)
			return nil
		},
	}
}

func renderSettings(w io.Writer, s model.EmailSettings) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"SMTP server", s.ServiceID},
		{"Template", s.TemplateID},
		{"Username", s.UserID},
		{"From", s.From},
		{"Default recipient", s.To},
	})
	t.Render()
	if s.Configured() {
		fmt.Fprintln(w, "Email relay configured.")
	} else {
		fmt.Fprintln(w, "Email relay not configured. Reminders open a mail draft instead.")
	}
}

func emailSetCmd(opts *rootOptions) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the email settings",
		Long: `Set updates only the fields whose flags are given. The password is read
from stdin with --password-stdin and kept in the system keyring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openQuiet(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			settings, err := store.LoadEmailSettings(ctx, c.kv)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			for name, field := range map[string]*string{
				"server":   &settings.ServiceID,
				"template": &settings.TemplateID,
				"user":     &settings.UserID,
				"from":     &settings.From,
				"to":       &settings.To,
			} {
				if flags.Changed(name) {
					v, _ := flags.GetString(name)
					*field = strings.TrimSpace(v)
				}
			}
			if err := validateSettings(settings); err != nil {
				return err
			}

			if passwordStdin {
				if settings.UserID == "" {
					return fmt.Errorf("set --user before storing a password")
				}
				pass, err := readLine(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				if err := credential.SetSMTPPassword(settings.UserID, pass); err != nil {
					return err
				}
			}

			if err := store.SaveEmailSettings(ctx, c.kv, settings); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Email settings saved.")
			return nil
		},
	}

	cmd.Flags().String("server", "", "SMTP relay as host:port")
	cmd.Flags().String("template", "", "Template: "+strings.Join(mailer.TemplateNames(), ", "))
	cmd.Flags().String("user", "", "Account the relay authenticates as")
	cmd.Flags().String("from", "", "Sender address")
	cmd.Flags().String("to", "", "Default recipient")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the relay password from stdin")
	return cmd
}

func validateSettings(s model.EmailSettings) error {
	if s.ServiceID != "" {
		if _, _, err := net.SplitHostPort(s.ServiceID); err != nil {
			return fmt.Errorf("server must be host:port: %w", err)
		}
	}
	if s.TemplateID != "" && !contains(mailer.TemplateNames(), s.TemplateID) {
		return fmt.Errorf("unknown template %q", s.TemplateID)
	}
	return nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("empty password")
	}
	return line, nil
}

func emailTestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test email, or open a draft when the relay is not set up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openQuiet(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			settings, err := store.LoadEmailSettings(ctx, c.kv)
			if err != nil {
				return err
			}

			outcome, err := mailer.Deliver(ctx, c.sender, c.composer, settings,
				mailer.TestMessage(settings), testSendTimeout)
			switch outcome {
			case mailer.Sent:
				fmt.Fprintln(cmd.OutOrStdout(), "Test email sent.")
			case mailer.Drafted:
				fmt.Fprintln(cmd.OutOrStdout(), "Opened a mail draft instead.")
			default:
				return fmt.Errorf("test email failed: %w", err)
			}
			return nil
		},
	}
}
