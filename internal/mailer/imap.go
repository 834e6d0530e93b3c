package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// SentCopier appends delivered messages to a mailbox over IMAP, so sent
// reminders show up in the user's mail client.
type SentCopier struct {
	addr    string
	mailbox string
}

// NewSentCopier returns nil when addr is empty.
func NewSentCopier(addr, mailbox string) *SentCopier {
	if addr == "" {
		return nil
	}
	if mailbox == "" {
		mailbox = "Sent"
	}
	return &SentCopier{addr: addr, mailbox: mailbox}
}

// Append stores raw in the mailbox, flagged as seen.
func (c *SentCopier) Append(ctx context.Context, user, pass string, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := imapclient.DialTLS(c.addr, nil)
	if err != nil {
		return fmt.Errorf("connecting to IMAP %s: %w", c.addr, err)
	}
	defer client.Close()

	if err := client.Login(user, pass).Wait(); err != nil {
		return fmt.Errorf("IMAP login as %s: %w", user, err)
	}
	defer func() { _ = client.Logout().Wait() }()

	cmd := client.Append(c.mailbox, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagSeen},
		Time:  time.Now(),
	})
	if _, err := cmd.Write(raw); err != nil {
		return fmt.Errorf("writing to %s: %w", c.mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing append to %s: %w", c.mailbox, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", c.mailbox, err)
	}
	return nil
}
