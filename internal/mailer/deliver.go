package mailer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nhle/taskmaster/internal/model"
)

// Outcome reports which path a delivery took.
type Outcome int

const (
	// Sent means the relay accepted the message.
	Sent Outcome = iota
	// Drafted means a compose window was opened instead.
	Drafted
	// Failed means neither path worked.
	Failed
)

// Deliver tries the relay when the settings are complete and falls back to
// opening a mailto draft when they are not or the send fails. sender may be
// nil, in which case the draft is always used.
func Deliver(ctx context.Context, sender Sender, composer Composer, settings model.EmailSettings, msg Message, timeout time.Duration) (Outcome, error) {
	if sender != nil && settings.Configured() {
		sendCtx, cancel := context.WithTimeout(ctx, timeout)
		err := sender.Send(sendCtx, settings, msg)
		cancel()
		if err == nil {
			return Sent, nil
		}
		log.Printf("mailer: send to %q failed, falling back to draft: %v", msg.To, err)
	}

	if composer == nil {
		return Failed, fmt.Errorf("no mail composer for %q", msg.To)
	}
	if err := composer.Compose(MailtoLink(msg)); err != nil {
		return Failed, err
	}
	return Drafted, nil
}
