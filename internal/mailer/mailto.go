package mailer

import (
	"fmt"
	"strings"

	"github.com/pkg/browser"
)

// MailtoLink builds a pre-filled compose link. Every component is escaped
// the way browsers escape URI components, so spaces become %20.
func MailtoLink(msg Message) string {
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s",
		escapeComponent(msg.To), escapeComponent(msg.Subject), escapeComponent(msg.Body))
}

// unreserved are the bytes left as-is by URI component escaping.
const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.!~*'()"

func escapeComponent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(unreserved, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// Composer opens a mail-compose action for a mailto link.
type Composer interface {
	Compose(link string) error
}

// SystemComposer hands the link to the desktop's default URL handler.
// The zero value is ready to use.
type SystemComposer struct {
	open func(url string) error
}

// Compose implements Composer.
func (c SystemComposer) Compose(link string) error {
	open := c.open
	if open == nil {
		open = browser.OpenURL
	}
	if err := open(link); err != nil {
		return fmt.Errorf("opening mail composer: %w", err)
	}
	return nil
}
