package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net"
	"net/smtp"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/nhle/taskmaster/internal/model"
)

// sendTimeout bounds a single relay conversation.
const sendTimeout = 30 * time.Second

// PasswordFunc returns the relay password for a user.
type PasswordFunc func(user string) (string, error)

// Sender delivers a message through the configured relay.
type Sender interface {
	Send(ctx context.Context, settings model.EmailSettings, msg Message) error
}

// deliverFunc hands a composed message to the relay.
type deliverFunc func(ctx context.Context, addr, user, pass, from, to string, raw []byte) error

// SMTPSender sends through the SMTP relay named by the settings' service id,
// authenticating as the user id, with the body rendered from the template id.
type SMTPSender struct {
	password PasswordFunc
	sent     *SentCopier
	now      func() time.Time
	deliver  deliverFunc
}

// NewSMTPSender creates a sender. sent may be nil to skip the Sent copy.
func NewSMTPSender(password PasswordFunc, sent *SentCopier) *SMTPSender {
	return &SMTPSender{
		password: password,
		sent:     sent,
		now:      time.Now,
		deliver:  smtpDeliver,
	}
}

// Send renders, composes and relays msg.
func (s *SMTPSender) Send(ctx context.Context, settings model.EmailSettings, msg Message) error {
	if !settings.Configured() {
		return ErrNotConfigured
	}
	if msg.To == "" {
		return ErrNoRecipient
	}

	body, err := render(settings.TemplateID, msg)
	if err != nil {
		return err
	}

	from := msg.From
	if from == "" {
		from = settings.UserID
	}
	raw, err := Compose(from, msg.To, msg.Subject, body, s.now())
	if err != nil {
		return err
	}

	pass, err := s.password(settings.UserID)
	if err != nil {
		return fmt.Errorf("looking up relay password: %w", err)
	}

	if err := s.deliver(ctx, settings.ServiceID, settings.UserID, pass, from, msg.To, raw); err != nil {
		return err
	}

	if s.sent != nil {
		if err := s.sent.Append(ctx, settings.UserID, pass, raw); err != nil {
			log.Printf("mailer: saving sent copy: %v", err)
		}
	}
	return nil
}

// Compose writes a single-part text/plain RFC 5322 message.
func Compose(from, to, subject, body string, date time.Time) ([]byte, error) {
	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("parsing sender %q: %w", from, err)
	}
	toAddr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("parsing recipient %q: %w", to, err)
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{fromAddr})
	h.SetAddressList("To", []*mail.Address{toAddr})
	h.SetSubject(subject)
	h.SetMessageID(uuid.NewString() + "@taskmaster")
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message body: %w", err)
	}
	return buf.Bytes(), nil
}

// smtpDeliver relays raw over implicit TLS on port 465 and over STARTTLS,
// when offered, on any other port.
func smtpDeliver(ctx context.Context, addr, user, pass, from, to string, raw []byte) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("parsing relay address %q: %w", addr, err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tlsConfig := &tls.Config{ServerName: host}
	if port == "465" {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if port != "465" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("SMTP STARTTLS: %w", err)
			}
		}
	}

	if err := client.Auth(smtp.PlainAuth("", user, pass, host)); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}
	return client.Quit()
}
