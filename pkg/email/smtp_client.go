package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/pocketmail/pocketmail/pkg/config"
	"github.com/pocketmail/pocketmail/pkg/store"
)

// SMTPClient handles SMTP operations
type SMTPClient struct {
	config *config.Config
	store  *store.Store
}

// NewSMTPClient creates a new SMTP client backed by the local store
func NewSMTPClient(cfg *config.Config, st *store.Store) *SMTPClient {
	return &SMTPClient{
		config: cfg,
		store:  st,
	}
}

// Send transmits a message and records it in the Sent folder,
// returning the stored record.
func (sc *SMTPClient) Send(opts SendOptions) (store.Message, error) {
	e, err := sc.compose(opts)
	if err != nil {
		return store.Message{}, err
	}

	addr := fmt.Sprintf("%s:%d", sc.config.SMTPServer, sc.config.SMTPPort)
	auth := smtp.PlainAuth("", sc.config.EmailAddress, sc.config.EmailPassword, sc.config.SMTPServer)
	tlsCfg := &tls.Config{
		ServerName: sc.config.SMTPServer,
	}

	// Port 587 submission upgrades with STARTTLS, anything else is
	// implicit TLS
	if sc.config.SMTPPort == 587 {
		err = e.SendWithStartTLS(addr, auth, tlsCfg)
	} else {
		err = e.SendWithTLS(addr, auth, tlsCfg)
	}
	if err != nil {
		return store.Message{}, fmt.Errorf("failed to send email: %w", err)
	}

	return sc.store.AddMessage(store.NewMessage{
		Sender:        sc.config.EmailAddress,
		Recipients:    opts.To,
		Subject:       opts.Subject,
		Body:          opts.Body,
		Folder:        "Sent",
		Attachments:   opts.Attachments,
		ForwardedFrom: opts.ForwardedFrom,
	})
}

// compose builds the outgoing message. Attachment paths that do not
// exist are skipped silently; everything attached goes out as an
// opaque octet-stream part named by its base name.
func (sc *SMTPClient) compose(opts SendOptions) (*email.Email, error) {
	to := make([]string, 0, len(opts.To))
	for _, r := range opts.To {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	e := email.NewEmail()
	e.From = sc.config.EmailAddress
	e.To = to
	e.Subject = opts.Subject
	e.Text = []byte(opts.Body)

	for _, path := range opts.Attachments {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open attachment %s: %w", path, err)
		}
		_, err = e.Attach(f, filepath.Base(path), "application/octet-stream")
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to attach file %s: %w", path, err)
		}
	}

	return e, nil
}

// Forward re-sends a stored message to new recipients with the usual
// subject prefix and a banner naming the original sender. The
// original attachment paths are carried along.
func (sc *SMTPClient) Forward(id string, to []string) (store.Message, error) {
	orig, ok := sc.store.GetMessage(id)
	if !ok {
		return store.Message{}, fmt.Errorf("message not found: %s", id)
	}
	return sc.Send(forwardOptions(orig, to))
}

// forwardOptions builds the outgoing options for a forward.
func forwardOptions(orig store.Message, to []string) SendOptions {
	return SendOptions{
		To:            to,
		Subject:       "Fwd: " + orig.Subject,
		Body:          fmt.Sprintf("--- Forwarded message from %s ---\n%s", orig.Sender, orig.Body),
		Attachments:   orig.Attachments,
		ForwardedFrom: orig.Sender,
	}
}
