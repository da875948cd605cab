package email

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/pocketmail/pocketmail/pkg/config"
	"github.com/pocketmail/pocketmail/pkg/store"
)

// ErrInboxUnavailable reports that the remote INBOX could not be
// selected after a successful login.
var ErrInboxUnavailable = errors.New("cannot select INBOX")

func init() {
	// Decode headers from providers that still send GBK/GB2312
	imap.CharsetReader = charset.Reader
}

// IMAPClient handles IMAP operations
type IMAPClient struct {
	config *config.Config
	store  *store.Store
}

// NewIMAPClient creates a new IMAP client backed by the local store
func NewIMAPClient(cfg *config.Config, st *store.Store) *IMAPClient {
	return &IMAPClient{
		config: cfg,
		store:  st,
	}
}

// connect establishes a connection to the IMAP server
func (ic *IMAPClient) connect() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", ic.config.IMAPServer, ic.config.IMAPPort)

	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to email server: %w", err)
	}

	// Login
	if err := c.Login(ic.config.EmailAddress, ic.config.EmailPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("authentication failed")
	}

	return c, nil
}

// SyncInbox fetches the most recent messages from the remote INBOX
// and inserts the ones not stored yet. It returns the number of
// messages added. Every call rescans the same window; there is no
// incremental cursor.
func (ic *IMAPClient) SyncInbox() (int, error) {
	c, err := ic.connect()
	if err != nil {
		return 0, err
	}
	defer c.Logout()

	mbox, err := c.Select("INBOX", true)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInboxUnavailable, err)
	}

	if mbox.Messages == 0 {
		return 0, nil
	}

	// Most recent N messages as a sequence range
	from := uint32(1)
	if limit := uint32(ic.config.SyncLimit); mbox.Messages > limit {
		from = mbox.Messages - limit + 1
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddRange(from, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	added, insertErr := ic.ingestMessages(messages, section)

	fetchErr := <-done
	if insertErr != nil {
		return added, insertErr
	}
	if fetchErr != nil {
		return added, fmt.Errorf("failed to fetch messages: %w", fetchErr)
	}

	return added, nil
}

// ingestMessages stores fetched messages that are not present yet and
// returns the number added. The channel is always consumed to the end,
// even after a store failure, so the connection's reader goroutine
// never blocks on an undelivered message; the first failure is
// returned once the channel is exhausted.
func (ic *IMAPClient) ingestMessages(messages <-chan *imap.Message, section *imap.BodySectionName) (int, error) {
	seen := ic.store.RemoteUIDs()
	added := 0
	var insertErr error
	for msg := range messages {
		if insertErr != nil {
			continue
		}
		uid := remoteUID(msg)
		if seen[uid] {
			continue
		}

		rec, ok := decodeMessage(msg, section)
		if !ok {
			continue
		}
		if _, err := ic.store.AddMessage(rec); err != nil {
			insertErr = err
			continue
		}
		seen[uid] = true
		added++
	}
	return added, insertErr
}

// ListFolders returns all available remote folders
func (ic *IMAPClient) ListFolders() ([]Folder, error) {
	c, err := ic.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.List("", "*", mailboxes)
	}()

	// Drain the listing before issuing any SELECT; interleaving the
	// two would stall the connection's reader once the channel fills
	var names []string
	for m := range mailboxes {
		names = append(names, m.Name)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	var folders []Folder
	for _, name := range names {
		// Select for counts; some mailboxes are not selectable
		mbox, err := c.Select(name, true)
		if err == nil {
			folders = append(folders, Folder{
				Name:         name,
				MessageCount: mbox.Messages,
				UnreadCount:  mbox.Unseen,
			})
		} else {
			folders = append(folders, Folder{
				Name: name,
			})
		}
	}

	return folders, nil
}

// decodeMessage converts a fetched message into a store record.
// Messages without an envelope or with an unreadable body are
// dropped.
func decodeMessage(msg *imap.Message, section *imap.BodySectionName) (store.NewMessage, bool) {
	if msg.Envelope == nil {
		return store.NewMessage{}, false
	}

	r := msg.GetBody(section)
	if r == nil {
		return store.NewMessage{}, false
	}
	mr, err := mail.CreateReader(r)
	if err != nil {
		return store.NewMessage{}, false
	}

	return store.NewMessage{
		Sender:      formatAddress(msg.Envelope.From),
		Recipients:  append(formatAddresses(msg.Envelope.To), formatAddresses(msg.Envelope.Cc)...),
		Subject:     msg.Envelope.Subject,
		Body:        extractText(mr),
		Timestamp:   formatTimestamp(msg.Envelope.Date, mr.Header.Get("Date")),
		Folder:      "Inbox",
		Attachments: []string{},
		RemoteUID:   remoteUID(msg),
	}, true
}

// extractText returns the message body as plain text. The first
// text/plain inline part wins; a message carrying only HTML is
// converted. Single-part messages appear as one inline part.
func extractText(mr *mail.Reader) string {
	var html string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		switch {
		case strings.Contains(ct, "text/plain"):
			b, _ := io.ReadAll(p.Body)
			return string(b)
		case strings.Contains(ct, "text/html") && html == "":
			b, _ := io.ReadAll(p.Body)
			html = string(b)
		}
	}

	return ConvertHTMLToText(html)
}

// remoteUID returns the Message-ID, or a sequence-number fallback for
// messages without one.
func remoteUID(msg *imap.Message) string {
	if msg.Envelope != nil && msg.Envelope.MessageId != "" {
		return msg.Envelope.MessageId
	}
	return fmt.Sprintf("imap-%d", msg.SeqNum)
}

// formatTimestamp renders an envelope date in the store layout,
// falling back to the raw Date header when the envelope carries none.
func formatTimestamp(date time.Time, rawDate string) string {
	if date.IsZero() {
		return strings.TrimSpace(rawDate)
	}
	return date.Local().Format(store.TimestampFormat)
}

// Helper functions

func formatAddress(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	addr := addrs[0]
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s@%s>", addr.PersonalName, addr.MailboxName, addr.HostName)
	}
	return fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName)
}

func formatAddresses(addrs []*imap.Address) []string {
	var result []string
	for _, addr := range addrs {
		if addr.PersonalName != "" {
			result = append(result, fmt.Sprintf("%s <%s@%s>", addr.PersonalName, addr.MailboxName, addr.HostName))
		} else {
			result = append(result, fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName))
		}
	}
	return result
}
