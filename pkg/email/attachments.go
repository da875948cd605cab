package email

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/pocketmail/pocketmail/pkg/config"
	"github.com/pocketmail/pocketmail/pkg/store"
)

// AttachmentFetcher downloads the attachments of synced messages on
// demand. Sync stores mail without attachment content; this pulls a
// message again by its remote identifier when the files are wanted.
type AttachmentFetcher struct {
	config     *config.Config
	imapClient *IMAPClient
	store      *store.Store
}

// NewAttachmentFetcher creates a new attachment fetcher
func NewAttachmentFetcher(cfg *config.Config, imapClient *IMAPClient, st *store.Store) *AttachmentFetcher {
	return &AttachmentFetcher{
		config:     cfg,
		imapClient: imapClient,
		store:      st,
	}
}

// Download fetches the attachments of a synced message and writes
// them under the attachment directory, returning the saved paths.
// The stored record is left untouched.
func (af *AttachmentFetcher) Download(id string) ([]string, error) {
	msg, ok := af.store.GetMessage(id)
	if !ok {
		return nil, fmt.Errorf("message not found: %s", id)
	}
	if msg.RemoteUID == "" {
		return nil, fmt.Errorf("message %s has no remote identifier", id)
	}

	c, err := af.imapClient.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mbox, err := c.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInboxUnavailable, err)
	}
	if mbox.Messages == 0 {
		return nil, fmt.Errorf("message not on server: %s", id)
	}

	// Search by Message-ID header
	criteria := imap.NewSearchCriteria()
	criteria.Header.Set("Message-ID", msg.RemoteUID)

	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, fmt.Errorf("message not on server: %s", id)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums[0])

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	fetched := <-messages
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	if fetched == nil {
		return nil, fmt.Errorf("failed to fetch message")
	}

	r := fetched.GetBody(section)
	if r == nil {
		return nil, fmt.Errorf("failed to get message body")
	}
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	var saved []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := p.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, err := h.Filename()
		if err != nil || filename == "" {
			continue
		}

		content, err := io.ReadAll(p.Body)
		if err != nil {
			continue
		}

		path := filepath.Join(af.config.AttachmentDir, attachmentFileName(filename))
		if err := os.WriteFile(path, content, 0644); err != nil {
			return saved, fmt.Errorf("failed to save attachment %s: %w", filename, err)
		}
		saved = append(saved, path)
	}

	return saved, nil
}

// attachmentFileName returns a unique file name preserving the
// original extension.
func attachmentFileName(original string) string {
	ext := filepath.Ext(original)
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("att_%s%s", uuid.New().String(), ext)
}
