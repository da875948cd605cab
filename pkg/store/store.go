package store

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store is a JSON-file backed mail store. The whole document is kept
// in memory and rewritten to disk after every mutation. It is not
// safe for concurrent use.
type Store struct {
	path string
	doc  document
}

// Open loads the store at path, creating an empty document (and any
// missing parent directories) when the file does not exist. A file
// with malformed JSON is treated as empty; a warning is logged and no
// error is returned.
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: document{Messages: []Message{}, Contacts: []Contact{}}}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := s.save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read store: %w", err)
	default:
		if err := json.Unmarshal(data, &s.doc); err != nil {
			log.Printf("store: ignoring malformed store file %s: %v", path, err)
			s.doc = document{}
		}
	}

	if s.doc.Messages == nil {
		s.doc.Messages = []Message{}
	}
	if s.doc.Contacts == nil {
		s.doc.Contacts = []Contact{}
	}
	return s, nil
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return s.path
}

// save rewrites the whole document, pretty-printed.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// generateID returns a new message identifier. Uniqueness is assumed
// from the random space, not checked against existing messages.
func generateID() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return "msg-" + string(b)
}

// AddMessage appends a message and persists the store. Blank
// recipients are stripped, attachment paths are trimmed, and folder
// and timestamp default to "Inbox" and the current local time.
func (s *Store) AddMessage(nm NewMessage) (Message, error) {
	recipients := make([]string, 0, len(nm.Recipients))
	for _, r := range nm.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}

	attachments := make([]string, 0, len(nm.Attachments))
	for _, a := range nm.Attachments {
		attachments = append(attachments, strings.TrimSpace(a))
	}

	folder := nm.Folder
	if folder == "" {
		folder = "Inbox"
	}
	timestamp := nm.Timestamp
	if timestamp == "" {
		timestamp = time.Now().Format(TimestampFormat)
	}

	msg := Message{
		ID:            generateID(),
		Sender:        nm.Sender,
		Recipients:    recipients,
		Subject:       nm.Subject,
		Body:          nm.Body,
		Timestamp:     timestamp,
		Folder:        folder,
		Attachments:   attachments,
		ForwardedFrom: nm.ForwardedFrom,
		RemoteUID:     nm.RemoteUID,
	}

	s.doc.Messages = append(s.doc.Messages, msg)
	if err := s.save(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// DeleteMessage removes the message with the given ID. Unknown IDs
// are a no-op; the store is persisted either way.
func (s *Store) DeleteMessage(id string) error {
	kept := make([]Message, 0, len(s.doc.Messages))
	for _, m := range s.doc.Messages {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.doc.Messages = kept
	return s.save()
}

// UpdateFolder moves the message with the given ID into folder.
// Unknown IDs are a no-op; the store is persisted either way.
func (s *Store) UpdateFolder(id, folder string) error {
	for i := range s.doc.Messages {
		if s.doc.Messages[i].ID == id {
			s.doc.Messages[i].Folder = folder
			break
		}
	}
	return s.save()
}

// GetMessage returns the message with the given ID.
func (s *Store) GetMessage(id string) (Message, bool) {
	for _, m := range s.doc.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Messages returns every stored message in insertion order.
func (s *Store) Messages() []Message {
	out := make([]Message, len(s.doc.Messages))
	copy(out, s.doc.Messages)
	return out
}

// SearchMessages returns messages whose sender, recipients, subject
// or body contain query, ignoring case. An empty query matches
// everything; a non-empty folder restricts results to that folder.
// Results are ordered newest first.
func (s *Store) SearchMessages(query, folder string) []Message {
	q := strings.ToLower(query)

	results := make([]Message, 0)
	for _, m := range s.doc.Messages {
		if folder != "" && m.Folder != folder {
			continue
		}
		fields := []string{m.Sender}
		fields = append(fields, m.Recipients...)
		fields = append(fields, m.Subject, m.Body)
		if !strings.Contains(strings.ToLower(strings.Join(fields, " ")), q) {
			continue
		}
		results = append(results, m)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp > results[j].Timestamp
	})
	return results
}

// RemoteUIDs returns the set of remote message identifiers already
// present, used to deduplicate synced mail.
func (s *Store) RemoteUIDs() map[string]bool {
	uids := make(map[string]bool)
	for _, m := range s.doc.Messages {
		if m.RemoteUID != "" {
			uids[m.RemoteUID] = true
		}
	}
	return uids
}

var (
	demoSenders  = []string{"alice@example.com", "bob@example.com", "carol@example.com"}
	demoSubjects = []string{"Meeting reminder", "Weekly report", "Project update", "Lunch invitation"}
	demoBodies   = []string{
		"Please remember the 3pm meeting tomorrow.",
		"The prototype for the new interface is finished.",
		"Everything is on track, no open risks this week.",
		"Want to try the new place around the corner at noon?",
	}
)

// AddDemoMessage inserts a randomized incoming message, handy for
// trying the client without a configured account.
func (s *Store) AddDemoMessage() (Message, error) {
	return s.AddMessage(NewMessage{
		Sender:     demoSenders[rand.Intn(len(demoSenders))],
		Recipients: []string{"user@example.com"},
		Subject:    demoSubjects[rand.Intn(len(demoSubjects))],
		Body:       demoBodies[rand.Intn(len(demoBodies))],
		Folder:     "Inbox",
	})
}
