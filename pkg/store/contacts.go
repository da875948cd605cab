package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Contacts returns the address book in stored order.
func (s *Store) Contacts() []Contact {
	out := make([]Contact, len(s.doc.Contacts))
	copy(out, s.doc.Contacts)
	return out
}

// AddContact appends a contact and persists the store.
func (s *Store) AddContact(name, email string) error {
	s.doc.Contacts = append(s.doc.Contacts, Contact{Name: name, Email: email})
	return s.save()
}

// UpdateContact replaces the contact at index. Out-of-range indices
// are a no-op.
func (s *Store) UpdateContact(index int, name, email string) error {
	if index < 0 || index >= len(s.doc.Contacts) {
		return nil
	}
	s.doc.Contacts[index] = Contact{Name: name, Email: email}
	return s.save()
}

// DeleteContact removes the contact at index. Out-of-range indices
// are a no-op. Later entries shift down one position.
func (s *Store) DeleteContact(index int) error {
	if index < 0 || index >= len(s.doc.Contacts) {
		return nil
	}
	s.doc.Contacts = append(s.doc.Contacts[:index], s.doc.Contacts[index+1:]...)
	return s.save()
}

// ImportContacts reads name,email lines from path and appends them to
// the address book. A missing file is a no-op. Each line is split on
// its first comma only; a line without one aborts the import with the
// rows read so far left in memory but never persisted.
func (s *Store) ImportContacts(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open contacts file: %w", err)
	}
	defer f.Close()

	lineNo := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid contact line %d: expected name,email", lineNo)
		}
		s.doc.Contacts = append(s.doc.Contacts, Contact{Name: parts[0], Email: parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read contacts file: %w", err)
	}

	return s.save()
}

// ExportContacts writes the address book to path as name,email lines.
// No quoting is applied.
func (s *Store) ExportContacts(path string) error {
	var b strings.Builder
	for _, c := range s.doc.Contacts {
		fmt.Fprintf(&b, "%s,%s\n", c.Name, c.Email)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write contacts file: %w", err)
	}
	return nil
}
