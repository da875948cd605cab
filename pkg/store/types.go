package store

// TimestampFormat is the layout for message timestamps. Values
// rendered with it compare chronologically as plain strings.
const TimestampFormat = "2006-01-02 15:04:05"

// Message is a single mail record in the store.
type Message struct {
	ID            string   `json:"id"`
	Sender        string   `json:"sender"`
	Recipients    []string `json:"recipients"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	Timestamp     string   `json:"timestamp"`
	Folder        string   `json:"folder"`
	Attachments   []string `json:"attachments"`
	ForwardedFrom string   `json:"forwarded_from,omitempty"`
	RemoteUID     string   `json:"message_uid,omitempty"`
}

// Contact is an address book entry. Contacts are addressed by their
// position in the list, not by a stable ID.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewMessage carries the caller-supplied fields for AddMessage.
type NewMessage struct {
	Sender        string
	Recipients    []string
	Subject       string
	Body          string
	Timestamp     string
	Folder        string
	Attachments   []string
	ForwardedFrom string
	RemoteUID     string
}

// document is the persisted JSON shape.
type document struct {
	Messages []Message `json:"messages"`
	Contacts []Contact `json:"contacts"`
}
