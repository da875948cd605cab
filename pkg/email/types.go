package email

// SendOptions carries the fields of an outgoing message.
type SendOptions struct {
	To          []string `json:"to"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"` // local file paths

	// ForwardedFrom annotates the stored Sent record when the message
	// is a forward of another one.
	ForwardedFrom string `json:"forwarded_from,omitempty"`
}

// Folder describes a remote IMAP mailbox.
type Folder struct {
	Name         string `json:"name"`
	MessageCount uint32 `json:"message_count"`
	UnreadCount  uint32 `json:"unread_count"`
}
