// internal/models/notification.go
package models

// Attachment is a named binary blob included with a notification.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// DispatchInstruction tells the notifier exactly what to send and to
// whom. The resolver produces these; it never talks to the mail
// provider itself.
type DispatchInstruction struct {
	Recipient   Recipient
	TemplateID  string
	Context     map[string]string
	Attachments []Attachment
}

// DispatchStatus is the terminal outcome of one instruction.
type DispatchStatus string

const (
	StatusSent    DispatchStatus = "SENT"
	StatusFailed  DispatchStatus = "FAILED"
	StatusSkipped DispatchStatus = "SKIPPED"
)

// DispatchResult records what happened to one instruction.
type DispatchResult struct {
	Recipient  string
	TemplateID string
	Status     DispatchStatus
	Reason     string
}
