package domain

import "time"

// ChatSession represents one uploaded document batch and its chat history,
// scoped to a single stakeholder role.
// A session is created only by a fully successful ingestion; its role is
// immutable after creation.
type ChatSession struct {
	// ID is the unique session identifier, generated at creation.
	ID string

	// Role is the stakeholder role the session was created for.
	Role Role

	// Filenames are the uploaded file names, in upload order.
	Filenames []string

	// CreatedAt is when the session was created.
	CreatedAt time.Time
}

// Message roles within a chat session.
const (
	// MessageRoleUser marks a stakeholder question.
	MessageRoleUser = "user"

	// MessageRoleAssistant marks a system answer.
	MessageRoleAssistant = "assistant"
)

// Message is a single chat turn within a session.
// Messages are append-only; ordering is arrival order.
type Message struct {
	// Role is "user" or "assistant".
	Role string

	// Content is the message text.
	Content string

	// Sources cites the documents an assistant answer was grounded in.
	// Empty for user messages, declines, and not-found answers.
	Sources []Source

	// CreatedAt is when the message was appended.
	CreatedAt time.Time
}

// Source identifies a cited document.
type Source struct {
	// SourceFile is the uploaded file name.
	SourceFile string

	// DocType is the category label the file's chunks carry.
	DocType string
}

// UploadFile is one raw file submitted for ingestion.
type UploadFile struct {
	// Name is the file name as uploaded, extension included.
	Name string

	// Content is the raw bytes.
	Content []byte

	// ContentType is the declared MIME type, if any.
	ContentType string
}
