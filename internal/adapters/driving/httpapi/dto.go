package httpapi

import (
	"time"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// chatRequest is the POST /chat request body.
type chatRequest struct {
	ChatID  string `json:"chat_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// chatResponse is the POST /chat response body.
type chatResponse struct {
	Answer   string      `json:"answer"`
	Sources  []sourceDTO `json:"sources"`
	Declined bool        `json:"declined"`
}

// sessionDTO is one session's metadata.
type sessionDTO struct {
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Filenames []string  `json:"filenames"`
	CreatedAt time.Time `json:"created_at"`
}

// messageDTO is one chat turn in a history response.
type messageDTO struct {
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Sources   []sourceDTO `json:"sources"`
	CreatedAt time.Time   `json:"created_at"`
}

// sourceDTO is one cited document.
type sourceDTO struct {
	SourceFile string `json:"source_file"`
	DocType    string `json:"doc_type"`
}

// errorBody is the error response shape, a single detail string.
func errorBody(detail string) map[string]string {
	return map[string]string{"detail": detail}
}

// toSessionDTO converts a domain session. Filenames is never null in
// the JSON, matching the wire contract.
func toSessionDTO(session domain.ChatSession) sessionDTO {
	filenames := session.Filenames
	if filenames == nil {
		filenames = []string{}
	}
	return sessionDTO{
		ChatID:    session.ID,
		Role:      session.Role.String(),
		Filenames: filenames,
		CreatedAt: session.CreatedAt,
	}
}

// toSourceDTOs converts citations, always to a non-null array.
func toSourceDTOs(sources []domain.Source) []sourceDTO {
	out := make([]sourceDTO, 0, len(sources))
	for _, src := range sources {
		out = append(out, sourceDTO{
			SourceFile: src.SourceFile,
			DocType:    src.DocType,
		})
	}
	return out
}

// toMessageDTOs converts a session history.
func toMessageDTOs(messages []domain.Message) []messageDTO {
	out := make([]messageDTO, 0, len(messages))
	for _, msg := range messages {
		out = append(out, messageDTO{
			Role:      msg.Role,
			Content:   msg.Content,
			Sources:   toSourceDTOs(msg.Sources),
			CreatedAt: msg.CreatedAt,
		})
	}
	return out
}
