package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/logger"
)

// handleHealth reports service liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "finsight",
	})
}

// handleUpload ingests a multipart document batch and creates a session.
func (s *Server) handleUpload(c *gin.Context) {
	role := c.PostForm("role")
	if role == "" {
		c.JSON(http.StatusBadRequest, errorBody("a role must be selected"))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid multipart form: "+err.Error()))
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, errorBody("at least one file is required"))
		return
	}

	files := make([]domain.UploadFile, 0, len(headers))
	for _, header := range headers {
		content, err := readUploadFile(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(fmt.Sprintf("reading %s: %v", header.Filename, err)))
			return
		}
		files = append(files, domain.UploadFile{
			Name:        header.Filename,
			Content:     content,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	session, err := s.ports.Upload.Upload(c.Request.Context(), domain.Role(role), files)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSessionDTO(*session))
}

// handleChat answers one question within a session.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return
	}

	answer, err := s.ports.Ask.Ask(c.Request.Context(), req.ChatID, req.Message)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Answer:   answer.Text,
		Sources:  toSourceDTOs(answer.Sources),
		Declined: answer.Declined,
	})
}

// handleListChats returns all sessions' metadata.
func (s *Server) handleListChats(c *gin.Context) {
	sessions, err := s.ports.Session.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionDTO(session))
	}
	c.JSON(http.StatusOK, out)
}

// handleHistory returns a session's messages in arrival order.
func (s *Server) handleHistory(c *gin.Context) {
	messages, err := s.ports.Session.History(c.Request.Context(), c.Param("chat_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMessageDTOs(messages))
}

// handleDelete removes a session and everything scoped to it.
func (s *Server) handleDelete(c *gin.Context) {
	chatID := c.Param("chat_id")
	if err := s.ports.Session.Delete(c.Request.Context(), chatID); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Chat session %s deleted.", chatID),
	})
}

// writeError maps domain errors onto HTTP statuses. Client mistakes
// surface with their message (it names the offending file or field);
// everything else is a generic 500 with the detail kept in the log.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody("Chat session not found."))
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownRole),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrParseFailed):
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	default:
		logger.Error("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to process request"))
	}
}

// readUploadFile reads one multipart file fully into memory.
func readUploadFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
