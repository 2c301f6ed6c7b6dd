package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"semclass/internal/service"
)

// maxUploadSize caps multipart uploads at 50MB.
const maxUploadSize = 50 << 20

// ClassifyHandler handles single-document classification endpoints.
type ClassifyHandler struct {
	classifyService service.ClassifyService
}

// NewClassifyHandler creates a new ClassifyHandler.
func NewClassifyHandler(classifyService service.ClassifyService) *ClassifyHandler {
	return &ClassifyHandler{classifyService: classifyService}
}

// ClassifyTextRequest is the JSON body of POST /api/v1/classify.
type ClassifyTextRequest struct {
	Text      string `json:"text" binding:"required"`
	Title     string `json:"title"`
	Threshold int    `json:"threshold" binding:"omitempty,min=1,max=99"`
	Category  string `json:"category"`
	MaxTopics int    `json:"max_topics" binding:"omitempty,min=1"`
}

// ClassifyText handles POST /api/v1/classify
func (h *ClassifyHandler) ClassifyText(c *gin.Context) {
	var req ClassifyTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.classifyService.Classify(c.Request.Context(), service.ClassifyInput{
		Text:      req.Text,
		Title:     req.Title,
		Threshold: req.Threshold,
		Category:  req.Category,
		MaxTopics: req.MaxTopics,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// ClassifyFile handles POST /api/v1/classify/file
// The document is the multipart field "file"; title, threshold, category and max_topics
// are optional form fields.
func (h *ClassifyHandler) ClassifyFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	threshold, ok := optionalInt(c, "threshold", 1, 99)
	if !ok {
		return
	}
	maxTopics, ok := optionalInt(c, "max_topics", 1, 0)
	if !ok {
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = header.Filename
	}

	result, err := h.classifyService.Classify(c.Request.Context(), service.ClassifyInput{
		Content:   content,
		Filename:  header.Filename,
		Title:     title,
		Threshold: threshold,
		Category:  c.PostForm("category"),
		MaxTopics: maxTopics,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// optionalInt reads an integer form field. A max of 0 means no upper bound.
// On a bad value an error response is written and ok is false.
func optionalInt(c *gin.Context, field string, lo, hi int) (int, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || (hi > 0 && v > hi) {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid "+field)
		return 0, false
	}
	return v, true
}
