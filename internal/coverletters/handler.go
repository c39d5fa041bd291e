package coverletters

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-optimizer-backend/internal/llm"
	"resume-optimizer-backend/internal/shared/server/middleware"
	"resume-optimizer-backend/internal/shared/server/respond"
	"resume-optimizer-backend/internal/submissions"
)

// Handler wires HTTP handlers to the cover letter service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches cover letter routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cover-letters", h.generate)
}

type generateRequest struct {
	SubmissionID string `json:"submissionId"`
	Tone         string `json:"tone"`
	Length       string `json:"length"`
}

func (h *Handler) generate(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.SubmissionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "submissionId is required", nil)
		return
	}

	letter, err := h.Svc.Generate(c.Request.Context(), userID, req.SubmissionID, req.Tone, req.Length)
	if err != nil {
		switch {
		case errors.Is(err, submissions.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unsupported tone or length", nil)
		case errors.Is(err, llm.ErrNotImplemented):
			respond.Error(c, http.StatusServiceUnavailable, "llm_unavailable", "cover letter generation is not configured", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate cover letter", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, letter)
}
