package submissions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-optimizer-backend/internal/shared/server/middleware"
	"resume-optimizer-backend/internal/shared/server/respond"
)

const maxUploadSize = 15 << 20 // 15MB

// Handler wires HTTP handlers to the submissions service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches submission routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/submissions", h.create)
	rg.GET("/submissions", h.list)
	rg.GET("/submissions/stats", h.stats)
	rg.GET("/submissions/:id", h.get)
	rg.PUT("/submissions/:id", h.update)
	rg.DELETE("/submissions/:id", h.delete)
	rg.POST("/submissions/:id/score", h.score)
	rg.GET("/ats/history", h.history)
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	resumeHeader, err := c.FormFile("resume")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resume file is required", nil)
		return
	}
	jobHeader, err := c.FormFile("job_posting")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "job_posting file is required", nil)
		return
	}

	resumeFile, err := resumeHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume file", nil)
		return
	}
	defer resumeFile.Close()

	jobFile, err := jobHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read job_posting file", nil)
		return
	}
	defer jobFile.Close()

	sub, err := h.Svc.Create(c.Request.Context(), userID,
		c.PostForm("title"), c.PostForm("notes"),
		Upload{FileName: resumeHeader.Filename, Body: resumeFile},
		Upload{FileName: jobHeader.Filename, Body: jobFile},
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create submission", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(sub))
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	submissionID := c.Param("id")
	c.Set("submissionId", submissionID)

	sub, err := h.Svc.Get(c.Request.Context(), userID, submissionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch submission", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toDetailResponse(sub))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	subs, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list submissions", nil)
		return
	}

	resp := make([]SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, toResponse(sub))
	}
	respond.JSON(c, http.StatusOK, resp)
}

type updateRequest struct {
	Title *string `json:"title"`
	Notes *string `json:"notes"`
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	submissionID := c.Param("id")
	c.Set("submissionId", submissionID)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Title == nil && req.Notes == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "nothing to update", nil)
		return
	}

	sub, err := h.Svc.Update(c.Request.Context(), userID, submissionID, req.Title, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "title must not be empty", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update submission", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(sub))
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	submissionID := c.Param("id")
	c.Set("submissionId", submissionID)

	if err := h.Svc.Delete(c.Request.Context(), userID, submissionID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete submission", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) score(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	submissionID := c.Param("id")
	c.Set("submissionId", submissionID)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	sub, err := h.Svc.RunScoring(ctx, userID, submissionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start scoring", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"submissionId": sub.ID,
		"status":       sub.Status,
	})
}

func (h *Handler) stats(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	stats, err := h.Svc.Stats(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute stats", nil)
		return
	}

	respond.JSON(c, http.StatusOK, stats)
}

func (h *Handler) history(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	points, err := h.Svc.History(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch history", nil)
		return
	}

	respond.JSON(c, http.StatusOK, points)
}
