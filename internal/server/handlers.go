package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	stderrors "content-studio/internal/common/errors"
	"content-studio/internal/common/metrics"
	"content-studio/internal/common/notify"
	"content-studio/internal/orchestrator"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	start := time.Now()
	resp, err := s.deps.Orchestrator.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		if stderrors.IsCode(err, stderrors.ErrCodeEmptyPrompt) {
			metrics.GenerationRequests.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		metrics.GenerationRequests.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := overallStatus(resp)
	metrics.GenerationRequests.WithLabelValues(status).Inc()
	if s.deps.Obs != nil {
		s.deps.Obs.RecordGeneration(c.Request.Context(), status)
		s.deps.Obs.RecordGenerationDuration(c.Request.Context(), time.Since(start), status)
	}

	s.persist(c, resp)

	c.JSON(http.StatusOK, resp)
}

// persist records the outcome in history, the search index and the
// notification targets. None of these may fail the request.
func (s *Server) persist(c *gin.Context, resp *orchestrator.Response) {
	ctx := c.Request.Context()

	if s.deps.History != nil {
		if err := s.deps.History.Record(ctx, resp); err != nil {
			s.logger.WithError(err).Error("failed to record generation history", map[string]interface{}{
				"generation_id": resp.ID,
			})
		}
	}
	if s.deps.Search != nil {
		s.deps.Search.Index(ctx, resp)
	}
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.GenerationCompleted(ctx, summarize(resp)); err != nil {
			s.logger.WithError(err).Warn("failed to send completion notification", map[string]interface{}{
				"generation_id": resp.ID,
			})
		}
	}
}

func (s *Server) handleGetGeneration(c *gin.Context) {
	if s.deps.History == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "history storage is disabled"})
		return
	}

	rec, err := s.deps.History.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if stderrors.IsCode(err, stderrors.ErrCodeGenerationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleSearch(c *gin.Context) {
	if s.deps.Search == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "search is disabled"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	hits, err := s.deps.Search.Search(c.Request.Context(), query, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits, "count": len(hits)})
}

// overallStatus collapses the per-channel outcomes into one request label:
// success if every non-skipped channel succeeded, partial if some did,
// failure if none did.
func overallStatus(resp *orchestrator.Response) string {
	succeeded, failed := 0, 0
	for _, result := range resp.Results {
		switch result.Status {
		case orchestrator.StatusSucceeded:
			succeeded++
		case orchestrator.StatusFailed:
			failed++
		}
	}
	switch {
	case failed == 0 && succeeded > 0:
		return "success"
	case succeeded > 0:
		return "partial"
	default:
		return "failure"
	}
}

func summarize(resp *orchestrator.Response) notify.Summary {
	s := notify.Summary{
		GenerationID: resp.ID,
		Prompt:       resp.Prompt,
		Channels:     make(map[string]string, len(resp.Results)),
	}
	for ch, result := range resp.Results {
		switch result.Status {
		case orchestrator.StatusSucceeded:
			s.Channels[string(ch)] = fmt.Sprintf("succeeded (%s)", result.Provider)
		case orchestrator.StatusFailed:
			s.Channels[string(ch)] = fmt.Sprintf("failed: %s", result.Error)
		default:
			s.Channels[string(ch)] = "skipped"
		}
	}
	return s
}
