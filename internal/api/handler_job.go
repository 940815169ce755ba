package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailgenie/internal/job"
	"mailgenie/internal/repository"
)

type JobHandler struct {
	processor  *job.Processor
	statusRepo *repository.StatusRepository
	logger     *zap.Logger
}

func NewJobHandler(processor *job.Processor, statusRepo *repository.StatusRepository, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		processor:  processor,
		statusRepo: statusRepo,
		logger:     logger,
	}
}

// RunJob handles POST /jobs/run. The pass runs synchronously and the final
// summary is returned to the caller.
func (h *JobHandler) RunJob(c *gin.Context) {
	summary, err := h.processor.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("Manual job run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "job failed",
			"summary": summary,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// JobStatus handles GET /jobs/status
func (h *JobHandler) JobStatus(c *gin.Context) {
	summary, err := h.statusRepo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch job status"})
		return
	}
	if summary == nil {
		c.JSON(http.StatusOK, gin.H{"status": "never_run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
