package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"deck-analysis-service/internal/apperr"
	"deck-analysis-service/internal/config"
	"deck-analysis-service/internal/logger"
	"deck-analysis-service/internal/queue"
	"deck-analysis-service/middleware"
	"deck-analysis-service/models"
	"deck-analysis-service/services"
	"deck-analysis-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// SetupAnalyzeRoutes wires the analysis API. The bare /analyze path is kept
// alongside /api/analyze for compatibility with earlier clients.
func SetupAnalyzeRoutes(
	router *gin.Engine,
	cfg *config.Config,
	pipeline *services.AnalysisPipeline,
	store *services.MongoResultStore,
	queueClient *asynq.Client,
) {
	analyze := HandleAnalyze(cfg, pipeline)
	router.POST("/analyze", analyze)

	api := router.Group("/api")
	{
		api.POST("/analyze", analyze)
		if queueClient != nil {
			api.POST("/analyze/async", HandleAsyncAnalyze(cfg, pipeline, queueClient))
		}
		api.GET("/analyses", HandleListAnalyses(store))
		api.GET("/analyses/export", HandleExportAnalyses(services.NewExportService(store)))
	}
}

// HandleAnalyze runs the full pipeline inline and returns the structured
// analysis.
func HandleAnalyze(cfg *config.Config, pipeline *services.AnalysisPipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		filename, contentType, data, ok := readUpload(c, cfg)
		if !ok {
			return
		}

		analysis, err := pipeline.Analyze(c.Request.Context(), filename, contentType, data)
		if err != nil {
			respondPipelineError(c, filename, err)
			return
		}

		c.JSON(http.StatusOK, analysis.Response())
	}
}

// HandleAsyncAnalyze validates the upload, stores it, and queues the
// analysis for the worker.
func HandleAsyncAnalyze(cfg *config.Config, pipeline *services.AnalysisPipeline, queueClient *asynq.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		filename, contentType, data, ok := readUpload(c, cfg)
		if !ok {
			return
		}

		// Reject bad uploads here; the queue only carries work that can
		// plausibly succeed.
		if err := pipeline.ValidateUpload(filename, int64(len(data))); err != nil {
			respondPipelineError(c, filename, err)
			return
		}

		taskID := uuid.NewString()
		uploadDir := filepath.Join(cfg.FileStorageDir, "uploads")
		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "storage_error", "failed to prepare upload storage")
			return
		}

		filePath := filepath.Join(uploadDir, fmt.Sprintf("%s%s", taskID, filepath.Ext(filename)))
		if err := os.WriteFile(filePath, data, 0o600); err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "storage_error", "failed to store upload")
			return
		}

		task, err := queue.NewAnalyzeTask(taskID, filename, contentType, filePath)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "queue_error", "failed to build analysis task")
			return
		}
		if _, err := queueClient.Enqueue(task); err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "queue_error", "failed to queue analysis")
			return
		}

		logger.Info("Analysis queued",
			"task_id", taskID,
			"filename", filename,
			"request_id", middleware.GetRequestID(c),
		)

		c.JSON(http.StatusAccepted, models.AsyncSubmitResponse{
			TaskID:   taskID,
			Status:   "queued",
			Filename: filename,
		})
	}
}

// HandleListAnalyses returns recent analyses in wire shape.
func HandleListAnalyses(store *services.MongoResultStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

		analyses, err := store.ListRecent(c.Request.Context(), limit)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, string(apperr.KindOf(err)), apperr.Detail(err))
			return
		}

		records := make([]models.AnalysisResponse, 0, len(analyses))
		for i := range analyses {
			records = append(records, analyses[i].Response())
		}
		c.JSON(http.StatusOK, gin.H{"analyses": records, "count": len(records)})
	}
}

// HandleExportAnalyses streams recent analyses as an xlsx workbook.
func HandleExportAnalyses(exporter *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "500"), 10, 64)

		if c.Query("format") == "json" {
			records, err := exporter.ExportRecords(c.Request.Context(), limit)
			if err != nil {
				utils.RespondWithError(c, http.StatusInternalServerError, string(apperr.KindOf(err)), apperr.Detail(err))
				return
			}
			c.JSON(http.StatusOK, gin.H{"analyses": records, "count": len(records)})
			return
		}

		buf, count, err := exporter.ExportXLSX(c.Request.Context(), limit)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, string(apperr.KindOf(err)), apperr.Detail(err))
			return
		}

		logger.Info("Analyses exported", "count", count, "request_id", middleware.GetRequestID(c))

		c.Header("Content-Disposition", `attachment; filename="analyses.xlsx"`)
		c.Data(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			buf.Bytes())
	}
}

// readUpload pulls the single multipart file field from the request. On
// failure it writes the error response and returns ok=false.
func readUpload(c *gin.Context, cfg *config.Config) (filename, contentType string, data []byte, ok bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxFileSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.RespondWithError(c, http.StatusBadRequest, string(apperr.KindValidation), "file size exceeds maximum limit")
			return "", "", nil, false
		}
		utils.RespondWithError(c, http.StatusBadRequest, string(apperr.KindValidation), "no file provided")
		return "", "", nil, false
	}
	defer file.Close()

	if header.Size > cfg.MaxFileSize {
		utils.RespondWithError(c, http.StatusBadRequest, string(apperr.KindValidation), "file size exceeds maximum limit")
		return "", "", nil, false
	}

	data, err = io.ReadAll(file)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, string(apperr.KindValidation), "cannot read uploaded file")
		return "", "", nil, false
	}

	return header.Filename, header.Header.Get("Content-Type"), data, true
}

// respondPipelineError maps typed pipeline errors onto the HTTP contract.
// Unanticipated faults surface as a 500 with the raw message, tagged
// distinctly in logs.
func respondPipelineError(c *gin.Context, filename string, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(err)

	if status >= http.StatusInternalServerError {
		logger.Error("Analysis request failed",
			"filename", filename,
			"kind", string(kind),
			"error", err,
			"request_id", middleware.GetRequestID(c),
		)
	} else {
		logger.Debug("Analysis request rejected",
			"filename", filename,
			"kind", string(kind),
			"detail", apperr.Detail(err),
		)
	}

	utils.RespondWithError(c, status, string(kind), apperr.Detail(err))
}
