package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"deck-analysis-service/internal/apperr"
	"deck-analysis-service/internal/logger"
	"deck-analysis-service/models"

	"github.com/hibiken/asynq"
)

const TaskAnalyzeDocument = "analysis:process"

// AnalyzePayload carries an uploaded document from the HTTP process to the
// worker. The document bytes live in shared file storage, not in Redis.
type AnalyzePayload struct {
	TaskID      string `json:"task_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FilePath    string `json:"file_path"`
}

// NewAnalyzeTask creates the queue task for one uploaded document.
// Validation errors are client mistakes and must not be retried, so retries
// cover only infrastructure failures and are bounded.
func NewAnalyzeTask(taskID, filename, contentType, filePath string) (*asynq.Task, error) {
	payload, err := json.Marshal(AnalyzePayload{
		TaskID:      taskID,
		Filename:    filename,
		ContentType: contentType,
		FilePath:    filePath,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAnalyzeDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("default"),
	), nil
}

// DocumentAnalyzer is the pipeline capability the processor needs.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, filename, contentType string, data []byte) (*models.Analysis, error)
}

// TaskProcessor handles queued analysis tasks.
type TaskProcessor struct {
	analyzer DocumentAnalyzer
}

func NewTaskProcessor(analyzer DocumentAnalyzer) *TaskProcessor {
	return &TaskProcessor{analyzer: analyzer}
}

// ProcessAnalyze runs the analysis pipeline over a stored upload and removes
// the file afterwards. Client-side failures (validation, empty document,
// unparseable stream) skip retrying; infrastructure failures propagate so
// asynq can retry them.
func (p *TaskProcessor) ProcessAnalyze(ctx context.Context, t *asynq.Task) error {
	var payload AnalyzePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Processing queued analysis", "task_id", payload.TaskID, "filename", payload.Filename)

	data, err := os.ReadFile(payload.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read stored upload: %w", err)
	}

	_, err = p.analyzer.Analyze(ctx, payload.Filename, payload.ContentType, data)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindValidation, apperr.KindEmptyDocument, apperr.KindExtraction:
			logger.Warn("Queued analysis rejected", "task_id", payload.TaskID, "error", err)
			p.cleanup(payload.FilePath)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		default:
			return err
		}
	}

	p.cleanup(payload.FilePath)
	logger.Info("Queued analysis complete", "task_id", payload.TaskID, "filename", payload.Filename)
	return nil
}

func (p *TaskProcessor) cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove stored upload", "path", path, "error", err)
	}
}
