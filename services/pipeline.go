package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"deck-analysis-service/internal/apperr"
	"deck-analysis-service/internal/config"
	"deck-analysis-service/internal/logger"
	"deck-analysis-service/internal/nlp"
	"deck-analysis-service/internal/telemetry"
	"deck-analysis-service/models"
	"deck-analysis-service/utils"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// SummaryProvider is the optional summarization capability seen by the
// pipeline.
type SummaryProvider interface {
	Available() bool
	Summarize(ctx context.Context, text string) (string, error)
}

// AnalysisPipeline orchestrates extraction, segmentation, tagging, topic
// extraction and summarization for one uploaded document, then hands the
// assembled record to the result store. Instances are safe for concurrent
// use; per-request state lives on the stack.
type AnalysisPipeline struct {
	cfg        *config.Config
	extractor  *TextExtractor
	model      *nlp.Model
	segmenter  *SentenceSegmenter
	tagger     *EntityTagger
	topics     *TopicExtractor
	summarizer SummaryProvider
	store      ResultStore
	cache      *lru.Cache[string, *models.Analysis]
	metrics    *telemetry.Metrics
}

func NewAnalysisPipeline(
	cfg *config.Config,
	model *nlp.Model,
	summarizer SummaryProvider,
	store ResultStore,
	metrics *telemetry.Metrics,
) *AnalysisPipeline {
	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, _ := lru.New[string, *models.Analysis](size)

	return &AnalysisPipeline{
		cfg:        cfg,
		extractor:  NewTextExtractor(),
		model:      model,
		segmenter:  NewSentenceSegmenter(),
		tagger:     NewEntityTagger(model),
		topics:     NewTopicExtractor(),
		summarizer: summarizer,
		store:      store,
		cache:      cache,
		metrics:    metrics,
	}
}

// ValidateUpload checks the request payload before any extraction work.
func (p *AnalysisPipeline) ValidateUpload(filename string, size int64) error {
	if filename == "" {
		return apperr.Validation("no file provided")
	}
	if size == 0 {
		return apperr.Validation("uploaded file is empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range p.cfg.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimSpace(allowed)) {
			return nil
		}
	}
	return apperr.Validation("unsupported file type %q, allowed: %s", ext, strings.Join(p.cfg.AllowedExtensions, ", "))
}

// Analyze runs the full pipeline over one document. Summarizer failure
// degrades to an empty summary; every other failure terminates the request
// with a typed error.
func (p *AnalysisPipeline) Analyze(ctx context.Context, filename, contentType string, data []byte) (*models.Analysis, error) {
	tracer := otel.Tracer("analysis-pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.filename", filename),
		attribute.Int("document.bytes", len(data)),
	)

	start := time.Now()
	if p.metrics != nil {
		p.metrics.AnalyzeRequests.Add(ctx, 1)
	}
	defer func() {
		if p.metrics != nil {
			p.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	if err := p.ValidateUpload(filename, int64(len(data))); err != nil {
		return nil, err
	}

	// Identical uploads produce identical analyses; serve them from cache
	// without re-running inference or inserting a duplicate record. The key
	// covers filename and content type too: the stored record carries the
	// upload's identity, so the same bytes under a new name are a new record.
	sum := sha256.Sum256(data)
	cacheKey := fmt.Sprintf("%s|%s|%s", hex.EncodeToString(sum[:]), filename, contentType)
	if cached, ok := p.cache.Get(cacheKey); ok {
		if p.metrics != nil {
			p.metrics.CacheHits.Add(ctx, 1)
		}
		logger.Debug("Analysis served from cache", "filename", filename)
		return cached, nil
	}

	// Extraction
	stageStart := time.Now()
	extraction, err := p.extractor.Extract(filename, data)
	if err != nil {
		return nil, err
	}
	p.recordStage(ctx, "extract", stageStart)

	if strings.TrimSpace(extraction.Text) == "" {
		return nil, apperr.EmptyDocument("document contains no extractable text")
	}

	// One parse feeds segmentation, tagging and topics.
	stageStart = time.Now()
	inferCtx, cancel := utils.WithInferenceTimeout(ctx)
	doc, err := p.model.Parse(inferCtx, extraction.Text)
	cancel()
	if err != nil {
		// The model is a startup precondition; a per-request parse failure
		// is out of contract.
		return nil, apperr.Unexpected(err)
	}
	p.recordStage(ctx, "parse", stageStart)

	sentences := p.segmenter.Segment(doc)
	entities := p.tagger.Tag(doc)
	topics := p.topics.ExtractTopics(doc)

	// Summarization: the one isolated failure boundary of the pipeline.
	summary, degraded := p.summarize(ctx, extraction.Text, filename)

	compressed, algorithm, err := utils.CompressText(extraction.Text)
	if err != nil {
		// Storage of the raw text is best-effort; the analysis itself is
		// already complete.
		logger.Warn("Failed to compress extracted text", "filename", filename, "error", err)
		compressed, algorithm = nil, utils.CompressionNone
	}

	analysis := &models.Analysis{
		AnalysisID:      uuid.NewString(),
		Entities:        entities,
		KeyTopics:       topics,
		Summary:         summary,
		SummaryDegraded: degraded,
		DocumentType:    contentType,
		Filename:        filename,
		Pages:           extraction.Pages,
		SentenceCount:   len(sentences),
		CompressedText:  compressed,
		TextCompression: string(algorithm),
		CreatedAt:       time.Now().UTC(),
	}

	stageStart = time.Now()
	storeCtx, cancel := utils.WithStoreTimeout(ctx)
	err = p.store.Insert(storeCtx, analysis)
	cancel()
	if err != nil {
		if p.metrics != nil {
			p.metrics.PersistFailures.Add(ctx, 1)
		}
		return nil, err
	}
	p.recordStage(ctx, "persist", stageStart)

	p.cache.Add(cacheKey, analysis)

	logger.Info("Document analyzed",
		"filename", filename,
		"pages", extraction.Pages,
		"sentences", len(sentences),
		"topics", len(topics),
		"summary_degraded", degraded,
	)

	return analysis, nil
}

// summarize attempts summarization when the capability is configured. Every
// failure is caught here and degrades to an empty summary; it never
// propagates. The degraded path is distinguished from true success in logs
// and metrics.
func (p *AnalysisPipeline) summarize(ctx context.Context, text, filename string) (string, bool) {
	if p.summarizer == nil || !p.summarizer.Available() {
		logger.Debug("Summarizer unavailable, skipping", "filename", filename)
		return "", false
	}

	stageStart := time.Now()
	inferCtx, cancel := utils.WithInferenceTimeout(ctx)
	defer cancel()

	summary, err := func() (s string, err error) {
		defer func() {
			if r := recover(); r != nil {
				s = ""
				err = fmt.Errorf("summarizer panic: %v", r)
			}
		}()
		return p.summarizer.Summarize(inferCtx, text)
	}()
	p.recordStage(ctx, "summarize", stageStart)

	if err != nil {
		if p.metrics != nil {
			p.metrics.DegradedSummaries.Add(ctx, 1)
		}
		logger.Warn("Summarization degraded to empty summary", "filename", filename, "error", err)
		return "", true
	}
	return summary, false
}

func (p *AnalysisPipeline) recordStage(ctx context.Context, stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordStage(ctx, stage, time.Since(start).Seconds())
	}
}
