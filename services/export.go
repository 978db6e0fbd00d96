package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"deck-analysis-service/models"

	"github.com/xuri/excelize/v2"
)

// ExportService renders stored analyses as a spreadsheet for offline review.
type ExportService struct {
	store *MongoResultStore
}

func NewExportService(store *MongoResultStore) *ExportService {
	return &ExportService{store: store}
}

var exportHeaders = []string{
	"Analysis ID", "Filename", "Document Type", "Created At",
	"Organizations", "Products", "Technologies", "Markets",
	"Key Topics", "Summary",
}

// ExportXLSX writes up to limit recent analyses into an xlsx workbook.
func (es *ExportService) ExportXLSX(ctx context.Context, limit int64) (*bytes.Buffer, int, error) {
	analyses, err := es.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Analyses"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, 0, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, a := range analyses {
		values := []interface{}{
			a.AnalysisID,
			a.Filename,
			a.DocumentType,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			strings.Join(a.Entities.Organizations, "; "),
			strings.Join(a.Entities.Products, "; "),
			strings.Join(a.Entities.Technologies, "; "),
			strings.Join(a.Entities.Markets, "; "),
			strings.Join(a.KeyTopics, "; "),
			a.Summary,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, 0, fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf, len(analyses), nil
}

// ExportRecords returns analyses in their wire shape for JSON export.
func (es *ExportService) ExportRecords(ctx context.Context, limit int64) ([]models.AnalysisResponse, error) {
	analyses, err := es.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	records := make([]models.AnalysisResponse, 0, len(analyses))
	for i := range analyses {
		records = append(records, analyses[i].Response())
	}
	return records, nil
}
