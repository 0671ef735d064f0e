package interfaces

import "github.com/ternarybob/nivesh/internal/models"

// ReportService renders analysis results to files on disk
type ReportService interface {
	// GeneratePortfolioReport writes a PDF for the snapshot and returns
	// the file path
	GeneratePortfolioReport(snapshot *models.PortfolioSnapshot) (string, error)
}
