package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/models"
)

// Service renders portfolio snapshots as PDF reports on disk
type Service struct {
	outputDir string
	logger    arbor.ILogger
}

// NewService creates a report service writing into outputDir
func NewService(outputDir string, logger arbor.ILogger) *Service {
	if outputDir == "" {
		outputDir = "./reports"
	}
	return &Service{
		outputDir: outputDir,
		logger:    logger,
	}
}

// GeneratePortfolioReport writes a PDF summary of the snapshot and
// returns the file path
func (s *Service) GeneratePortfolioReport(snapshot *models.PortfolioSnapshot) (string, error) {
	if snapshot == nil || len(snapshot.Positions) == 0 {
		return "", fmt.Errorf("nothing to report")
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Portfolio Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Portfolio Report")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", snapshot.AsOf.Format("02 Jan 2006 15:04 MST")))
	pdf.Ln(10)

	// Table header
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(40, 8, "Ticker", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Quantity", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Value", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Change %", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, position := range snapshot.Positions {
		pdf.CellFormat(40, 7, position.Ticker, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", position.Quantity), "1", 0, "R", false, 0, "")
		if position.Quote != nil {
			pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", position.Quote.Price), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", position.Value), "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 7, fmt.Sprintf("%+.2f%%", position.Quote.ChangePct), "1", 1, "R", false, 0, "")
		} else {
			pdf.CellFormat(35, 7, "unavailable", "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 7, "-", "1", 0, "R", false, 0, "")
			pdf.CellFormat(35, 7, "-", "1", 1, "R", false, 0, "")
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Total Value: %s %.2f", snapshot.Currency, snapshot.TotalValue))
	pdf.Ln(8)

	if len(snapshot.Unresolved) > 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, fmt.Sprintf("Excluded from total (no live price): %v", snapshot.Unresolved), "", "L", false)
	}

	filename := fmt.Sprintf("portfolio_%s_%s.pdf", sanitizeUserID(snapshot.UserID), time.Now().Format("20060102_150405"))
	outputPath := filepath.Join(s.outputDir, filename)

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Info().
		Str("user_id", snapshot.UserID).
		Str("path", outputPath).
		Int("positions", len(snapshot.Positions)).
		Msg("Portfolio report generated")

	return outputPath, nil
}

// sanitizeUserID keeps only filename-safe characters
func sanitizeUserID(userID string) string {
	if userID == "" {
		return "anon"
	}
	safe := make([]rune, 0, len(userID))
	for _, r := range userID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			safe = append(safe, r)
		default:
			safe = append(safe, '_')
		}
	}
	return string(safe)
}
