// Package reporter renders a computed review for the operator: per-account
// impact tables with grouped detail lines, the issue gate, and the cut-sheet
// validation findings.
//
// Two formats are supported. Console output is the CLI's surface; JSON is
// for programmatic consumers.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"ocr-ledger-reconciliation/internal/crossval"
	"ocr-ledger-reconciliation/internal/impact"
	"ocr-ledger-reconciliation/internal/issues"
	"ocr-ledger-reconciliation/internal/session"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeAccountDetails controls whether per-account movement lines
	// are printed, or only the balance summary per account.
	IncludeAccountDetails bool `json:"include_account_details"`
	// IncludeFindings controls whether cut-sheet comparisons that matched
	// are printed alongside the mismatches.
	IncludeFindings bool `json:"include_findings"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                FormatConsole,
		IncludeAccountDetails: true,
		IncludeFindings:       true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// Meta carries the session facts printed in the report header
type Meta struct {
	SessionID    string    `json:"sessionId"`
	RouteID      string    `json:"routeId"`
	BusinessDate time.Time `json:"businessDate"`
}

// ReportGenerator renders reviews in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the given configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders the review and writes it to the provided writer
func (rg *ReportGenerator) GenerateReport(review session.Review, meta Meta, writer io.Writer) error {
	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(review, meta, writer)
	case FormatJSON:
		return rg.generateJSONReport(review, meta, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(review session.Review, meta Meta, writer io.Writer) error {
	fmt.Fprintf(writer, "REVISIÓN DE CORTE\n")
	fmt.Fprintf(writer, "Ruta: %s    Fecha: %s\n", meta.RouteID, meta.BusinessDate.Format("2006-01-02"))
	if meta.SessionID != "" {
		fmt.Fprintf(writer, "Sesión: %s\n", meta.SessionID)
	}
	fmt.Fprintf(writer, "\n")

	rg.printVerdict(review.Issues, writer)

	if len(review.Issues.Blocking) > 0 {
		fmt.Fprintf(writer, "=== PROBLEMAS BLOQUEANTES ===\n")
		printIssues(review.Issues.Blocking, writer)
		fmt.Fprintf(writer, "\n")
	}

	if len(review.Issues.Warnings) > 0 {
		fmt.Fprintf(writer, "=== ADVERTENCIAS ===\n")
		printIssues(review.Issues.Warnings, writer)
		fmt.Fprintf(writer, "\n")
	}

	fmt.Fprintf(writer, "=== IMPACTO EN CUENTAS ===\n")
	rg.printImpacts(&review.Impacts, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeFindings {
		fmt.Fprintf(writer, "=== VALIDACIÓN DE CORTE ===\n")
		printFindings(review.CrossValidation, writer)
	}

	return nil
}

func (rg *ReportGenerator) printVerdict(gate issues.Report, writer io.Writer) {
	if gate.CanConfirm() {
		fmt.Fprintf(writer, "VEREDICTO: listo para confirmar")
		if n := len(gate.Warnings); n > 0 {
			fmt.Fprintf(writer, " (%d advertencia(s))", n)
		}
		fmt.Fprintf(writer, "\n\n")
		return
	}
	fmt.Fprintf(writer, "VEREDICTO: BLOQUEADO, %d problema(s) por resolver\n\n", len(gate.Blocking))
}

func printIssues(list []issues.Issue, writer io.Writer) {
	for _, issue := range list {
		fmt.Fprintf(writer, "  - %s\n", issue.Message)
	}
}

func (rg *ReportGenerator) printImpacts(result *impact.Result, writer io.Writer) {
	for i := range result.Impacts {
		acct := &result.Impacts[i]
		fmt.Fprintf(writer, "%s\n", acct.AccountName)
		fmt.Fprintf(writer, "  saldo actual %14s\n", acct.CurrentBalance.StringFixed(2))

		if rg.config.IncludeAccountDetails {
			for _, group := range impact.GroupedDetails(acct) {
				fmt.Fprintf(writer, "  [%s]\n", group[0].Group)
				for _, line := range group {
					fmt.Fprintf(writer, "    %-24s %14s\n", line.Label, line.Amount.StringFixed(2))
				}
			}
		}

		fmt.Fprintf(writer, "  movimiento   %14s\n", acct.Delta.StringFixed(2))
		fmt.Fprintf(writer, "  saldo final  %14s\n", acct.ProjectedBalance.StringFixed(2))
	}

	if result.UnassignedLoanCount > 0 {
		fmt.Fprintf(writer, "\nCréditos sin localidad: %d por %s (no abonan a ninguna cuenta)\n",
			result.UnassignedLoanCount, result.UnassignedLoanTotal.StringFixed(2))
	}

	for _, group := range result.UnattributedGroups {
		fmt.Fprintf(writer, "\nEfectivo sin atribuir en %s: %s\n",
			group.LocalityName, group.Amount.StringFixed(2))
	}
}

func printFindings(report crossval.Report, writer io.Writer) {
	for _, finding := range report.Findings {
		mark := "ok"
		detail := ""
		if !finding.Matches {
			mark = "XX"
			detail = "  " + finding.Message
		}
		fmt.Fprintf(writer, "  [%s] %-10s reportado %12s  esperado %12s%s\n",
			mark, string(finding.Kind),
			finding.Reported.StringFixed(2), finding.Expected.StringFixed(2), detail)
	}
}

// jsonReport is the envelope for the JSON output format
type jsonReport struct {
	Meta            Meta            `json:"meta"`
	CanConfirm      bool            `json:"canConfirm"`
	Issues          issues.Report   `json:"issues"`
	Impacts         impact.Result   `json:"impacts"`
	CrossValidation crossval.Report `json:"crossValidation"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

func (rg *ReportGenerator) generateJSONReport(review session.Review, meta Meta, writer io.Writer) error {
	report := jsonReport{
		Meta:            meta,
		CanConfirm:      review.CanConfirm(),
		Issues:          review.Issues,
		Impacts:         review.Impacts,
		CrossValidation: review.CrossValidation,
		GeneratedAt:     time.Now().UTC(),
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// RenderSummaryLine produces the one-line outcome used for logging after a
// commit attempt.
func RenderSummaryLine(review session.Review) string {
	var b strings.Builder
	if review.CanConfirm() {
		b.WriteString("listo para confirmar")
	} else {
		fmt.Fprintf(&b, "bloqueado: %d problema(s)", len(review.Issues.Blocking))
	}
	if n := len(review.Issues.Warnings); n > 0 {
		fmt.Fprintf(&b, ", %d advertencia(s)", n)
	}
	return b.String()
}
