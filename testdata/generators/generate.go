// Command generate writes sample review inputs: extraction results and a
// matching account snapshot for each scenario. The output files feed manual
// CLI runs and the validator under testdata/validators.
//
// Usage:
//
//	go run generate.go -scenario=clean -output-dir=../generated
//	go run generate.go -scenario=all -list
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"ocr-ledger-reconciliation/internal/models"

	"github.com/shopspring/decimal"
)

// Scenario is one generated review input set
type Scenario struct {
	Name        string
	Description string
	Build       func() *models.OCRResult
}

var scenarios = []Scenario{
	{
		Name:        "clean",
		Description: "Everything matched, cut sheet reconciles, gate is clear",
		Build:       buildCleanScenario,
	},
	{
		Name:        "unmatched",
		Description: "One paid line without an entity match, gate blocks",
		Build:       buildUnmatchedScenario,
	},
	{
		Name:        "falco",
		Description: "Collector self-reported a cash shortfall",
		Build:       buildFalcoScenario,
	},
	{
		Name:        "renewal",
		Description: "A renewal loan where delivered = credit minus previous pending",
		Build:       buildRenewalScenario,
	},
}

func main() {
	var (
		scenario  = flag.String("scenario", "all", "Scenario to generate, or 'all'")
		list      = flag.Bool("list", false, "List available scenarios")
		outputDir = flag.String("output-dir", "../generated", "Output directory for generated files")
	)
	flag.Parse()

	if *list {
		fmt.Println("Available scenarios:")
		for _, s := range scenarios {
			fmt.Printf("  %-10s %s\n", s.Name, s.Description)
		}
		return
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := writeJSON(filepath.Join(*outputDir, "cuentas.json"), buildAccounts()); err != nil {
		log.Fatalf("failed to write account snapshot: %v", err)
	}

	written := 0
	for _, s := range scenarios {
		if *scenario != "all" && *scenario != s.Name {
			continue
		}
		path := filepath.Join(*outputDir, fmt.Sprintf("corte_%s.json", s.Name))
		if err := writeJSON(path, s.Build()); err != nil {
			log.Fatalf("failed to write %s: %v", path, err)
		}
		fmt.Printf("wrote %s\n", path)
		written++
	}

	if written == 0 {
		log.Fatalf("unknown scenario %q, use -list", *scenario)
	}
}

func writeJSON(path string, v interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func buildAccounts() []models.Account {
	return []models.Account{
		{ID: "acc-caja", Name: "Caja Ana", Type: models.AccountEmployeeCashFund, AccountBalance: dec("1000")},
		{ID: "acc-banco", Name: "Banco operativo", Type: models.AccountBank, AccountBalance: dec("50000")},
		{ID: "acc-fondo", Name: "Fondo de créditos", Type: models.AccountOther, AccountBalance: dec("120000")},
	}
}

func matchedLine(name, loanID, amount string) models.ClientPaymentLine {
	return models.ClientPaymentLine{
		ClientName:      name,
		ExpectedAmount:  dec(amount),
		PaidAmount:      decPtr(amount),
		Paid:            true,
		PaymentMethod:   models.PaymentCash,
		Commission:      dec("10"),
		ResolvedLoanID:  strPtr(loanID),
		MatchConfidence: models.ConfidenceAlta,
		MatchMethod:     models.MatchByClientCode,
	}
}

func baseGroup() models.PaymentGroup {
	return models.PaymentGroup{
		LocalityName:             "Centro",
		LeaderName:               "ANA TORRES",
		ResolvedLeaderID:         strPtr("lead-1"),
		ResolvedLeaderConfidence: models.ConfidenceAlta,
		CashTotal:                dec("700"),
		ClientPayments: []models.ClientPaymentLine{
			matchedLine("MARIA LOPEZ", "loan-9", "350"),
			matchedLine("JOSE HERNANDEZ", "loan-12", "350"),
		},
	}
}

func buildCleanScenario() *models.OCRResult {
	return &models.OCRResult{
		PagesProcessed:    2,
		OverallConfidence: 0.96,
		Payments:          []models.PaymentGroup{baseGroup()},
		CrossValidation: models.CutSheetTotals{
			Inicial:          dec("1000"),
			Final:            dec("1680"),
			CollectionsTotal: dec("700"),
			CommissionTotal:  dec("20"),
			CashCountTotal:   dec("680"),
		},
	}
}

func buildUnmatchedScenario() *models.OCRResult {
	result := buildCleanScenario()
	result.OverallConfidence = 0.71
	result.Payments[0].ClientPayments = append(result.Payments[0].ClientPayments, models.ClientPaymentLine{
		ClientName:      "M?RIA G?MEZ",
		ExpectedAmount:  dec("300"),
		PaidAmount:      decPtr("300"),
		Paid:            true,
		PaymentMethod:   models.PaymentCash,
		MatchConfidence: models.ConfidenceUnmatched,
		MatchMethod:     models.MatchNone,
	})
	result.Payments[0].CashTotal = dec("1000")
	return result
}

func buildFalcoScenario() *models.OCRResult {
	result := buildCleanScenario()
	result.Payments[0].FalcoAmount = dec("150")
	result.Payments[0].CashTotal = dec("550")
	result.CrossValidation.Final = dec("1380")
	result.CrossValidation.CashCountTotal = dec("530")
	result.CrossValidation.CollectionsTotal = dec("550")
	return result
}

func buildRenewalScenario() *models.OCRResult {
	result := buildCleanScenario()
	result.Loans = []models.LoanLine{
		{
			Numero:                  1,
			ClientName:              "JUAN PEREZ",
			CreditAmount:            dec("5000"),
			DeliveredAmount:         dec("3800"),
			TermWeeks:               14,
			ResolvedBorrowerID:      strPtr("b-2"),
			ResolvedPreviousLoanID:  strPtr("loan-old-2"),
			ResolvedLoantypeID:      strPtr("lt-14s"),
			IsRenewal:               true,
			PreviousLoanPending:     dec("1200"),
			ExpectedDeliveredAmount: dec("3800"),
			LocalityName:            strPtr("Centro"),
		},
	}
	result.CrossValidation.DisbursementTotal = dec("3800")
	result.CrossValidation.CashCountTotal = dec("-3120")
	return result
}
