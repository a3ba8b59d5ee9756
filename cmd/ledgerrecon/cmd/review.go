package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"ocr-ledger-reconciliation/cmd/ledgerrecon/config"
	"ocr-ledger-reconciliation/internal/parsers"
	"ocr-ledger-reconciliation/internal/reporter"
	"ocr-ledger-reconciliation/internal/session"
	apperrors "ocr-ledger-reconciliation/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the review command
var (
	extractionFile  string
	accountsFile    string
	routeID         string
	businessDate    string
	cashAccount     string
	bankAccount     string
	sourceAccount   string
	outputFormat    string
	outputFile      string
	includeDetails  bool
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review an extracted collection sheet against the ledger",
	Long: `Review loads an OCR extraction result and a ledger account snapshot,
projects the batch's impact on each account, cross-validates the cut-sheet
totals, and prints everything an operator needs to decide on the batch.

The command exits non-zero when blocking problems remain, so it can gate
automated pipelines.

Examples:
  # Basic review on the console
  ledgerrecon review --extraction corte.json --accounts cuentas.json

  # Designate the disbursement source and emit JSON
  ledgerrecon review -e corte.json -a cuentas.json \
    --source-account acc-fondo --output-format json --output-file review.json

  # Override the default cash fund and business date
  ledgerrecon review -e corte.json -a cuentas.json \
    --cash-account acc-caja-2 --date 2026-08-31`,

	PreRunE: validateReviewFlags,
	RunE:    runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVarP(&extractionFile, "extraction", "e", "", "path to the OCR extraction JSON file (required)")
	reviewCmd.Flags().StringVarP(&accountsFile, "accounts", "a", "", "path to the ledger account snapshot JSON file (required)")

	reviewCmd.Flags().StringVar(&routeID, "route", "", "route identifier recorded on the batch")
	reviewCmd.Flags().StringVar(&businessDate, "date", "", "business date (YYYY-MM-DD, default today)")

	reviewCmd.Flags().StringVar(&cashAccount, "cash-account", "", "cash fund account id (default: first EMPLOYEE_CASH_FUND)")
	reviewCmd.Flags().StringVar(&bankAccount, "bank-account", "", "bank account id (default: first BANK)")
	reviewCmd.Flags().StringVar(&sourceAccount, "source-account", "", "disbursement source account id")

	reviewCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json")
	reviewCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reviewCmd.Flags().BoolVar(&includeDetails, "details", true, "include per-account movement lines")

	reviewCmd.MarkFlagRequired("extraction")
	reviewCmd.MarkFlagRequired("accounts")

	viper.BindPFlag("extraction", reviewCmd.Flags().Lookup("extraction"))
	viper.BindPFlag("accounts", reviewCmd.Flags().Lookup("accounts"))
	viper.BindPFlag("route", reviewCmd.Flags().Lookup("route"))
	viper.BindPFlag("date", reviewCmd.Flags().Lookup("date"))
	viper.BindPFlag("cash-account", reviewCmd.Flags().Lookup("cash-account"))
	viper.BindPFlag("bank-account", reviewCmd.Flags().Lookup("bank-account"))
	viper.BindPFlag("source-account", reviewCmd.Flags().Lookup("source-account"))
	viper.BindPFlag("output-format", reviewCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reviewCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("details", reviewCmd.Flags().Lookup("details"))
}

func validateReviewFlags(cmd *cobra.Command, args []string) error {
	extractionFile = viper.GetString("extraction")
	accountsFile = viper.GetString("accounts")
	routeID = viper.GetString("route")
	businessDate = viper.GetString("date")
	cashAccount = viper.GetString("cash-account")
	bankAccount = viper.GetString("bank-account")
	sourceAccount = viper.GetString("source-account")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	includeDetails = viper.GetBool("details")

	if extractionFile == "" {
		return fmt.Errorf("extraction is required")
	}
	if accountsFile == "" {
		return fmt.Errorf("accounts is required")
	}

	if err := validateFileExists(extractionFile, "extraction file"); err != nil {
		return err
	}
	if err := validateFileExists(accountsFile, "accounts file"); err != nil {
		return err
	}

	if _, err := config.CreateReportConfig(outputFormat, includeDetails); err != nil {
		return err
	}
	if _, err := config.ParseBusinessDate(businessDate); err != nil {
		return err
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runReview(cmd *cobra.Command, args []string) error {
	result, err := parsers.LoadOCRResultFile(extractionFile)
	if err != nil {
		return err
	}

	accounts, err := parsers.LoadAccountsFile(accountsFile)
	if err != nil {
		return err
	}

	date, err := config.ParseBusinessDate(businessDate)
	if err != nil {
		return err
	}

	s := session.New(result, accounts, routeID, date)

	if cashAccount != "" {
		if err := s.SelectCashAccount(cashAccount); err != nil {
			return err
		}
	}
	if bankAccount != "" {
		if err := s.SelectBankAccount(bankAccount); err != nil {
			return err
		}
	}
	if sourceAccount != "" {
		if err := s.SelectLoanSource(sourceAccount); err != nil {
			return err
		}
	}

	review := s.Review()

	reportConfig, err := config.CreateReportConfig(outputFormat, includeDetails)
	if err != nil {
		return err
	}
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return err
	}

	writer := os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	meta := reporter.Meta{
		SessionID:    s.ID.String(),
		RouteID:      routeID,
		BusinessDate: date,
	}
	if err := generator.GenerateReport(review, meta, writer); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if !review.CanConfirm() {
		return apperrors.New(apperrors.CategoryReconciliation, apperrors.CodeGateBlocked,
			fmt.Sprintf("%d problema(s) bloqueante(s) por resolver", len(review.Issues.Blocking))).
			WithSuggestion("resuelva los problemas listados en el reporte")
	}

	return nil
}
