package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	apperrors "ocr-ledger-reconciliation/pkg/errors"
	"ocr-ledger-reconciliation/pkg/logger"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.NewLoggerWithOutput(logger.DefaultConfig(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	return log
}

const cleanExtraction = `{
	"pagesProcessed": 1,
	"overallConfidence": 0.97,
	"payments": [
		{
			"localityName": "Centro",
			"leaderName": "ANA TORRES",
			"resolvedLeaderId": "lead-1",
			"resolvedLeaderConfidence": "alta",
			"cashTotal": "350",
			"clientPayments": [
				{
					"clientName": "MARIA LOPEZ",
					"abonoEsperado": "350",
					"abonoReal": "350",
					"paid": true,
					"comission": "10",
					"paymentMethod": "CASH",
					"matchMethod": "clientCode",
					"matchConfidence": "alta",
					"resolvedLoanId": "loan-9"
				}
			]
		}
	],
	"loans": [],
	"expenses": [],
	"crossValidation": {
		"inicial": "1000",
		"final": "1340",
		"collectionsTotal": "350",
		"commissionTotal": "10",
		"cashCountTotal": "340"
	},
	"warnings": [],
	"errors": []
}`

const blockedExtraction = `{
	"pagesProcessed": 1,
	"overallConfidence": 0.4,
	"payments": [],
	"loans": [],
	"expenses": [],
	"crossValidation": {},
	"warnings": [],
	"errors": ["página ilegible"]
}`

const accountSnapshot = `[
	{"id": "acc-cash", "name": "Caja Ana", "type": "EMPLOYEE_CASH_FUND", "accountBalance": "1000"},
	{"id": "acc-bank", "name": "Banco", "type": "BANK", "accountBalance": "5000"}
]`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func setReviewFlags(extraction, accounts string) {
	extractionFile = extraction
	accountsFile = accounts
	routeID = "route-7"
	businessDate = "2026-08-31"
	cashAccount = ""
	bankAccount = ""
	sourceAccount = ""
	outputFormat = "console"
	outputFile = ""
	includeDetails = true
}

func TestRunReviewCleanBatch(t *testing.T) {
	extraction := writeTempFile(t, "corte.json", cleanExtraction)
	accounts := writeTempFile(t, "cuentas.json", accountSnapshot)
	setReviewFlags(extraction, accounts)
	outputFile = filepath.Join(t.TempDir(), "report.txt")

	if err := runReview(reviewCmd, nil); err != nil {
		t.Fatalf("runReview() error = %v", err)
	}

	report, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(report) == 0 {
		t.Error("report file is empty")
	}
}

func TestRunReviewBlockedBatchFails(t *testing.T) {
	extraction := writeTempFile(t, "corte.json", blockedExtraction)
	accounts := writeTempFile(t, "cuentas.json", accountSnapshot)
	setReviewFlags(extraction, accounts)
	outputFile = filepath.Join(t.TempDir(), "report.txt")

	err := runReview(reviewCmd, nil)
	if err == nil {
		t.Fatal("runReview() expected error for blocked batch")
	}

	reviewErr, ok := apperrors.AsReviewError(err)
	if !ok {
		t.Fatalf("error type = %T, want *ReviewError", err)
	}
	if reviewErr.Code != apperrors.CodeGateBlocked {
		t.Errorf("Code = %s, want %s", reviewErr.Code, apperrors.CodeGateBlocked)
	}
	if reviewErr.GetExitCode() == 0 {
		t.Error("blocked batch must map to a non-zero exit code")
	}
}

func TestRunReviewMissingExtractionFile(t *testing.T) {
	accounts := writeTempFile(t, "cuentas.json", accountSnapshot)
	setReviewFlags(filepath.Join(t.TempDir(), "missing.json"), accounts)

	err := runReview(reviewCmd, nil)
	if err == nil {
		t.Fatal("runReview() expected error for missing extraction file")
	}
	reviewErr, ok := apperrors.AsReviewError(err)
	if !ok {
		t.Fatalf("error type = %T, want *ReviewError", err)
	}
	if reviewErr.Code != apperrors.CodeFileNotFound {
		t.Errorf("Code = %s, want %s", reviewErr.Code, apperrors.CodeFileNotFound)
	}
}

func TestRunReviewUnknownAccountSelection(t *testing.T) {
	extraction := writeTempFile(t, "corte.json", cleanExtraction)
	accounts := writeTempFile(t, "cuentas.json", accountSnapshot)
	setReviewFlags(extraction, accounts)
	cashAccount = "acc-nope"

	if err := runReview(reviewCmd, nil); err == nil {
		t.Error("runReview() expected error for unknown cash account")
	}
}

func TestValidateFileExists(t *testing.T) {
	if err := validateFileExists(t.TempDir(), "dir"); err == nil {
		t.Error("validateFileExists() expected error for directory")
	}
	if err := validateFileExists("no-such-file", "file"); err == nil {
		t.Error("validateFileExists() expected error for missing file")
	}

	path := writeTempFile(t, "f.json", "{}")
	if err := validateFileExists(path, "file"); err != nil {
		t.Errorf("validateFileExists() error = %v", err)
	}
}

func TestCLIErrorHandlerExitCodes(t *testing.T) {
	handler := &CLIErrorHandler{verbose: false}
	handler.logger = testLogger(t)

	if code := handler.HandleError(nil); code != 0 {
		t.Errorf("nil error exit code = %d, want 0", code)
	}

	gateErr := apperrors.New(apperrors.CategoryReconciliation, apperrors.CodeGateBlocked, "bloqueado")
	if code := handler.HandleError(gateErr); code != gateErr.GetExitCode() {
		t.Errorf("exit code = %d, want %d", code, gateErr.GetExitCode())
	}

	if code := handler.HandleError(os.ErrClosed); code != 1 {
		t.Errorf("generic error exit code = %d, want 1", code)
	}
}
