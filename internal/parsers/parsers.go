// Package parsers loads the two JSON documents the review pipeline
// consumes: the extraction result produced by the OCR stage and the
// account snapshot exported from the ledger.
//
// Amount fields inside the extraction document are decoded leniently,
// so a malformed number becomes zero instead of failing the load. The
// document structure itself is still validated: a file that is not the
// expected JSON shape is rejected with a parse error.
package parsers

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"ocr-ledger-reconciliation/internal/models"
	apperrors "ocr-ledger-reconciliation/pkg/errors"
	"ocr-ledger-reconciliation/pkg/logger"
)

// LoadOCRResult decodes an extraction result document from r.
func LoadOCRResult(r io.Reader) (*models.OCRResult, error) {
	dec := json.NewDecoder(r)

	var result models.OCRResult
	if err := dec.Decode(&result); err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, "extracción", err)
	}

	logger.WithComponent("parsers").WithFields(logger.Fields{
		"payment_groups": len(result.Payments),
		"loans":          len(result.Loans),
		"expenses":       len(result.Expenses),
		"errors":         len(result.Errors),
	}).Debug("extraction result loaded")

	return &result, nil
}

// LoadOCRResultFile reads and decodes an extraction result from a file path.
func LoadOCRResultFile(path string) (*models.OCRResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ParseError(apperrors.CodeFileNotFound, path, err)
		}
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, path, err)
	}
	defer file.Close()

	result, err := LoadOCRResult(file)
	if err != nil {
		return nil, annotatePath(err, path)
	}
	return result, nil
}

// LoadAccounts decodes the ledger account snapshot from r. Unlike the
// extraction result, the snapshot comes from the ledger itself, so
// malformed entries are rejected rather than tolerated.
func LoadAccounts(r io.Reader) ([]models.Account, error) {
	dec := json.NewDecoder(r)

	var accounts []models.Account
	if err := dec.Decode(&accounts); err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, "cuentas", err)
	}

	if err := validateAccounts(accounts); err != nil {
		return nil, err
	}

	logger.WithComponent("parsers").WithFields(logger.Fields{
		"accounts": len(accounts),
	}).Debug("account snapshot loaded")

	return accounts, nil
}

// LoadAccountsFile reads and decodes the account snapshot from a file path.
func LoadAccountsFile(path string) ([]models.Account, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ParseError(apperrors.CodeFileNotFound, path, err)
		}
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, path, err)
	}
	defer file.Close()

	accounts, err := LoadAccounts(file)
	if err != nil {
		return nil, annotatePath(err, path)
	}
	return accounts, nil
}

func validateAccounts(accounts []models.Account) error {
	seen := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		if strings.TrimSpace(account.ID) == "" {
			return apperrors.New(apperrors.CategoryParse, apperrors.CodeInvalidFormat,
				"cuenta sin identificador en el snapshot").
				WithSuggestion("re-exporte las cuentas desde el libro mayor")
		}
		if seen[account.ID] {
			return apperrors.New(apperrors.CategoryParse, apperrors.CodeInvalidFormat,
				"cuenta duplicada en el snapshot: "+account.ID).
				WithSuggestion("re-exporte las cuentas desde el libro mayor")
		}
		seen[account.ID] = true
	}
	return nil
}

// annotatePath attaches the source file path to a loader error.
func annotatePath(err error, path string) error {
	if reviewErr, ok := apperrors.AsReviewError(err); ok {
		return reviewErr.WithContext("path", path)
	}
	return err
}
