package matcher

import (
	"errors"
	"strings"

	"ocr-ledger-reconciliation/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNoActiveLoan is returned when a payment line is assigned to a candidate
// without any active loan. A payment must resolve to a loan, not merely a
// borrower; callers render this as a disabled option, never as a crash.
var ErrNoActiveLoan = errors.New("candidate has no active loan to receive the payment")

// ErrEmptyCandidate is returned when a candidate carries no borrower id
var ErrEmptyCandidate = errors.New("candidate has no borrower id")

// Candidate is a database client offered for manual assignment, as returned
// by the external client search service.
type Candidate struct {
	BorrowerID      string          `json:"borrowerId"`
	ActiveLoanIDs   []string        `json:"activeLoanIds"`
	Name            string          `json:"name"`
	ClientCode      string          `json:"clientCode"`
	PendingAmount   decimal.Decimal `json:"pendingAmount"`
	ExpectedPayment decimal.Decimal `json:"expectedPayment"`
}

// HasActiveLoan reports whether the candidate carries at least one active loan
func (c *Candidate) HasActiveLoan() bool {
	return len(c.ActiveLoanIDs) > 0
}

// CanAssign reports whether the candidate may be assigned to a payment line.
// It is the non-mutating form of ResolveManual's validation, intended for
// enabling/disabling the option in a picker.
func CanAssign(c Candidate) bool {
	return strings.TrimSpace(c.BorrowerID) != "" && c.HasActiveLoan()
}

// ResolveManual validates a candidate and produces the manual match to record
// in the edit overlay. The payment attaches to the candidate's first active
// loan. The resulting match always projects as alta/manual regardless of the
// line's original OCR confidence.
func ResolveManual(c Candidate) (models.ManualMatch, error) {
	if strings.TrimSpace(c.BorrowerID) == "" {
		return models.ManualMatch{}, ErrEmptyCandidate
	}
	if !c.HasActiveLoan() {
		return models.ManualMatch{}, ErrNoActiveLoan
	}

	return models.ManualMatch{
		LoanID:          c.ActiveLoanIDs[0],
		BorrowerID:      c.BorrowerID,
		ClientCode:      c.ClientCode,
		ClientName:      c.Name,
		PendingAmount:   c.PendingAmount,
		ExpectedPayment: c.ExpectedPayment,
	}, nil
}

// ConfidenceForScore maps a similarity score onto the ordered confidence
// tiers using the configured thresholds. Scores below the baja threshold
// yield ConfidenceUnmatched.
func (c *Config) ConfidenceForScore(score float64) models.MatchConfidence {
	switch {
	case score >= c.AltaThreshold:
		return models.ConfidenceAlta
	case score >= c.MediaThreshold:
		return models.ConfidenceMedia
	case score >= c.BajaThreshold:
		return models.ConfidenceBaja
	default:
		return models.ConfidenceUnmatched
	}
}
