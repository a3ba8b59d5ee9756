// Package session holds the operator's working state for one review: the
// extraction result under review, the ledger snapshot, the edit overlay,
// and the account selection. Every operator action goes through a Session,
// and every derived view is recomputed from scratch on request.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ocr-ledger-reconciliation/internal/batch"
	"ocr-ledger-reconciliation/internal/crossval"
	"ocr-ledger-reconciliation/internal/impact"
	"ocr-ledger-reconciliation/internal/issues"
	"ocr-ledger-reconciliation/internal/matcher"
	"ocr-ledger-reconciliation/internal/models"
	"ocr-ledger-reconciliation/internal/overlay"
	apperrors "ocr-ledger-reconciliation/pkg/errors"
	"ocr-ledger-reconciliation/pkg/logger"

	"github.com/google/uuid"
)

// Committer is the persistence boundary. Confirm either records the whole
// batch or fails without partial effects; the session never inspects how.
type Committer interface {
	Confirm(ctx context.Context, input batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error)
}

// Review is the derived view of a session: the effective dataset after
// edits, the projected account impacts, the cut-sheet findings, and the
// issue gate. It is recomputed in full on every call to Session.Review.
type Review struct {
	Effective       overlay.EffectiveDataset
	Impacts         impact.Result
	CrossValidation crossval.Report
	Issues          issues.Report
}

// CanConfirm reports whether the gate allows committing this review
func (r Review) CanConfirm() bool {
	return r.Issues.CanConfirm()
}

// Session is one operator's review of one extraction result. All methods
// are safe for concurrent use; the overlay and selection are only mutated
// under the session lock.
type Session struct {
	ID           uuid.UUID
	RouteID      string
	BusinessDate time.Time

	result   *models.OCRResult
	accounts []models.Account

	mu         sync.Mutex
	edits      *overlay.Overlay
	selection  impact.Selection
	committing bool

	log logger.Logger
}

// New opens a review session. The cash and bank accounts default to the
// first EMPLOYEE_CASH_FUND and BANK accounts in the snapshot; the loan
// source account starts undesignated and must be selected before a batch
// with disbursements can pass the gate.
func New(result *models.OCRResult, accounts []models.Account, routeID string, businessDate time.Time) *Session {
	sel := impact.Selection{}
	if cash := models.FirstAccountOfType(accounts, models.AccountEmployeeCashFund); cash != nil {
		sel.CashAccountID = cash.ID
	}
	if bank := models.FirstAccountOfType(accounts, models.AccountBank); bank != nil {
		sel.BankAccountID = bank.ID
	}

	s := &Session{
		ID:           uuid.New(),
		RouteID:      routeID,
		BusinessDate: businessDate,
		result:       result,
		accounts:     accounts,
		edits:        overlay.New(),
		selection:    sel,
		log:          logger.WithComponent("session"),
	}

	s.log.WithFields(logger.Fields{
		"session_id":     s.ID.String(),
		"route_id":       routeID,
		"payment_groups": len(result.Payments),
		"loans":          len(result.Loans),
	}).Info("review session opened")

	return s
}

// Selection returns the current account selection
func (s *Session) Selection() impact.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// EditCount returns the number of live overlay entries
func (s *Session) EditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edits.EditCount()
}

// DeletePayment soft-deletes one client payment line
func (s *Session) DeletePayment(group, line int) error {
	if err := s.validatePaymentKey(group, line); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits.DeletePayment(overlay.PaymentKey{Group: group, Line: line})
	return nil
}

// RestorePayment undoes a payment soft delete. Restoring also discards any
// manual override on the line, returning it to its extracted match.
func (s *Session) RestorePayment(group, line int) error {
	if err := s.validatePaymentKey(group, line); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits.RestorePayment(overlay.PaymentKey{Group: group, Line: line})
	return nil
}

// DeleteLoan soft-deletes one loan line
func (s *Session) DeleteLoan(index int) error {
	if err := s.validateLoanIndex(index); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits.DeleteLoan(index)
	return nil
}

// RestoreLoan undoes a loan soft delete
func (s *Session) RestoreLoan(index int) error {
	if err := s.validateLoanIndex(index); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits.RestoreLoan(index)
	return nil
}

// SuggestCandidates ranks a client directory against the extracted name on
// a payment line, strongest first. The operator picks one and applies it
// with AssignPaymentClient.
func (s *Session) SuggestCandidates(group, line int, directory []matcher.Candidate, limit int) ([]matcher.RankedCandidate, error) {
	if err := s.validatePaymentKey(group, line); err != nil {
		return nil, err
	}

	ranker, err := matcher.NewRanker(directory, nil)
	if err != nil {
		return nil, apperrors.WrapIfNeeded(err, apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig, "configuración del ranker inválida")
	}

	return ranker.Rank(s.result.Payments[group].ClientPayments[line].ClientName, limit), nil
}

// AssignPaymentClient manually matches a payment line to a borrower. The
// candidate must have an active loan; the resulting override carries full
// confidence and survives until the line is restored.
func (s *Session) AssignPaymentClient(group, line int, candidate matcher.Candidate) error {
	if err := s.validatePaymentKey(group, line); err != nil {
		return err
	}

	match, err := matcher.ResolveManual(candidate)
	if err != nil {
		return apperrors.ResolutionError(apperrors.CodeNoActiveLoan, candidate.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits.SetOverride(overlay.PaymentKey{Group: group, Line: line}, match)

	s.log.WithFields(logger.Fields{
		"group":       group,
		"line":        line,
		"borrower_id": match.BorrowerID,
		"loan_id":     match.LoanID,
	}).Info("payment manually assigned")

	return nil
}

// SelectCashAccount designates the collector's cash fund account
func (s *Session) SelectCashAccount(id string) error {
	if err := s.validateAccount(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.CashAccountID = id
	return nil
}

// SelectBankAccount designates the account receiving bank transfers
func (s *Session) SelectBankAccount(id string) error {
	if err := s.validateAccount(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.BankAccountID = id
	return nil
}

// SelectLoanSource designates the account funding disbursements
func (s *Session) SelectLoanSource(id string) error {
	if err := s.validateAccount(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.LoanSourceAccountID = id
	return nil
}

// Review recomputes the full derived view from the current overlay and
// selection. The computation is pure; calling Review never changes state.
func (s *Session) Review() Review {
	s.mu.Lock()
	edits := s.edits.Clone()
	sel := s.selection
	s.mu.Unlock()

	return computeReview(s.result, s.accounts, edits, sel)
}

func computeReview(result *models.OCRResult, accounts []models.Account, edits *overlay.Overlay, sel impact.Selection) Review {
	effective := overlay.ProjectEffective(result, edits)
	impacts := impact.Compute(effective, accounts, sel)
	findings := crossval.Compare(result.CrossValidation, &impacts, sel)

	gate := issues.Classify(issues.Input{
		Effective:          effective,
		Impacts:            &impacts,
		CrossValidation:    findings,
		Selection:          sel,
		ExtractionErrors:   result.Errors,
		ExtractionWarnings: result.Warnings,
	})

	return Review{
		Effective:       effective,
		Impacts:         impacts,
		CrossValidation: findings,
		Issues:          gate,
	}
}

// Commit builds the confirmation batch and hands it to the committer. It
// refuses when blocking issues remain or another commit is in flight. On
// failure the overlay is untouched and the session can retry.
func (s *Session) Commit(ctx context.Context, committer Committer) (batch.ConfirmBatchResult, error) {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return batch.ConfirmBatchResult{}, apperrors.CommitError(apperrors.CodeCommitInFlight, nil)
	}
	edits := s.edits.Clone()
	sel := s.selection
	s.committing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.committing = false
		s.mu.Unlock()
	}()

	review := computeReview(s.result, s.accounts, edits, sel)
	if !review.CanConfirm() {
		return batch.ConfirmBatchResult{}, apperrors.CommitError(apperrors.CodeGateBlocked, nil).
			WithContext("blocking_issues", len(review.Issues.Blocking))
	}

	input := batch.Build(review.Effective, batch.Meta{
		RouteID:         s.RouteID,
		BusinessDate:    s.BusinessDate,
		SourceAccountID: sel.LoanSourceAccountID,
	})

	s.log.WithFields(logger.Fields{
		"session_id": s.ID.String(),
		"payments":   len(input.Payments),
		"loans":      len(input.Loans),
		"expenses":   len(input.Expenses),
	}).Info("confirming batch")

	result, err := committer.Confirm(ctx, input)
	if err != nil {
		s.log.WithError(err).Error("batch confirmation failed")
		return batch.ConfirmBatchResult{}, apperrors.CommitError(apperrors.CodeCommitFailed, err)
	}

	s.log.WithFields(logger.Fields{
		"payments_created": result.PaymentsCreated,
		"loans_created":    result.LoansCreated,
		"expenses_created": result.ExpensesCreated,
	}).Info("batch confirmed")

	return result, nil
}

func (s *Session) validatePaymentKey(group, line int) error {
	if group < 0 || group >= len(s.result.Payments) {
		return apperrors.New(apperrors.CategoryReconciliation, apperrors.CodeDataInconsistent,
			fmt.Sprintf("grupo de pagos fuera de rango: %d", group))
	}
	if line < 0 || line >= len(s.result.Payments[group].ClientPayments) {
		return apperrors.New(apperrors.CategoryReconciliation, apperrors.CodeDataInconsistent,
			fmt.Sprintf("línea de pago fuera de rango: %d/%d", group, line))
	}
	return nil
}

func (s *Session) validateAccount(id string) error {
	if models.FindAccount(s.accounts, id) == nil {
		return apperrors.ResolutionError(apperrors.CodeUnresolvedAccount, id)
	}
	return nil
}

func (s *Session) validateLoanIndex(index int) error {
	if index < 0 || index >= len(s.result.Loans) {
		return apperrors.New(apperrors.CategoryReconciliation, apperrors.CodeDataInconsistent,
			fmt.Sprintf("crédito fuera de rango: %d", index))
	}
	return nil
}
