package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"ocr-ledger-reconciliation/internal/batch"
	"ocr-ledger-reconciliation/internal/matcher"
	"ocr-ledger-reconciliation/internal/models"
	apperrors "ocr-ledger-reconciliation/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type committerFunc func(ctx context.Context, input batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error)

func (f committerFunc) Confirm(ctx context.Context, input batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error) {
	return f(ctx, input)
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

func testAccounts() []models.Account {
	return []models.Account{
		{ID: "acc-cash", Name: "Caja Ana", Type: models.AccountEmployeeCashFund, AccountBalance: dec("1000")},
		{ID: "acc-bank", Name: "Banco", Type: models.AccountBank, AccountBalance: dec("5000")},
		{ID: "acc-source", Name: "Fondo créditos", Type: models.AccountOther, AccountBalance: dec("20000")},
	}
}

func matchedLine(name, amount string) models.ClientPaymentLine {
	return models.ClientPaymentLine{
		ClientName:      name,
		ExpectedAmount:  dec(amount),
		PaidAmount:      decPtr(amount),
		Paid:            true,
		PaymentMethod:   models.PaymentCash,
		Commission:      dec("10"),
		ResolvedLoanID:  strPtr("loan-" + name),
		MatchConfidence: models.ConfidenceAlta,
		MatchMethod:     models.MatchByClientCode,
	}
}

// cleanResult builds an extraction whose cut-sheet totals agree with the
// projection: one group, one matched paid line of 350 with 10 commission.
func cleanResult() *models.OCRResult {
	return &models.OCRResult{
		PagesProcessed:    2,
		OverallConfidence: 0.95,
		Payments: []models.PaymentGroup{
			{
				LocalityName:             "Centro",
				LeaderName:               "ANA TORRES",
				ResolvedLeaderID:         strPtr("lead-1"),
				ResolvedLeaderConfidence: models.ConfidenceAlta,
				CashTotal:                dec("350"),
				ClientPayments:           []models.ClientPaymentLine{matchedLine("MARIA", "350")},
			},
		},
		CrossValidation: models.CutSheetTotals{
			Inicial:          dec("1000"),
			Final:            dec("1340"),
			CollectionsTotal: dec("350"),
			CommissionTotal:  dec("10"),
			CashCountTotal:   dec("340"),
		},
	}
}

func newTestSession(result *models.OCRResult) *Session {
	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	return New(result, testAccounts(), "route-7", date)
}

func TestReviewCleanBatch(t *testing.T) {
	s := newTestSession(cleanResult())

	review := s.Review()
	require.True(t, review.CanConfirm())
	assert.Empty(t, review.Issues.Blocking)
	assert.Empty(t, review.Issues.Warnings)
	assert.True(t, review.CrossValidation.AllMatch())

	cash := review.Impacts.ImpactFor("acc-cash")
	require.NotNil(t, cash)
	assert.True(t, cash.Delta.Equal(dec("340")), "cash delta = %s, want 340", cash.Delta)
	assert.True(t, cash.ProjectedBalance.Equal(dec("1340")))
}

func TestReviewSurfacesExtractionWarnings(t *testing.T) {
	result := cleanResult()
	result.Warnings = []string{"página 2 con baja confianza"}
	s := newTestSession(result)

	review := s.Review()
	require.True(t, review.CanConfirm(), "extraction warnings must not block")
	require.Len(t, review.Issues.Warnings, 1)
	assert.Contains(t, review.Issues.Warnings[0].Message, "página 2 con baja confianza")
}

func TestNewDefaultsSelection(t *testing.T) {
	s := newTestSession(cleanResult())

	sel := s.Selection()
	assert.Equal(t, "acc-cash", sel.CashAccountID)
	assert.Equal(t, "acc-bank", sel.BankAccountID)
	assert.Empty(t, sel.LoanSourceAccountID)
}

func TestCommitCleanBatch(t *testing.T) {
	s := newTestSession(cleanResult())

	var captured batch.ConfirmBatchInput
	committer := committerFunc(func(ctx context.Context, input batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error) {
		captured = input
		return batch.ConfirmBatchResult{PaymentsCreated: len(input.Payments)}, nil
	})

	result, err := s.Commit(context.Background(), committer)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PaymentsCreated)

	assert.Equal(t, "route-7", captured.RouteID)
	require.Len(t, captured.Payments, 1)
	assert.Empty(t, captured.SourceAccountID, "no loans, no source account in the batch")
	require.Len(t, captured.Payments[0].ClientPayments, 1)
}

func TestUnmatchedPaymentBlocksUntilDeleted(t *testing.T) {
	result := cleanResult()
	result.Payments[0].ClientPayments = append(result.Payments[0].ClientPayments, models.ClientPaymentLine{
		ClientName:      "ILEGIBLE",
		ExpectedAmount:  dec("200"),
		PaidAmount:      decPtr("200"),
		Paid:            true,
		PaymentMethod:   models.PaymentCash,
		MatchConfidence: models.ConfidenceUnmatched,
		MatchMethod:     models.MatchNone,
	})
	result.Payments[0].CashTotal = dec("550")

	s := newTestSession(result)

	review := s.Review()
	require.False(t, review.CanConfirm())
	messages := make([]string, 0, len(review.Issues.Blocking))
	for _, issue := range review.Issues.Blocking {
		messages = append(messages, issue.Message)
	}
	assert.Contains(t, messages, "1 pago(s) sin match")

	_, err := s.Commit(context.Background(), committerFunc(func(context.Context, batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error) {
		t.Fatal("committer must not be called while the gate blocks")
		return batch.ConfirmBatchResult{}, nil
	}))
	require.Error(t, err)
	reviewErr, ok := apperrors.AsReviewError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeGateBlocked, reviewErr.Code)

	// Soft-deleting the unreadable line clears the blocker.
	require.NoError(t, s.DeletePayment(0, 1))
	review = s.Review()
	assert.True(t, review.CanConfirm())
	assert.NotEmpty(t, review.Issues.Warnings, "group totals no longer reconcile after the delete")
}

func TestAssignPaymentClientResolvesBlocker(t *testing.T) {
	result := cleanResult()
	result.Payments[0].ClientPayments[0].MatchMethod = models.MatchNone
	result.Payments[0].ClientPayments[0].MatchConfidence = models.ConfidenceUnmatched
	result.Payments[0].ClientPayments[0].ResolvedLoanID = nil

	s := newTestSession(result)
	require.False(t, s.Review().CanConfirm())

	candidate := matcher.Candidate{
		BorrowerID:      "b-55",
		ActiveLoanIDs:   []string{"loan-55"},
		Name:            "Maria Lopez",
		ClientCode:      "ML-55",
		PendingAmount:   dec("1400"),
		ExpectedPayment: dec("350"),
	}
	require.NoError(t, s.AssignPaymentClient(0, 0, candidate))

	review := s.Review()
	assert.True(t, review.CanConfirm())

	var captured batch.ConfirmBatchInput
	_, err := s.Commit(context.Background(), committerFunc(func(ctx context.Context, input batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error) {
		captured = input
		return batch.ConfirmBatchResult{}, nil
	}))
	require.NoError(t, err)
	require.Len(t, captured.Payments, 1)
	require.Len(t, captured.Payments[0].ClientPayments, 1)
	assert.Equal(t, "loan-55", captured.Payments[0].ClientPayments[0].LoanID)
}

func TestAssignPaymentClientRejectsCandidateWithoutLoan(t *testing.T) {
	s := newTestSession(cleanResult())

	err := s.AssignPaymentClient(0, 0, matcher.Candidate{BorrowerID: "b-1", Name: "Sin Crédito"})
	require.Error(t, err)
	reviewErr, ok := apperrors.AsReviewError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNoActiveLoan, reviewErr.Code)
}

func TestLoanRequiresSourceAccount(t *testing.T) {
	result := cleanResult()
	result.Loans = []models.LoanLine{
		{
			Numero:                  1,
			ClientName:              "JUAN PEREZ",
			CreditAmount:            dec("5000"),
			DeliveredAmount:         dec("3800"),
			ResolvedBorrowerID:      strPtr("b-2"),
			ResolvedLoantypeID:      strPtr("lt-14w"),
			IsRenewal:               true,
			ResolvedPreviousLoanID:  strPtr("loan-old"),
			PreviousLoanPending:     dec("1200"),
			ExpectedDeliveredAmount: dec("3800"),
			LocalityName:            strPtr("Centro"),
		},
	}

	s := newTestSession(result)

	review := s.Review()
	require.False(t, review.CanConfirm())
	messages := make([]string, 0, len(review.Issues.Blocking))
	for _, issue := range review.Issues.Blocking {
		messages = append(messages, issue.Message)
	}
	assert.Contains(t, messages, "créditos sin cuenta de origen designada")

	require.NoError(t, s.SelectLoanSource("acc-source"))
	review = s.Review()
	assert.True(t, review.CanConfirm())

	var captured batch.ConfirmBatchInput
	_, err := s.Commit(context.Background(), committerFunc(func(ctx context.Context, input batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error) {
		captured = input
		return batch.ConfirmBatchResult{}, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "acc-source", captured.SourceAccountID)
	require.Len(t, captured.Loans, 1)
	assert.Equal(t, "loan-old", *captured.Loans[0].PreviousLoanID)
}

func TestCommitFailurePreservesEdits(t *testing.T) {
	result := cleanResult()
	result.Payments[0].ClientPayments = append(result.Payments[0].ClientPayments, models.ClientPaymentLine{
		ClientName:      "ILEGIBLE",
		ExpectedAmount:  dec("200"),
		Paid:            true,
		PaidAmount:      decPtr("200"),
		PaymentMethod:   models.PaymentCash,
		MatchConfidence: models.ConfidenceUnmatched,
		MatchMethod:     models.MatchNone,
	})

	s := newTestSession(result)
	require.NoError(t, s.DeletePayment(0, 1))
	require.Equal(t, 1, s.EditCount())

	boom := errors.New("ledger unavailable")
	_, err := s.Commit(context.Background(), committerFunc(func(context.Context, batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error) {
		return batch.ConfirmBatchResult{}, boom
	}))
	require.Error(t, err)
	reviewErr, ok := apperrors.AsReviewError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeCommitFailed, reviewErr.Code)
	assert.ErrorIs(t, err, boom)

	// The overlay survived the failure and the retry goes through.
	assert.Equal(t, 1, s.EditCount())
	_, err = s.Commit(context.Background(), committerFunc(func(context.Context, batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error) {
		return batch.ConfirmBatchResult{PaymentsCreated: 1}, nil
	}))
	assert.NoError(t, err)
}

func TestCommitSingleInFlight(t *testing.T) {
	s := newTestSession(cleanResult())

	started := make(chan struct{})
	release := make(chan struct{})
	slow := committerFunc(func(context.Context, batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error) {
		close(started)
		<-release
		return batch.ConfirmBatchResult{}, nil
	})

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Commit(context.Background(), slow)
		firstDone <- err
	}()

	<-started
	_, err := s.Commit(context.Background(), committerFunc(func(context.Context, batch.ConfirmBatchInput) (batch.ConfirmBatchResult, error) {
		return batch.ConfirmBatchResult{}, nil
	}))
	require.Error(t, err)
	reviewErr, ok := apperrors.AsReviewError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeCommitInFlight, reviewErr.Code)

	close(release)
	assert.NoError(t, <-firstDone)
}

func TestRestorePaymentDiscardsOverride(t *testing.T) {
	result := cleanResult()
	result.Payments[0].ClientPayments[0].MatchMethod = models.MatchNone
	result.Payments[0].ClientPayments[0].MatchConfidence = models.ConfidenceUnmatched
	result.Payments[0].ClientPayments[0].ResolvedLoanID = nil

	s := newTestSession(result)
	require.NoError(t, s.AssignPaymentClient(0, 0, matcher.Candidate{
		BorrowerID:    "b-55",
		ActiveLoanIDs: []string{"loan-55"},
		Name:          "Maria Lopez",
	}))
	require.True(t, s.Review().CanConfirm())

	require.NoError(t, s.RestorePayment(0, 0))
	assert.False(t, s.Review().CanConfirm(), "restore returns the line to its unmatched extraction state")
}

func TestSuggestCandidates(t *testing.T) {
	result := cleanResult()
	result.Payments[0].ClientPayments[0].ClientName = "MAR1A LOPEZ"
	s := newTestSession(result)

	directory := []matcher.Candidate{
		{BorrowerID: "b-55", ActiveLoanIDs: []string{"loan-55"}, Name: "Maria Lopez"},
		{BorrowerID: "b-60", ActiveLoanIDs: []string{"loan-60"}, Name: "Pedro Ramirez"},
	}

	ranked, err := s.SuggestCandidates(0, 0, directory, 5)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)
	assert.Equal(t, "b-55", ranked[0].Candidate.BorrowerID)
	assert.True(t, ranked[0].Confidence.AtLeast(models.ConfidenceMedia),
		"one-character OCR noise should still rank media or better, got %s", ranked[0].Confidence)

	_, err = s.SuggestCandidates(9, 0, directory, 5)
	assert.Error(t, err)
}

func TestOperationIndexValidation(t *testing.T) {
	s := newTestSession(cleanResult())

	assert.Error(t, s.DeletePayment(1, 0))
	assert.Error(t, s.DeletePayment(0, 5))
	assert.Error(t, s.DeletePayment(-1, 0))
	assert.Error(t, s.DeleteLoan(0))
	assert.Error(t, s.RestoreLoan(-1))
}

func TestReviewDoesNotMutateSession(t *testing.T) {
	s := newTestSession(cleanResult())

	first := s.Review()
	second := s.Review()

	assert.Equal(t, len(first.Effective.Payments), len(second.Effective.Payments))
	assert.Equal(t, 0, s.EditCount())
}
