// Package batch projects a gate-cleared effective dataset into the
// normalized command shape the external persistence mutation expects.
//
// Build is total and order-preserving: the same effective dataset always
// yields the same payload, lines that are not ready are filtered rather than
// raised on, and no I/O happens here. Groups or lines dropped by the filters
// were already reported by the issue gate; this path only runs once the gate
// is clear.
package batch

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ocr-ledger-reconciliation/internal/models"
	"ocr-ledger-reconciliation/internal/overlay"
)

// ConfirmBatchInput is the outbound commit command (see the persistence
// boundary contract). SourceAccountID is required iff Loans is non-empty.
type ConfirmBatchInput struct {
	RouteID         string         `json:"routeId"`
	BusinessDate    time.Time      `json:"businessDate"`
	SourceAccountID string         `json:"sourceAccountId,omitempty"`
	Payments        []PaymentEntry `json:"payments"`
	Loans           []LoanEntry    `json:"loans"`
	Expenses        []ExpenseEntry `json:"expenses"`
}

// PaymentEntry is one payment group in the commit payload
type PaymentEntry struct {
	LeadID         string               `json:"leadId"`
	ExpectedAmount decimal.Decimal      `json:"expectedAmount"`
	PaidAmount     decimal.Decimal      `json:"paidAmount"`
	CashPaidAmount decimal.Decimal      `json:"cashPaidAmount"`
	BankPaidAmount decimal.Decimal      `json:"bankPaidAmount"`
	FalcoAmount    *decimal.Decimal     `json:"falcoAmount,omitempty"`
	ClientPayments []ClientPaymentEntry `json:"clientPayments"`
}

// ClientPaymentEntry is one matched, paid client line in the commit payload
type ClientPaymentEntry struct {
	LoanID        string               `json:"loanId"`
	Amount        decimal.Decimal      `json:"amount"`
	Comission     decimal.Decimal      `json:"comission"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

// LoanEntry is one disbursement in the commit payload. Exactly one of
// BorrowerID or NewBorrowerName is set.
type LoanEntry struct {
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	AmountGived     decimal.Decimal `json:"amountGived"`
	LoantypeID      string          `json:"loantypeId"`
	BorrowerID      *string         `json:"borrowerId,omitempty"`
	NewBorrowerName *string         `json:"newBorrowerName,omitempty"`
	PreviousLoanID  *string         `json:"previousLoanId,omitempty"`
	LeadID          string          `json:"leadId"`
}

// ExpenseEntry is one expense in the commit payload
type ExpenseEntry struct {
	Amount          decimal.Decimal `json:"amount"`
	ExpenseSource   string          `json:"expenseSource"`
	SourceAccountID string          `json:"sourceAccountId"`
	Description     string          `json:"description,omitempty"`
}

// ConfirmBatchResult is the persistence boundary's response: how many
// entities were created. A failure leaves no partial state.
type ConfirmBatchResult struct {
	PaymentsCreated int `json:"paymentsCreated"`
	LoansCreated    int `json:"loansCreated"`
	ExpensesCreated int `json:"expensesCreated"`
}

// Meta carries the session-level fields of the payload
type Meta struct {
	RouteID         string
	BusinessDate    time.Time
	SourceAccountID string
}

// Build projects the effective dataset into the commit payload
func Build(effective overlay.EffectiveDataset, meta Meta) ConfirmBatchInput {
	input := ConfirmBatchInput{
		RouteID:      meta.RouteID,
		BusinessDate: meta.BusinessDate,
		Payments:     buildPayments(effective),
		Expenses:     buildExpenses(effective, meta),
	}

	input.Loans = buildLoans(effective)
	if len(input.Loans) > 0 {
		input.SourceAccountID = meta.SourceAccountID
	}

	return input
}

// buildPayments emits one entry per eligible group: resolved leader plus at
// least one matched, paid line. Everything else was already reported by the
// gate and is silently omitted here.
func buildPayments(effective overlay.EffectiveDataset) []PaymentEntry {
	var entries []PaymentEntry

	for _, group := range effective.EligibleGroups() {
		entry := PaymentEntry{
			LeadID:         *group.ResolvedLeaderID,
			PaidAmount:     group.PaidLinesTotal(),
			CashPaidAmount: group.CashTotal,
			BankPaidAmount: group.BankTotal,
		}

		for i := range group.ClientPayments {
			line := &group.ClientPayments[i]
			entry.ExpectedAmount = entry.ExpectedAmount.Add(line.ExpectedAmount)
			if !line.Paid || !line.IsMatched() {
				continue
			}
			entry.ClientPayments = append(entry.ClientPayments, ClientPaymentEntry{
				LoanID:        *line.ResolvedLoanID,
				Amount:        line.EffectivePaid(),
				Comission:     line.Commission,
				PaymentMethod: line.PaymentMethod,
			})
		}

		if group.FalcoAmount.IsPositive() {
			falco := group.FalcoAmount
			entry.FalcoAmount = &falco
		}

		entries = append(entries, entry)
	}

	return entries
}

// buildLoans emits one entry per resolvable loan. All loans attach to the
// first resolved leader across payment groups: a loan has no leader of its
// own in the source document.
func buildLoans(effective overlay.EffectiveDataset) []LoanEntry {
	leadID, _ := effective.FirstResolvedLeaderID()

	var entries []LoanEntry
	for _, loan := range effective.ResolvableLoans() {
		entry := LoanEntry{
			RequestedAmount: loan.CreditAmount,
			AmountGived:     loan.DeliveredAmount,
			LoantypeID:      *loan.ResolvedLoantypeID,
			LeadID:          leadID,
		}

		if loan.ResolvedBorrowerID != nil {
			borrowerID := *loan.ResolvedBorrowerID
			entry.BorrowerID = &borrowerID
		} else {
			name := loan.ClientName
			entry.NewBorrowerName = &name
		}

		if loan.IsRenewal && loan.ResolvedPreviousLoanID != nil {
			previousID := *loan.ResolvedPreviousLoanID
			entry.PreviousLoanID = &previousID
		}

		entries = append(entries, entry)
	}

	return entries
}

// buildExpenses emits one entry per chargeable expense
func buildExpenses(effective overlay.EffectiveDataset, meta Meta) []ExpenseEntry {
	var entries []ExpenseEntry

	for i := range effective.Expenses {
		expense := &effective.Expenses[i]
		if !expense.IsChargeable() {
			continue
		}
		entries = append(entries, ExpenseEntry{
			Amount:          expense.Amount,
			ExpenseSource:   expense.ResolvedSourceType,
			SourceAccountID: *expense.ResolvedAccountID,
			Description: fmt.Sprintf("%s - %s", expense.ExpenseType,
				meta.BusinessDate.Format("2006-01-02")),
		})
	}

	return entries
}
