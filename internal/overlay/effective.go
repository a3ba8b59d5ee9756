package overlay

import (
	"github.com/shopspring/decimal"

	"ocr-ledger-reconciliation/internal/models"
)

// EffectiveDataset is the extraction after the overlay has been applied:
// deleted lines removed, overridden lines carrying their manual match. It is
// what the impact engine, the issue gate, and the batch builder consume.
//
// Line order within groups and group order within the dataset follow the
// original extraction.
type EffectiveDataset struct {
	Payments []models.PaymentGroup
	Loans    []models.LoanLine
	// Expenses pass through the overlay untouched: expense lines are not
	// operator-editable, but downstream consumers read them from the
	// effective view like everything else.
	Expenses []models.ExpenseLine
}

// ProjectEffective applies the overlay to the extraction and returns the
// effective dataset. The extraction is not mutated; calling ProjectEffective
// twice with the same inputs yields identical output.
//
// A nil overlay projects the extraction unchanged.
func ProjectEffective(result *models.OCRResult, o *Overlay) EffectiveDataset {
	effective := EffectiveDataset{
		Payments: make([]models.PaymentGroup, 0, len(result.Payments)),
		Loans:    make([]models.LoanLine, 0, len(result.Loans)),
		Expenses: append([]models.ExpenseLine(nil), result.Expenses...),
	}

	for groupIdx := range result.Payments {
		group := result.Payments[groupIdx]

		lines := make([]models.ClientPaymentLine, 0, len(group.ClientPayments))
		for lineIdx := range group.ClientPayments {
			key := PaymentKey{Group: groupIdx, Line: lineIdx}
			if o != nil && o.IsPaymentDeleted(key) {
				continue
			}

			line := group.ClientPayments[lineIdx]
			if o != nil {
				if match, ok := o.Override(key); ok {
					line = match.ApplyTo(line)
				}
			}
			lines = append(lines, line)
		}

		group.ClientPayments = lines
		effective.Payments = append(effective.Payments, group)
	}

	for loanIdx := range result.Loans {
		if o != nil && o.IsLoanDeleted(loanIdx) {
			continue
		}
		effective.Loans = append(effective.Loans, result.Loans[loanIdx])
	}

	return effective
}

// FirstResolvedLeaderID returns the leader id of the first payment group with
// a resolved leader. Loans have no leader of their own in the source document
// and attach to this one.
func (d *EffectiveDataset) FirstResolvedLeaderID() (string, bool) {
	for i := range d.Payments {
		if d.Payments[i].HasResolvedLeader() {
			return *d.Payments[i].ResolvedLeaderID, true
		}
	}
	return "", false
}

// EligibleGroups returns the payment groups whose money can be posted: a
// resolved leader plus at least one paid, matched line.
func (d *EffectiveDataset) EligibleGroups() []models.PaymentGroup {
	var eligible []models.PaymentGroup
	for i := range d.Payments {
		group := d.Payments[i]
		if group.HasResolvedLeader() && group.HasMatchedPaidLine() {
			eligible = append(eligible, group)
		}
	}
	return eligible
}

// ResolvableLoans returns the loans that can be committed per
// models.LoanLine.IsResolvable.
func (d *EffectiveDataset) ResolvableLoans() []models.LoanLine {
	var resolvable []models.LoanLine
	for i := range d.Loans {
		if d.Loans[i].IsResolvable() {
			resolvable = append(resolvable, d.Loans[i])
		}
	}
	return resolvable
}

// LoanDeliveredTotal sums the delivered amount of all effective loans,
// including those that cannot be posted yet. Totals shown to the reviewer
// must cover everything on the sheet.
func (d *EffectiveDataset) LoanDeliveredTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range d.Loans {
		total = total.Add(d.Loans[i].DeliveredAmount)
	}
	return total
}
