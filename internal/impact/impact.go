// Package impact computes the net monetary effect of an effective dataset on
// every account in the snapshot: collections credited to the cash fund and
// bank, commissions and shortfalls debited from the cash fund, disbursements
// debited from the designated source account, and expenses debited from their
// resolved accounts.
//
// Everything here is a pure function of (effective dataset, account snapshot,
// account selection). The engine is rerun in full after every overlay or
// selection change; nothing is cached or mutated in place.
package impact

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ocr-ledger-reconciliation/internal/models"
	"ocr-ledger-reconciliation/internal/overlay"
)

// Fixed display groups for movements that are not tied to a locality.
const (
	GroupDisbursements = "Créditos"
	GroupExpenses      = "Gastos"
)

// Selection carries the operator's account choices for the review session.
type Selection struct {
	// CashAccountID is the collector's cash fund. Collections in cash,
	// commissions, and falco post here.
	CashAccountID string
	// BankAccountID receives the bank-transfer part of collections.
	BankAccountID string
	// LoanSourceAccountID funds disbursements. Empty means no source
	// account has been designated yet.
	LoanSourceAccountID string
}

// HasLoanSource reports whether a disbursement source account is designated
func (s Selection) HasLoanSource() bool {
	return s.LoanSourceAccountID != ""
}

// DetailLine is one monetary movement on an account. Lines keep insertion
// order; adjacent lines sharing a Group collapse into one visual group at
// display time, but the stored structure stays flat.
type DetailLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Group  string          `json:"group"`
}

// AccountImpact is the computed effect of the batch on one account.
type AccountImpact struct {
	AccountID        string          `json:"accountId"`
	AccountName      string          `json:"accountName"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	Details          []DetailLine    `json:"details"`
	Delta            decimal.Decimal `json:"delta"`
	ProjectedBalance decimal.Decimal `json:"projectedBalance"`
}

// UnattributedGroup records a payment group whose reported money could not be
// posted because the group has no resolved leader or no matched paying line.
// The amount appears nowhere in the account impacts; it is surfaced to the
// reviewer as a warning instead.
type UnattributedGroup struct {
	LocalityName string          `json:"localityName"`
	Amount       decimal.Decimal `json:"amount"`
}

// Result is the full impact computation for one review state.
type Result struct {
	// Impacts holds one entry per snapshot account, in snapshot order.
	// Accounts with no movements appear with a zero delta.
	Impacts []AccountImpact `json:"impacts"`
	// UnassignedLoanTotal sums delivered amounts of resolvable loans with
	// no locality. They count toward reviewer-facing totals but post to no
	// account until assigned.
	UnassignedLoanTotal decimal.Decimal `json:"unassignedLoanTotal"`
	// UnassignedLoanCount is the number of such loans.
	UnassignedLoanCount int `json:"unassignedLoanCount"`
	// UnattributedGroups lists skipped payment groups with nonzero money.
	UnattributedGroups []UnattributedGroup `json:"unattributedGroups"`
}

// ImpactFor returns the impact entry for the given account id, or nil
func (r *Result) ImpactFor(accountID string) *AccountImpact {
	for i := range r.Impacts {
		if r.Impacts[i].AccountID == accountID {
			return &r.Impacts[i]
		}
	}
	return nil
}

// accumulator builds one account's impact incrementally
type accumulator struct {
	impact *AccountImpact
}

func (a *accumulator) add(label string, amount decimal.Decimal, group string) {
	if a == nil || amount.IsZero() {
		return
	}
	a.impact.Details = append(a.impact.Details, DetailLine{Label: label, Amount: amount, Group: group})
	a.impact.Delta = a.impact.Delta.Add(amount)
}

// Compute derives the account impacts of the effective dataset. Every account
// in the snapshot yields an entry; "no activity" is a zero delta, not an
// error.
func Compute(effective overlay.EffectiveDataset, accounts []models.Account, sel Selection) Result {
	result := Result{
		Impacts:             make([]AccountImpact, len(accounts)),
		UnassignedLoanTotal: decimal.Zero,
	}

	byID := make(map[string]*accumulator, len(accounts))
	for i := range accounts {
		result.Impacts[i] = AccountImpact{
			AccountID:      accounts[i].ID,
			AccountName:    accounts[i].Name,
			CurrentBalance: accounts[i].AccountBalance,
			Delta:          decimal.Zero,
		}
		byID[accounts[i].ID] = &accumulator{impact: &result.Impacts[i]}
	}

	applyCollections(&result, effective, byID, sel)
	applyDisbursements(&result, effective, byID, sel)
	applyExpenses(effective, byID)

	for i := range result.Impacts {
		impact := &result.Impacts[i]
		impact.ProjectedBalance = impact.CurrentBalance.Add(impact.Delta)
	}

	return result
}

// applyCollections posts each eligible payment group: cash total to the cash
// fund, bank total to the bank account, commissions and falco out of the cash
// fund. Ineligible groups with nonzero money are recorded as unattributed.
func applyCollections(result *Result, effective overlay.EffectiveDataset, byID map[string]*accumulator, sel Selection) {
	cash := byID[sel.CashAccountID]
	bank := byID[sel.BankAccountID]

	for i := range effective.Payments {
		group := &effective.Payments[i]

		if !group.HasResolvedLeader() || !group.HasMatchedPaidLine() {
			if !group.ReportedTotal().IsZero() {
				result.UnattributedGroups = append(result.UnattributedGroups, UnattributedGroup{
					LocalityName: group.LocalityName,
					Amount:       group.ReportedTotal(),
				})
			}
			continue
		}

		cash.add("Efectivo", group.CashTotal, group.LocalityName)
		bank.add("Depósitos", group.BankTotal, group.LocalityName)
		cash.add("Comisiones", group.CommissionTotal().Neg(), group.LocalityName)
		cash.add("FALCO", group.FalcoAmount.Neg(), group.LocalityName)
	}
}

// applyDisbursements debits resolvable loans from the designated source
// account, one detail line per locality group. Loans with no locality are
// tallied but not posted.
func applyDisbursements(result *Result, effective overlay.EffectiveDataset, byID map[string]*accumulator, sel Selection) {
	var source *accumulator
	if sel.HasLoanSource() {
		source = byID[sel.LoanSourceAccountID]
	}

	totals := make(map[string]decimal.Decimal)
	var order []string

	for _, loan := range effective.ResolvableLoans() {
		if !loan.HasLocality() {
			result.UnassignedLoanTotal = result.UnassignedLoanTotal.Add(loan.DeliveredAmount)
			result.UnassignedLoanCount++
			continue
		}

		locality := *loan.LocalityName
		if _, seen := totals[locality]; !seen {
			order = append(order, locality)
		}
		totals[locality] = totals[locality].Add(loan.DeliveredAmount)
	}

	if source == nil {
		return
	}

	for _, locality := range order {
		source.add(fmt.Sprintf("Créditos %s", locality), totals[locality].Neg(), GroupDisbursements)
	}
}

// applyExpenses debits each chargeable expense from its resolved account
func applyExpenses(effective overlay.EffectiveDataset, byID map[string]*accumulator) {
	for i := range effective.Expenses {
		expense := &effective.Expenses[i]
		if !expense.IsChargeable() {
			continue
		}
		byID[*expense.ResolvedAccountID].add(expense.ExpenseType, expense.Amount.Neg(), GroupExpenses)
	}
}

// GroupedDetails splits an impact's flat detail list into display groups:
// consecutive lines with the same Group value form one group. This is purely
// a presentation derivation; the flat ordered list stays authoritative.
func GroupedDetails(impact *AccountImpact) [][]DetailLine {
	var groups [][]DetailLine
	for _, line := range impact.Details {
		if n := len(groups); n > 0 && groups[n-1][0].Group == line.Group {
			groups[n-1] = append(groups[n-1], line)
			continue
		}
		groups = append(groups, []DetailLine{line})
	}
	return groups
}
