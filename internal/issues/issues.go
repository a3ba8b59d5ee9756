// Package issues classifies every problem detected in a review state into
// blocking issues, which disable commit, and warnings, which are surfaced to
// the reviewer but never stand in the way.
//
// Classification is a pure function of the effective dataset, the computed
// impacts, the cross-validation report, and the account selection. The gate
// is recomputed on every overlay mutation and every selection change; it
// never caches across a mutation.
package issues

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ocr-ledger-reconciliation/internal/crossval"
	"ocr-ledger-reconciliation/internal/impact"
	"ocr-ledger-reconciliation/internal/overlay"
)

// Severity splits issues into the two tiers of the gate
type Severity string

const (
	// SeverityBlocking disables commit while present.
	SeverityBlocking Severity = "blocking"
	// SeverityWarning is surfaced but never disables commit.
	SeverityWarning Severity = "warning"
)

// Issue is one classified problem with an operator-facing message
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Report is the classified outcome for one review state
type Report struct {
	Blocking []Issue `json:"blocking"`
	Warnings []Issue `json:"warnings"`
}

// CanConfirm reports whether the batch may be committed
func (r Report) CanConfirm() bool {
	return len(r.Blocking) == 0
}

// All returns every issue, blocking first
func (r Report) All() []Issue {
	all := make([]Issue, 0, len(r.Blocking)+len(r.Warnings))
	all = append(all, r.Blocking...)
	all = append(all, r.Warnings...)
	return all
}

// Input bundles everything the classifier inspects
type Input struct {
	Effective        overlay.EffectiveDataset
	Impacts          *impact.Result
	CrossValidation  crossval.Report
	Selection        impact.Selection
	ExtractionErrors []string
	// ExtractionWarnings are upstream OCR warnings. They are surfaced verbatim
	// and never block.
	ExtractionWarnings []string
}

// Tolerance below which a negative projected balance is ignored as rounding.
var negativeBalanceTolerance = decimal.RequireFromString("0.01")

// groupTotalTolerance bounds the allowed gap between a group's reported
// cash+bank totals and the sum of its paid lines.
var groupTotalTolerance = decimal.NewFromInt(1)

// deliveredTolerance bounds the allowed gap between a loan's extracted
// delivered amount and the expected one.
var deliveredTolerance = decimal.NewFromInt(1)

// Classify scans the review state and partitions detected problems into
// blocking issues and warnings.
func Classify(in Input) Report {
	var report Report

	report.Blocking = append(report.Blocking, classifyExtraction(in)...)
	report.Blocking = append(report.Blocking, classifyResolutionGaps(in)...)
	report.Warnings = append(report.Warnings, classifyDiscrepancies(in)...)

	return report
}

func blocking(format string, args ...interface{}) Issue {
	return Issue{Severity: SeverityBlocking, Message: fmt.Sprintf(format, args...)}
}

func warning(format string, args ...interface{}) Issue {
	return Issue{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// classifyExtraction blocks on upstream OCR errors. The engine does not try
// to interpret or repair them.
func classifyExtraction(in Input) []Issue {
	if len(in.ExtractionErrors) == 0 {
		return nil
	}
	return []Issue{blocking("%d error(es) de extracción: %s", len(in.ExtractionErrors), in.ExtractionErrors[0])}
}

// classifyResolutionGaps blocks on every unresolved entity the batch still
// carries. Each gap is independently resolvable by operator action.
func classifyResolutionGaps(in Input) []Issue {
	var blockers []Issue

	unmatchedPayments := 0
	groupsWithoutLeader := 0
	anyResolvedLeader := false
	for i := range in.Effective.Payments {
		group := &in.Effective.Payments[i]
		if group.HasResolvedLeader() {
			anyResolvedLeader = true
		} else {
			groupsWithoutLeader++
		}
		for j := range group.ClientPayments {
			line := &group.ClientPayments[j]
			if line.Paid && !line.IsMatched() {
				unmatchedPayments++
			}
		}
	}
	if unmatchedPayments > 0 {
		blockers = append(blockers, blocking("%d pago(s) sin match", unmatchedPayments))
	}

	unresolvedLoans := 0
	for i := range in.Effective.Loans {
		if !in.Effective.Loans[i].IsResolvable() {
			unresolvedLoans++
		}
	}
	if unresolvedLoans > 0 {
		blockers = append(blockers, blocking("%d crédito(s) sin resolver", unresolvedLoans))
	}

	if len(in.Effective.Loans) > 0 {
		if !in.Selection.HasLoanSource() {
			blockers = append(blockers, blocking("créditos sin cuenta de origen designada"))
		}
		if !anyResolvedLeader {
			blockers = append(blockers, blocking("créditos sin líder para asignar"))
		}
	}

	if groupsWithoutLeader > 0 {
		blockers = append(blockers, blocking("%d localidad(es) sin líder identificado", groupsWithoutLeader))
	}

	unresolvedExpenses := 0
	for i := range in.Effective.Expenses {
		expense := &in.Effective.Expenses[i]
		if expense.Amount.IsPositive() && !expense.IsChargeable() {
			unresolvedExpenses++
		}
	}
	if unresolvedExpenses > 0 {
		blockers = append(blockers, blocking("%d gasto(s) sin cuenta", unresolvedExpenses))
	}

	return blockers
}

// classifyDiscrepancies surfaces reconciliation warnings: negative projected
// balances, amount and delivered-amount mismatches, cut-sheet findings,
// shortfalls, upstream extraction warnings, and money the impact engine could
// not attribute.
func classifyDiscrepancies(in Input) []Issue {
	var warnings []Issue

	if in.Impacts != nil {
		for i := range in.Impacts.Impacts {
			acc := &in.Impacts.Impacts[i]
			if acc.ProjectedBalance.LessThan(negativeBalanceTolerance.Neg()) {
				warnings = append(warnings, warning("saldo proyectado negativo en %s: %s",
					acc.AccountName, acc.ProjectedBalance.String()))
			}
		}

		for _, ua := range in.Impacts.UnattributedGroups {
			warnings = append(warnings, warning("efectivo sin atribuir en %s: %s",
				ua.LocalityName, ua.Amount.String()))
		}

		if in.Impacts.UnassignedLoanCount > 0 {
			warnings = append(warnings, warning("%d crédito(s) sin localidad asignada (%s)",
				in.Impacts.UnassignedLoanCount, in.Impacts.UnassignedLoanTotal.String()))
		}
	}

	amountWarnings := 0
	for i := range in.Effective.Payments {
		group := &in.Effective.Payments[i]
		for j := range group.ClientPayments {
			if group.ClientPayments[j].AmountWarning != nil {
				amountWarnings++
			}
		}

		if group.FalcoAmount.IsPositive() {
			warnings = append(warnings, warning("FALCO de %s en %s",
				group.FalcoAmount.String(), group.LocalityName))
		}

		if group.HasResolvedLeader() && group.HasMatchedPaidLine() {
			gap := group.ReportedTotal().Sub(group.PaidLinesTotal()).Abs()
			if gap.GreaterThan(groupTotalTolerance) {
				warnings = append(warnings, warning("totales de %s no cuadran con los pagos: dif %s",
					group.LocalityName, gap.String()))
			}
		}
	}
	if amountWarnings > 0 {
		warnings = append(warnings, warning("%d pago(s) con monto distinto al esperado", amountWarnings))
	}

	for i := range in.Effective.Loans {
		loan := &in.Effective.Loans[i]
		if diff, mismatch := loan.DeliveredMismatch(deliveredTolerance); mismatch {
			warnings = append(warnings, warning("crédito de %s: entregado %s, esperado %s (dif %s)",
				loan.ClientName, loan.DeliveredAmount.String(), loan.ExpectedDeliveredAmount.String(), diff.String()))
		}
		for _, note := range loan.Warnings {
			warnings = append(warnings, warning("aviso de extracción en crédito de %s: %s", loan.ClientName, note))
		}
	}

	for _, note := range in.ExtractionWarnings {
		warnings = append(warnings, warning("aviso de extracción: %s", note))
	}

	for _, finding := range in.CrossValidation.Mismatches() {
		warnings = append(warnings, warning("%s", finding.Message))
	}

	return warnings
}
