// Package crossval reconciles the engine's own cash projection against the
// independently filled cut sheet (hoja de corte): reported starting and
// ending cash against the cash fund's current and projected balances, and
// the cut-sheet cash formula against the physical count.
//
// Every finding here is advisory. The cut sheet is itself an OCR-extracted,
// hand-filled document; a mismatch helps a human catch extraction errors but
// must never prevent a correct batch from being committed.
package crossval

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ocr-ledger-reconciliation/internal/impact"
	"ocr-ledger-reconciliation/internal/models"
)

// Comparison tolerances. Balances tolerate sub-unit rounding; the physical
// count check is tighter because both sides are supposed to be exact cash.
var (
	balanceTolerance   = decimal.NewFromInt(1)
	cashCountTolerance = decimal.RequireFromString("0.5")
)

// FindingKind identifies which comparison a finding belongs to
type FindingKind string

const (
	// FindingInicial compares reported starting cash to the cash fund's
	// current balance.
	FindingInicial FindingKind = "inicial"
	// FindingFinal compares reported ending cash to the cash fund's
	// projected balance.
	FindingFinal FindingKind = "final"
	// FindingCashCount compares the cut-sheet cash formula to the
	// physical count.
	FindingCashCount FindingKind = "cashCount"
)

// Finding is the outcome of one comparison. Difference is signed:
// reported minus expected.
type Finding struct {
	Kind       FindingKind     `json:"kind"`
	Expected   decimal.Decimal `json:"expected"`
	Reported   decimal.Decimal `json:"reported"`
	Difference decimal.Decimal `json:"difference"`
	Matches    bool            `json:"matches"`
	Message    string          `json:"message"`
}

// Report is the full cross-validation outcome for one review state
type Report struct {
	Findings []Finding `json:"findings"`
}

// Mismatches returns only the findings whose comparison failed
func (r *Report) Mismatches() []Finding {
	var mismatched []Finding
	for _, f := range r.Findings {
		if !f.Matches {
			mismatched = append(mismatched, f)
		}
	}
	return mismatched
}

// AllMatch reports whether every comparison succeeded
func (r *Report) AllMatch() bool {
	return len(r.Mismatches()) == 0
}

// Compare runs the three cut-sheet comparisons against the computed impacts.
// When no cash fund account is selected the balance comparisons are skipped;
// the formula-vs-count comparison runs regardless, as it is independent of
// the snapshot.
func Compare(cutSheet models.CutSheetTotals, impacts *impact.Result, sel impact.Selection) Report {
	var report Report

	if cash := impacts.ImpactFor(sel.CashAccountID); cash != nil {
		report.Findings = append(report.Findings,
			compare(FindingInicial, cash.CurrentBalance, cutSheet.Inicial, balanceTolerance, false,
				"caja inicial reportada %s vs saldo actual %s (dif %s)"),
			compare(FindingFinal, cash.ProjectedBalance, cutSheet.Final, balanceTolerance, false,
				"caja final reportada %s vs saldo proyectado %s (dif %s)"),
		)
	}

	report.Findings = append(report.Findings,
		compare(FindingCashCount, cutSheet.ExpectedCash(), cutSheet.CashCountTotal, cashCountTolerance, true,
			"conteo físico %s vs fórmula de corte %s (dif %s)"),
	)

	return report
}

// compare runs one comparison. Balance checks match strictly below their
// tolerance; the cash count check matches up to and including its tolerance
// (a mismatch is surfaced only when the difference exceeds it).
func compare(kind FindingKind, expected, reported, tolerance decimal.Decimal, inclusive bool, format string) Finding {
	difference := reported.Sub(expected)
	matches := difference.Abs().LessThan(tolerance)
	if inclusive {
		matches = !difference.Abs().GreaterThan(tolerance)
	}

	finding := Finding{
		Kind:       kind,
		Expected:   expected,
		Reported:   reported,
		Difference: difference,
		Matches:    matches,
	}
	if !matches {
		finding.Message = fmt.Sprintf(format, reported.String(), expected.String(), difference.String())
	}
	return finding
}
