package models

import "github.com/shopspring/decimal"

// ManualMatch is the payload of an operator-initiated reassignment: the
// database entity a payment line should resolve to, plus the mirrored display
// fields. When projected onto a line it always carries ConfidenceAlta and
// MatchManual; manual resolution is treated as certain.
type ManualMatch struct {
	LoanID          string          `json:"loanId"`
	BorrowerID      string          `json:"borrowerId"`
	ClientCode      string          `json:"clientCode"`
	ClientName      string          `json:"clientName"`
	PendingAmount   decimal.Decimal `json:"pendingAmount"`
	ExpectedPayment decimal.Decimal `json:"expectedPayment"`
}

// ApplyTo returns a copy of the line with the manual match projected onto it.
// The receiver line is not modified.
func (m ManualMatch) ApplyTo(line ClientPaymentLine) ClientPaymentLine {
	loanID := m.LoanID
	borrowerID := m.BorrowerID

	line.ResolvedLoanID = &loanID
	line.ResolvedBorrowerID = &borrowerID
	line.MatchConfidence = ConfidenceAlta
	line.MatchMethod = MatchManual
	line.DBClientCode = m.ClientCode
	line.DBClientName = m.ClientName
	line.DBPendingAmount = m.PendingAmount
	line.DBExpectedPayment = m.ExpectedPayment
	return line
}
