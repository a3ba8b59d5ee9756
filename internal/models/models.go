// Package models defines the domain types of the OCR-to-ledger reconciliation
// core: the extraction schema produced by the external OCR step, the account
// snapshot it reconciles against, and the enums and money parsing helpers the
// rest of the engine is built on.
//
// Every monetary field is a shopspring decimal. JSON decoding of amounts is
// lenient by design (see ParseAmount): the extraction originates from scanned
// paper reports, so malformed values degrade to zero instead of failing the
// whole batch.
package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OCRResult is the complete machine extraction of one daily report. It is
// produced once by the external OCR collaborator and treated as immutable by
// this engine: every downstream view is derived, never written back.
type OCRResult struct {
	PagesProcessed    int            `json:"pagesProcessed"`
	OverallConfidence float64        `json:"overallConfidence"`
	Payments          []PaymentGroup `json:"payments"`
	Loans             []LoanLine     `json:"loans"`
	Expenses          []ExpenseLine  `json:"expenses"`
	CrossValidation   CutSheetTotals `json:"crossValidation"`
	Warnings          []string       `json:"warnings"`
	Errors            []string       `json:"errors"`
}

// HasErrors reports whether the extraction carried upstream errors.
// Any upstream error is an automatic commit blocker.
func (r *OCRResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// PaymentGroup is one locality's collections for the reporting day: the
// collector (leader), the cash/bank totals they reported, any self-reported
// shortfall (falco), and the individual expected client payments.
type PaymentGroup struct {
	LocalityName             string              `json:"localityName"`
	LeaderName               string              `json:"leaderName"`
	ResolvedLeaderID         *string             `json:"resolvedLeaderId"`
	ResolvedLeaderConfidence MatchConfidence     `json:"resolvedLeaderConfidence"`
	CashTotal                decimal.Decimal     `json:"cashTotal"`
	BankTotal                decimal.Decimal     `json:"bankTotal"`
	FalcoAmount              decimal.Decimal     `json:"falcoAmount"`
	ClientPayments           []ClientPaymentLine `json:"clientPayments"`
}

// UnmarshalJSON decodes a PaymentGroup with lenient amount parsing
func (g *PaymentGroup) UnmarshalJSON(data []byte) error {
	type Alias PaymentGroup
	aux := &struct {
		CashTotal   json.RawMessage `json:"cashTotal"`
		BankTotal   json.RawMessage `json:"bankTotal"`
		FalcoAmount json.RawMessage `json:"falcoAmount"`
		Confidence  string          `json:"resolvedLeaderConfidence"`
		*Alias
	}{Alias: (*Alias)(g)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	g.CashTotal = ParseAmountJSON(aux.CashTotal)
	g.BankTotal = ParseAmountJSON(aux.BankTotal)
	g.FalcoAmount = ParseAmountJSON(aux.FalcoAmount)
	g.ResolvedLeaderConfidence = ParseMatchConfidence(aux.Confidence)
	return nil
}

// HasResolvedLeader reports whether the group's collector was mapped to a
// database lead entity.
func (g *PaymentGroup) HasResolvedLeader() bool {
	return g.ResolvedLeaderID != nil && strings.TrimSpace(*g.ResolvedLeaderID) != ""
}

// ReportedTotal is the sum of the cash and bank totals the collector reported
func (g *PaymentGroup) ReportedTotal() decimal.Decimal {
	return g.CashTotal.Add(g.BankTotal)
}

// PaidLinesTotal sums abonoReal across lines marked paid
func (g *PaymentGroup) PaidLinesTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range g.ClientPayments {
		line := &g.ClientPayments[i]
		if line.Paid && line.PaidAmount != nil {
			total = total.Add(*line.PaidAmount)
		}
	}
	return total
}

// CommissionTotal sums the per-line commissions of paid lines
func (g *PaymentGroup) CommissionTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range g.ClientPayments {
		if g.ClientPayments[i].Paid {
			total = total.Add(g.ClientPayments[i].Commission)
		}
	}
	return total
}

// HasMatchedPaidLine reports whether at least one line is both paid and
// resolved to a loan. A group with none cannot have its money posted safely.
func (g *PaymentGroup) HasMatchedPaidLine() bool {
	for i := range g.ClientPayments {
		line := &g.ClientPayments[i]
		if line.Paid && line.IsMatched() {
			return true
		}
	}
	return false
}

// String returns a short description of the PaymentGroup
func (g *PaymentGroup) String() string {
	return fmt.Sprintf("PaymentGroup{Locality: %s, Leader: %s, Lines: %d, Cash: %s, Bank: %s}",
		g.LocalityName, g.LeaderName, len(g.ClientPayments), g.CashTotal.String(), g.BankTotal.String())
}

// ClientPaymentLine is one expected payment on the collection sheet. The
// Resolved* fields carry the entity match; the DB* fields mirror the matched
// database entity for display and cross-checking.
type ClientPaymentLine struct {
	ClientID       string          `json:"clientId"`
	ClientName     string          `json:"clientName"`
	ExpectedAmount decimal.Decimal `json:"abonoEsperado"`
	// PaidAmount is nil for unpaid lines, so a recorded zero stays
	// distinguishable from "not paid".
	PaidAmount         *decimal.Decimal `json:"abonoReal"`
	Paid               bool             `json:"paid"`
	PaymentMethod      PaymentMethod    `json:"paymentMethod"`
	Commission         decimal.Decimal  `json:"comission"`
	ResolvedLoanID     *string          `json:"resolvedLoanId"`
	ResolvedBorrowerID *string          `json:"resolvedBorrowerId"`
	MatchConfidence    MatchConfidence  `json:"matchConfidence"`
	MatchMethod        MatchMethod      `json:"matchMethod"`
	DBClientCode       string           `json:"dbClientCode"`
	DBClientName       string           `json:"dbClientName"`
	DBPendingAmount    decimal.Decimal  `json:"dbPendingAmount"`
	DBExpectedPayment  decimal.Decimal  `json:"dbExpectedPayment"`
	AmountWarning      *string          `json:"amountWarning"`
}

// UnmarshalJSON decodes a ClientPaymentLine with lenient amount parsing
func (l *ClientPaymentLine) UnmarshalJSON(data []byte) error {
	type Alias ClientPaymentLine
	aux := &struct {
		ExpectedAmount    json.RawMessage `json:"abonoEsperado"`
		PaidAmount        json.RawMessage `json:"abonoReal"`
		Commission        json.RawMessage `json:"comission"`
		DBPendingAmount   json.RawMessage `json:"dbPendingAmount"`
		DBExpectedPayment json.RawMessage `json:"dbExpectedPayment"`
		Confidence        string          `json:"matchConfidence"`
		Method            string          `json:"matchMethod"`
		PaymentMethod     string          `json:"paymentMethod"`
		*Alias
	}{Alias: (*Alias)(l)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	l.ExpectedAmount = ParseAmountJSON(aux.ExpectedAmount)
	l.PaidAmount = ParseOptionalAmountJSON(aux.PaidAmount)
	l.Commission = ParseAmountJSON(aux.Commission)
	l.DBPendingAmount = ParseAmountJSON(aux.DBPendingAmount)
	l.DBExpectedPayment = ParseAmountJSON(aux.DBExpectedPayment)
	l.MatchConfidence = ParseMatchConfidence(aux.Confidence)
	l.MatchMethod = ParseMatchMethod(aux.Method)
	l.PaymentMethod = ParsePaymentMethod(aux.PaymentMethod)
	return nil
}

// IsMatched reports whether the line is resolved to an active loan. The match
// method is authoritative; the id fields merely carry the target.
func (l *ClientPaymentLine) IsMatched() bool {
	return l.MatchMethod.IsResolved() && l.ResolvedLoanID != nil
}

// EffectivePaid returns the amount actually collected for the line, zero when
// unpaid or unrecorded.
func (l *ClientPaymentLine) EffectivePaid() decimal.Decimal {
	if !l.Paid || l.PaidAmount == nil {
		return decimal.Zero
	}
	return *l.PaidAmount
}

// String returns a short description of the ClientPaymentLine
func (l *ClientPaymentLine) String() string {
	return fmt.Sprintf("ClientPaymentLine{Client: %s (%s), Expected: %s, Paid: %v, Match: %s/%s}",
		l.ClientName, l.ClientID, l.ExpectedAmount.String(), l.Paid, l.MatchMethod, l.MatchConfidence)
}

// LoanLine is one disbursement on the report. For renewals the delivered cash
// is the face value net of the borrower's prior outstanding balance.
type LoanLine struct {
	Numero                 int             `json:"numero"`
	ClientName             string          `json:"clientName"`
	CreditAmount           decimal.Decimal `json:"creditAmount"`
	DeliveredAmount        decimal.Decimal `json:"deliveredAmount"`
	TermWeeks              int             `json:"termWeeks"`
	ResolvedBorrowerID     *string         `json:"resolvedBorrowerId"`
	ResolvedPreviousLoanID *string         `json:"resolvedPreviousLoanId"`
	ResolvedLoantypeID     *string         `json:"resolvedLoantypeId"`
	IsNewClient            bool            `json:"isNewClient"`
	IsRenewal              bool            `json:"isRenewal"`
	PreviousLoanPending    decimal.Decimal `json:"previousLoanPending"`
	// ExpectedDeliveredAmount is creditAmount minus previousLoanPending,
	// carried for mismatch detection against the extracted DeliveredAmount.
	ExpectedDeliveredAmount decimal.Decimal `json:"expectedDeliveredAmount"`
	// LocalityName is nil for loans the report did not assign to a route.
	LocalityName *string  `json:"localityName"`
	Warnings     []string `json:"warnings"`
}

// UnmarshalJSON decodes a LoanLine with lenient amount parsing. A missing
// expectedDeliveredAmount is recomputed from creditAmount and
// previousLoanPending.
func (l *LoanLine) UnmarshalJSON(data []byte) error {
	type Alias LoanLine
	aux := &struct {
		CreditAmount            json.RawMessage `json:"creditAmount"`
		DeliveredAmount         json.RawMessage `json:"deliveredAmount"`
		PreviousLoanPending     json.RawMessage `json:"previousLoanPending"`
		ExpectedDeliveredAmount json.RawMessage `json:"expectedDeliveredAmount"`
		*Alias
	}{Alias: (*Alias)(l)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	l.CreditAmount = ParseAmountJSON(aux.CreditAmount)
	l.DeliveredAmount = ParseAmountJSON(aux.DeliveredAmount)
	l.PreviousLoanPending = ParseAmountJSON(aux.PreviousLoanPending)
	if len(aux.ExpectedDeliveredAmount) == 0 || string(aux.ExpectedDeliveredAmount) == "null" {
		l.ExpectedDeliveredAmount = l.CreditAmount.Sub(l.PreviousLoanPending)
	} else {
		l.ExpectedDeliveredAmount = ParseAmountJSON(aux.ExpectedDeliveredAmount)
	}
	return nil
}

// IsResolvable reports whether the loan can be committed: it needs a loan
// product and either a resolved borrower or the new-client flag.
func (l *LoanLine) IsResolvable() bool {
	if l.ResolvedLoantypeID == nil || strings.TrimSpace(*l.ResolvedLoantypeID) == "" {
		return false
	}
	return l.ResolvedBorrowerID != nil || l.IsNewClient
}

// HasLocality reports whether the report assigned the loan to a route
func (l *LoanLine) HasLocality() bool {
	return l.LocalityName != nil && strings.TrimSpace(*l.LocalityName) != ""
}

// DeliveredMismatch returns the signed difference between the extracted
// delivered amount and the expected one, and whether it exceeds the given
// tolerance.
func (l *LoanLine) DeliveredMismatch(tolerance decimal.Decimal) (decimal.Decimal, bool) {
	diff := l.DeliveredAmount.Sub(l.ExpectedDeliveredAmount)
	return diff, diff.Abs().GreaterThan(tolerance)
}

// String returns a short description of the LoanLine
func (l *LoanLine) String() string {
	return fmt.Sprintf("LoanLine{#%d %s, Credit: %s, Delivered: %s, Renewal: %v}",
		l.Numero, l.ClientName, l.CreditAmount.String(), l.DeliveredAmount.String(), l.IsRenewal)
}

// ExpenseLine is one expense on the report. An expense without a resolved
// account cannot be safely charged anywhere.
type ExpenseLine struct {
	ExpenseType        string          `json:"expenseType"`
	Amount             decimal.Decimal `json:"amount"`
	ResolvedSourceType string          `json:"resolvedSourceType"`
	ResolvedAccountID  *string         `json:"resolvedAccountId"`
}

// UnmarshalJSON decodes an ExpenseLine with lenient amount parsing
func (e *ExpenseLine) UnmarshalJSON(data []byte) error {
	type Alias ExpenseLine
	aux := &struct {
		Amount json.RawMessage `json:"amount"`
		*Alias
	}{Alias: (*Alias)(e)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	e.Amount = ParseAmountJSON(aux.Amount)
	return nil
}

// IsChargeable reports whether the expense can be posted: resolved account
// and a positive amount.
func (e *ExpenseLine) IsChargeable() bool {
	return e.ResolvedAccountID != nil && strings.TrimSpace(*e.ResolvedAccountID) != "" &&
		e.Amount.IsPositive()
}

// CutSheetTotals carries the independently filled paper reconciliation of the
// day: starting and ending cash, the physical count, and the inputs of the
// cut-sheet cash formula.
type CutSheetTotals struct {
	Inicial           decimal.Decimal `json:"inicial"`
	Final             decimal.Decimal `json:"final"`
	CashCountTotal    decimal.Decimal `json:"cashCountTotal"`
	CollectionsTotal  decimal.Decimal `json:"collectionsTotal"`
	CommissionTotal   decimal.Decimal `json:"commissionTotal"`
	DisbursementTotal decimal.Decimal `json:"disbursementTotal"`
	ExpenseTotal      decimal.Decimal `json:"expenseTotal"`
	ExtraCollections  decimal.Decimal `json:"extraCollections"`
}

// UnmarshalJSON decodes CutSheetTotals with lenient amount parsing
func (c *CutSheetTotals) UnmarshalJSON(data []byte) error {
	aux := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	c.Inicial = ParseAmountJSON(aux["inicial"])
	c.Final = ParseAmountJSON(aux["final"])
	c.CashCountTotal = ParseAmountJSON(aux["cashCountTotal"])
	c.CollectionsTotal = ParseAmountJSON(aux["collectionsTotal"])
	c.CommissionTotal = ParseAmountJSON(aux["commissionTotal"])
	c.DisbursementTotal = ParseAmountJSON(aux["disbursementTotal"])
	c.ExpenseTotal = ParseAmountJSON(aux["expenseTotal"])
	c.ExtraCollections = ParseAmountJSON(aux["extraCollections"])
	return nil
}

// ExpectedCash evaluates the cut-sheet cash formula:
// collections − commissions − disbursements − expenses + extra collections.
func (c *CutSheetTotals) ExpectedCash() decimal.Decimal {
	return c.CollectionsTotal.
		Sub(c.CommissionTotal).
		Sub(c.DisbursementTotal).
		Sub(c.ExpenseTotal).
		Add(c.ExtraCollections)
}

// Account is one financial account from the external snapshot. The balance is
// authoritative as of review time; this engine never writes it.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	AccountBalance decimal.Decimal `json:"accountBalance"`
}

// UnmarshalJSON decodes an Account with lenient balance parsing
func (a *Account) UnmarshalJSON(data []byte) error {
	type Alias Account
	aux := &struct {
		AccountBalance json.RawMessage `json:"accountBalance"`
		*Alias
	}{Alias: (*Alias)(a)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	a.AccountBalance = ParseAmountJSON(aux.AccountBalance)
	return nil
}

// String returns a short description of the Account
func (a *Account) String() string {
	return fmt.Sprintf("Account{%s %q %s balance=%s}", a.ID, a.Name, a.Type, a.AccountBalance.String())
}

// FindAccount returns the account with the given id, or nil
func FindAccount(accounts []Account, id string) *Account {
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i]
		}
	}
	return nil
}

// FirstAccountOfType returns the first account of the given type, or nil.
// Used as the default cash-fund/bank selection when the operator has not
// picked one explicitly.
func FirstAccountOfType(accounts []Account, t AccountType) *Account {
	for i := range accounts {
		if accounts[i].Type == t {
			return &accounts[i]
		}
	}
	return nil
}
