package models

import "strings"

// MatchConfidence grades how certain an entity resolution is. The tiers form a
// total order: Alta > Media > Baja > Unmatched.
type MatchConfidence string

const (
	// ConfidenceAlta marks a resolution treated as certain (exact code match
	// or explicit manual assignment).
	ConfidenceAlta MatchConfidence = "alta"
	// ConfidenceMedia marks a probable but unverified resolution.
	ConfidenceMedia MatchConfidence = "media"
	// ConfidenceBaja marks a weak resolution that needs operator review.
	ConfidenceBaja MatchConfidence = "baja"
	// ConfidenceUnmatched marks a line with no database resolution at all.
	ConfidenceUnmatched MatchConfidence = "unmatched"
)

// String returns the string representation of MatchConfidence
func (c MatchConfidence) String() string {
	return string(c)
}

// IsValid checks if the confidence tier is one of the known values
func (c MatchConfidence) IsValid() bool {
	switch c {
	case ConfidenceAlta, ConfidenceMedia, ConfidenceBaja, ConfidenceUnmatched:
		return true
	}
	return false
}

// Rank returns the position of the tier in the total order, higher is better.
// Unknown values rank alongside Unmatched.
func (c MatchConfidence) Rank() int {
	switch c {
	case ConfidenceAlta:
		return 3
	case ConfidenceMedia:
		return 2
	case ConfidenceBaja:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether c is at least as strong as other
func (c MatchConfidence) AtLeast(other MatchConfidence) bool {
	return c.Rank() >= other.Rank()
}

// WorstConfidence returns the weakest tier among the given values, or
// ConfidenceUnmatched when called with none.
func WorstConfidence(tiers ...MatchConfidence) MatchConfidence {
	if len(tiers) == 0 {
		return ConfidenceUnmatched
	}
	worst := tiers[0]
	for _, t := range tiers[1:] {
		if t.Rank() < worst.Rank() {
			worst = t
		}
	}
	return worst
}

// ParseMatchConfidence parses a confidence tier from its string form,
// tolerating case and surrounding whitespace. Unknown input degrades to
// ConfidenceUnmatched rather than failing: the value originates from OCR.
func ParseMatchConfidence(s string) MatchConfidence {
	switch MatchConfidence(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceAlta:
		return ConfidenceAlta
	case ConfidenceMedia:
		return ConfidenceMedia
	case ConfidenceBaja:
		return ConfidenceBaja
	default:
		return ConfidenceUnmatched
	}
}

// MatchMethod records how a line was resolved to a database entity. It is an
// explicit variant rather than a convention over nullable id fields, so a line
// is resolved if and only if its method says so.
type MatchMethod string

const (
	// MatchByClientCode means the extracted client code matched exactly.
	MatchByClientCode MatchMethod = "clientCode"
	// MatchByName means the resolution came from fuzzy name matching.
	MatchByName MatchMethod = "name"
	// MatchManual means an operator assigned the entity explicitly.
	MatchManual MatchMethod = "manual"
	// MatchNone means no resolution was found.
	MatchNone MatchMethod = "unmatched"
)

// String returns the string representation of MatchMethod
func (m MatchMethod) String() string {
	return string(m)
}

// IsResolved reports whether the method denotes an actual resolution
func (m MatchMethod) IsResolved() bool {
	switch m {
	case MatchByClientCode, MatchByName, MatchManual:
		return true
	}
	return false
}

// ParseMatchMethod parses a match method, degrading unknown input to MatchNone
func ParseMatchMethod(s string) MatchMethod {
	switch MatchMethod(strings.TrimSpace(s)) {
	case MatchByClientCode:
		return MatchByClientCode
	case MatchByName:
		return MatchByName
	case MatchManual:
		return MatchManual
	default:
		return MatchNone
	}
}

// PaymentMethod is the channel a client payment arrived through
type PaymentMethod string

const (
	// PaymentCash is physical cash handed to the collector.
	PaymentCash PaymentMethod = "CASH"
	// PaymentMoneyTransfer is a direct bank transfer.
	PaymentMoneyTransfer PaymentMethod = "MONEY_TRANSFER"
)

// String returns the string representation of PaymentMethod
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid checks if the payment method is a known channel
func (p PaymentMethod) IsValid() bool {
	return p == PaymentCash || p == PaymentMoneyTransfer
}

// ParsePaymentMethod parses a payment method, defaulting to cash for unknown
// input since cash is the dominant channel in the source reports.
func ParsePaymentMethod(s string) PaymentMethod {
	if PaymentMethod(strings.ToUpper(strings.TrimSpace(s))) == PaymentMoneyTransfer {
		return PaymentMoneyTransfer
	}
	return PaymentCash
}

// AccountType classifies financial accounts in the snapshot
type AccountType string

const (
	// AccountEmployeeCashFund is the collector's physical cash fund.
	AccountEmployeeCashFund AccountType = "EMPLOYEE_CASH_FUND"
	// AccountBank is a bank account receiving transfers.
	AccountBank AccountType = "BANK"
	// AccountOther covers any account type this engine does not treat specially.
	AccountOther AccountType = "OTHER"
)

// String returns the string representation of AccountType
func (a AccountType) String() string {
	return string(a)
}
