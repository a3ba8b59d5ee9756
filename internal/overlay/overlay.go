// Package overlay implements the reviewing operator's edit overlay: manual
// reassignments and soft deletions recorded on top of an immutable extraction,
// and the projection that turns both into the effective dataset every
// downstream computation consumes.
//
// The overlay is the only mutable state of a review session. The extraction
// itself is never written; restoring a deleted line therefore recovers its
// original match exactly, and applying the same overlay twice yields
// identical output.
package overlay

import (
	"fmt"

	"ocr-ledger-reconciliation/internal/models"
)

// PaymentKey addresses one client payment line by its position in the
// extraction: group index, then line index within the group.
type PaymentKey struct {
	Group int `json:"group"`
	Line  int `json:"line"`
}

// String returns the string representation of the PaymentKey
func (k PaymentKey) String() string {
	return fmt.Sprintf("%d/%d", k.Group, k.Line)
}

// Overlay records the operator's edits for one review session. It is created
// empty when a batch is opened, mutated only by explicit operator actions,
// and discarded on close or commit, never persisted.
type Overlay struct {
	overrides       map[PaymentKey]models.ManualMatch
	deletedPayments map[PaymentKey]struct{}
	deletedLoans    map[int]struct{}
}

// New creates an empty overlay
func New() *Overlay {
	return &Overlay{
		overrides:       make(map[PaymentKey]models.ManualMatch),
		deletedPayments: make(map[PaymentKey]struct{}),
		deletedLoans:    make(map[int]struct{}),
	}
}

// SetOverride records a manual reassignment for the given payment line
func (o *Overlay) SetOverride(key PaymentKey, match models.ManualMatch) {
	o.overrides[key] = match
}

// Override returns the manual match recorded for the key, if any
func (o *Overlay) Override(key PaymentKey) (models.ManualMatch, bool) {
	match, ok := o.overrides[key]
	return match, ok
}

// DeletePayment soft-deletes the given payment line
func (o *Overlay) DeletePayment(key PaymentKey) {
	o.deletedPayments[key] = struct{}{}
}

// RestorePayment undoes a soft deletion. It also clears any override for the
// key: a restored line returns to its original, unedited match, not to the
// override that was pending when it was deleted.
func (o *Overlay) RestorePayment(key PaymentKey) {
	delete(o.deletedPayments, key)
	delete(o.overrides, key)
}

// IsPaymentDeleted reports whether the payment line is soft-deleted
func (o *Overlay) IsPaymentDeleted(key PaymentKey) bool {
	_, deleted := o.deletedPayments[key]
	return deleted
}

// DeleteLoan soft-deletes the loan at the given extraction index
func (o *Overlay) DeleteLoan(index int) {
	o.deletedLoans[index] = struct{}{}
}

// RestoreLoan undoes a loan soft deletion
func (o *Overlay) RestoreLoan(index int) {
	delete(o.deletedLoans, index)
}

// IsLoanDeleted reports whether the loan at the given index is soft-deleted
func (o *Overlay) IsLoanDeleted(index int) bool {
	_, deleted := o.deletedLoans[index]
	return deleted
}

// EditCount returns how many edits the overlay currently carries
func (o *Overlay) EditCount() int {
	return len(o.overrides) + len(o.deletedPayments) + len(o.deletedLoans)
}

// Clone returns an independent copy of the overlay
func (o *Overlay) Clone() *Overlay {
	clone := New()
	for key, match := range o.overrides {
		clone.overrides[key] = match
	}
	for key := range o.deletedPayments {
		clone.deletedPayments[key] = struct{}{}
	}
	for index := range o.deletedLoans {
		clone.deletedLoans[index] = struct{}{}
	}
	return clone
}
