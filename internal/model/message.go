// Package model defines the core domain types for the expense pipeline.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Envelope is one inbound message unit pulled from the stream. WID is the
// idempotency key for every downstream write: re-delivery of the same WID
// must converge on the same stored state.
type Envelope struct {
	WID        string
	ChatID     string
	ChatName   string
	SenderID   string
	SenderName string
	Type       string
	Body       string
	Timestamp  int64
}

// Status describes where a processed envelope ended up in the clarification
// workflow.
type Status string

// Workflow statuses. NotAnExpense, Confirmed and Clarified are terminal;
// Pending rows await promotion via an operator clarification.
const (
	StatusNotAnExpense Status = "not_an_expense"
	StatusConfirmed    Status = "confirmed"
	StatusPending      Status = "pending"
	StatusClarified    Status = "clarified"
)

// Category is an expense category from the closed enumeration, or the
// CategoryUnknown sentinel when the model could not decide.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryUtilities     Category = "Utilities"
	CategoryHealth        Category = "Health"
	CategoryEntertainment Category = "Entertainment"
	CategoryOther         Category = "Other"

	// CategoryUnknown marks an expense that needs operator clarification.
	CategoryUnknown Category = "unknown"
)

// KnownCategories returns the closed enumeration, excluding the unknown
// sentinel.
func KnownCategories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransport,
		CategoryShopping,
		CategoryUtilities,
		CategoryHealth,
		CategoryEntertainment,
		CategoryOther,
	}
}

// ParseCategory matches s case-insensitively against the closed enumeration.
// The unknown sentinel is not a valid parse target: clarifications must
// supply a final category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range KnownCategories() {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// IsKnown reports whether c is a final category from the closed enumeration.
func (c Category) IsKnown() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// ExpenseRecord is a persisted expense row. It lives in exactly one of the
// confirmed and pending tables at any time.
type ExpenseRecord struct {
	Envelope
	Amount   decimal.Decimal
	Currency string
	Category Category
	MetaJSON string
}

// Summary aggregates the confirmed table.
type Summary struct {
	MessageCount  int64
	TotalAmount   decimal.Decimal
	LastMessageTS *int64
}
