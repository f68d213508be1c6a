package model

import "github.com/shopspring/decimal"

// ClassificationResult is the model's structured answer for one envelope.
// ReplyMessage is always present and is what the sender sees; ExpenseData is
// nil when the text is not an expense.
type ClassificationResult struct {
	ReplyMessage string
	ExpenseData  *ExpenseData
}

// ExpenseData carries the structured expense fields extracted by the model.
// A nil Amount means the text turned out not to be an expense after all.
type ExpenseData struct {
	Amount   *decimal.Decimal
	Currency string
	Category Category
	MetaJSON string
}

// IsExpense reports whether the result carries a recordable expense.
func (r ClassificationResult) IsExpense() bool {
	return r.ExpenseData != nil && r.ExpenseData.Amount != nil
}

// ConfirmationEvent is the fire-and-forget notification published once per
// processed envelope.
type ConfirmationEvent struct {
	ChatID       string `json:"chat_id"`
	OriginalWID  string `json:"original_wid"`
	ReplyMessage string `json:"reply_message"`
}
