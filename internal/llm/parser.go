package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mfierro/gastos/internal/model"
)

type wireResult struct {
	ReplyMessage string           `json:"reply_message"`
	ExpenseData  *wireExpenseData `json:"expense_data"`
}

type wireExpenseData struct {
	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency"`
	Category string           `json:"category"`
	MetaJSON json.RawMessage  `json:"meta_json"`
}

// parseResult extracts the structured classification from raw model output.
// Models habitually wrap JSON in code fences or commentary, so parsing works
// on the outermost {...} span rather than the full text.
func parseResult(raw, homeCurrency string) (model.ClassificationResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return model.ClassificationResult{}, fmt.Errorf("no JSON object in model output")
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err != nil {
		return model.ClassificationResult{}, fmt.Errorf("failed to parse model output: %w", err)
	}
	if wire.ReplyMessage == "" {
		return model.ClassificationResult{}, fmt.Errorf("model output missing reply_message")
	}

	result := model.ClassificationResult{ReplyMessage: wire.ReplyMessage}
	if wire.ExpenseData != nil {
		result.ExpenseData = &model.ExpenseData{
			Amount:   wire.ExpenseData.Amount,
			Currency: normalizeCurrency(wire.ExpenseData.Currency, homeCurrency),
			Category: normalizeCategory(wire.ExpenseData.Category),
			MetaJSON: normalizeMeta(wire.ExpenseData.MetaJSON),
		}
	}
	return result, nil
}

// normalizeCategory maps model output onto the closed enumeration, falling
// back to the unknown sentinel.
func normalizeCategory(s string) model.Category {
	if c, ok := model.ParseCategory(s); ok {
		return c
	}
	return model.CategoryUnknown
}

// normalizeCurrency upper-cases 3-letter codes and falls back to the home
// currency for anything else.
func normalizeCurrency(s, homeCurrency string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return homeCurrency
	}
	return s
}

// normalizeMeta accepts meta_json either as a JSON string (per the prompt
// contract) or as an inline object, and stores it as a string.
func normalizeMeta(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err == nil && inner != "" {
			return inner
		}
		return "{}"
	}
	return string(raw)
}
