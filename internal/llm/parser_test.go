package llm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfierro/gastos/internal/model"
)

func TestParseResult(t *testing.T) {
	t.Run("plain expense", func(t *testing.T) {
		raw := `{"reply_message":"Ok, anotado: $12.50 USD en Shopping.","expense_data":{"amount":12.50,"currency":"USD","category":"Shopping","meta_json":"{\"source\":\"supermercado\"}"}}`

		result, err := parseResult(raw, "CLP")
		require.NoError(t, err)
		assert.Equal(t, "Ok, anotado: $12.50 USD en Shopping.", result.ReplyMessage)
		require.NotNil(t, result.ExpenseData)
		require.NotNil(t, result.ExpenseData.Amount)
		assert.True(t, result.ExpenseData.Amount.Equal(decimal.RequireFromString("12.50")))
		assert.Equal(t, "USD", result.ExpenseData.Currency)
		assert.Equal(t, model.CategoryShopping, result.ExpenseData.Category)
		assert.Equal(t, `{"source":"supermercado"}`, result.ExpenseData.MetaJSON)
	})

	t.Run("not an expense", func(t *testing.T) {
		raw := `{"reply_message":"¡Hola! ¿Cómo puedo ayudarte?","expense_data":null}`

		result, err := parseResult(raw, "CLP")
		require.NoError(t, err)
		assert.Equal(t, "¡Hola! ¿Cómo puedo ayudarte?", result.ReplyMessage)
		assert.Nil(t, result.ExpenseData)
	})

	t.Run("fenced output", func(t *testing.T) {
		raw := "Here you go:\n```json\n{\"reply_message\":\"ok\",\"expense_data\":null}\n```"

		result, err := parseResult(raw, "CLP")
		require.NoError(t, err)
		assert.Equal(t, "ok", result.ReplyMessage)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := parseResult("I could not classify that, sorry.", "CLP")
		assert.Error(t, err)
	})

	t.Run("truncated JSON", func(t *testing.T) {
		_, err := parseResult(`{"reply_message":"ok","expense_data":{`, "CLP")
		assert.Error(t, err)
	})

	t.Run("missing reply_message", func(t *testing.T) {
		_, err := parseResult(`{"expense_data":null}`, "CLP")
		assert.Error(t, err)
	})

	t.Run("unknown category becomes sentinel", func(t *testing.T) {
		raw := `{"reply_message":"ok","expense_data":{"amount":2500,"currency":"CLP","category":"Groceries","meta_json":"{}"}}`

		result, err := parseResult(raw, "CLP")
		require.NoError(t, err)
		assert.Equal(t, model.CategoryUnknown, result.ExpenseData.Category)
	})

	t.Run("missing currency defaults to home currency", func(t *testing.T) {
		raw := `{"reply_message":"ok","expense_data":{"amount":2500,"category":"Food","meta_json":"{}"}}`

		result, err := parseResult(raw, "CLP")
		require.NoError(t, err)
		assert.Equal(t, "CLP", result.ExpenseData.Currency)
	})

	t.Run("lowercase currency normalized", func(t *testing.T) {
		raw := `{"reply_message":"ok","expense_data":{"amount":5,"currency":"usd","category":"Food","meta_json":"{}"}}`

		result, err := parseResult(raw, "CLP")
		require.NoError(t, err)
		assert.Equal(t, "USD", result.ExpenseData.Currency)
	})

	t.Run("meta_json as inline object", func(t *testing.T) {
		raw := `{"reply_message":"ok","expense_data":{"amount":5,"currency":"USD","category":"Food","meta_json":{"vendor":"cafe"}}}`

		result, err := parseResult(raw, "CLP")
		require.NoError(t, err)
		assert.JSONEq(t, `{"vendor":"cafe"}`, result.ExpenseData.MetaJSON)
	})

	t.Run("missing meta_json defaults to empty object", func(t *testing.T) {
		raw := `{"reply_message":"ok","expense_data":{"amount":5,"currency":"USD","category":"Food"}}`

		result, err := parseResult(raw, "CLP")
		require.NoError(t, err)
		assert.Equal(t, "{}", result.ExpenseData.MetaJSON)
	})

	t.Run("absent amount survives parsing", func(t *testing.T) {
		raw := `{"reply_message":"ok","expense_data":{"currency":"USD","category":"Food","meta_json":"{}"}}`

		result, err := parseResult(raw, "CLP")
		require.NoError(t, err)
		require.NotNil(t, result.ExpenseData)
		assert.Nil(t, result.ExpenseData.Amount)
		assert.False(t, result.IsExpense())
	})
}
