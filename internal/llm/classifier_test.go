package llm

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfierro/gastos/internal/model"
)

func TestClassifier_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		client *MockClient
	}{
		{
			name:   "provider error",
			client: &MockClient{Errors: []error{fmt.Errorf("connection refused")}},
		},
		{
			name:   "provider timeout",
			client: &MockClient{Errors: []error{context.DeadlineExceeded}},
		},
		{
			name:   "empty reply from provider",
			client: &MockClient{Results: []model.ClassificationResult{{}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewClassifier(tt.client, time.Second, slog.Default())

			result := classifier.Classify(context.Background(), "supermercado 12.50 usd")
			assert.Equal(t, FallbackReply, result.ReplyMessage)
			assert.Nil(t, result.ExpenseData)
		})
	}
}

func TestClassifier_PassesThroughResult(t *testing.T) {
	amount := decimal.RequireFromString("12.50")
	client := &MockClient{
		Results: []model.ClassificationResult{
			{
				ReplyMessage: "anotado",
				ExpenseData: &model.ExpenseData{
					Amount:   &amount,
					Currency: "USD",
					Category: model.CategoryShopping,
					MetaJSON: "{}",
				},
			},
		},
	}
	classifier := NewClassifier(client, time.Second, slog.Default())

	result := classifier.Classify(context.Background(), "supermercado 12.50 usd")
	require.NotNil(t, result.ExpenseData)
	assert.Equal(t, "anotado", result.ReplyMessage)
	assert.Equal(t, model.CategoryShopping, result.ExpenseData.Category)
	assert.Equal(t, 1, client.Calls())
}

func TestClassifier_NoRetries(t *testing.T) {
	client := &MockClient{Errors: []error{fmt.Errorf("boom"), fmt.Errorf("boom")}}
	classifier := NewClassifier(client, time.Second, slog.Default())

	_ = classifier.Classify(context.Background(), "hola")
	assert.Equal(t, 1, client.Calls())
}
