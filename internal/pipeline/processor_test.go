package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfierro/gastos/internal/common"
	"github.com/mfierro/gastos/internal/model"
	"github.com/mfierro/gastos/internal/service"
	"github.com/mfierro/gastos/internal/testutil"
)

// stubClassifier returns a fixed result per message body.
type stubClassifier struct {
	results map[string]model.ClassificationResult
}

func (s *stubClassifier) Classify(_ context.Context, body string) model.ClassificationResult {
	if result, ok := s.results[body]; ok {
		return result
	}
	return model.ClassificationResult{ReplyMessage: "no entendí"}
}

// recordingPublisher captures published confirmation events.
type recordingPublisher struct {
	events []model.ConfirmationEvent
	mu     sync.Mutex
}

func (p *recordingPublisher) Publish(_ context.Context, event model.ConfirmationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []model.ConfirmationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ConfirmationEvent(nil), p.events...)
}

// failingStore wraps a Storage and fails every write.
type failingStore struct {
	service.Storage
}

func (f *failingStore) UpsertConfirmed(_ context.Context, _ *model.ExpenseRecord) error {
	return fmt.Errorf("disk full")
}

func (f *failingStore) UpsertPending(_ context.Context, _ *model.ExpenseRecord) error {
	return fmt.Errorf("disk full")
}

func expenseResult(reply string, amount string, category model.Category) model.ClassificationResult {
	d := decimal.RequireFromString(amount)
	return model.ClassificationResult{
		ReplyMessage: reply,
		ExpenseData: &model.ExpenseData{
			Amount:   &d,
			Currency: "USD",
			Category: category,
			MetaJSON: "{}",
		},
	}
}

func envelope(wid, body string) model.Envelope {
	return model.Envelope{
		WID:       wid,
		ChatID:    "chat-1",
		Body:      body,
		Type:      "whatsapp",
		Timestamp: 1700000000,
	}
}

func TestDecide(t *testing.T) {
	amount := decimal.RequireFromString("10")

	tests := []struct {
		name   string
		result model.ClassificationResult
		want   model.Status
	}{
		{
			name:   "no expense data",
			result: model.ClassificationResult{ReplyMessage: "hola"},
			want:   model.StatusNotAnExpense,
		},
		{
			name: "expense data without amount",
			result: model.ClassificationResult{
				ReplyMessage: "mm",
				ExpenseData:  &model.ExpenseData{Category: model.CategoryFood},
			},
			want: model.StatusNotAnExpense,
		},
		{
			name:   "known category",
			result: expenseResult("ok", "10", model.CategoryFood),
			want:   model.StatusConfirmed,
		},
		{
			name: "unknown category",
			result: model.ClassificationResult{
				ReplyMessage: "¿categoría?",
				ExpenseData: &model.ExpenseData{
					Amount:   &amount,
					Currency: "CLP",
					Category: model.CategoryUnknown,
					MetaJSON: "{}",
				},
			},
			want: model.StatusPending,
		},
		{
			name: "category outside the enumeration",
			result: model.ClassificationResult{
				ReplyMessage: "ok",
				ExpenseData: &model.ExpenseData{
					Amount:   &amount,
					Currency: "CLP",
					Category: model.Category("Groceries"),
					MetaJSON: "{}",
				},
			},
			want: model.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.result))
		})
	}
}

func TestProcess_ConfirmedExpense(t *testing.T) {
	store := testutil.SetupTestDB(t)
	publisher := &recordingPublisher{}
	classifier := &stubClassifier{results: map[string]model.ClassificationResult{
		"supermercado 12.50 usd": expenseResult("Ok, anotado.", "12.50", model.CategoryShopping),
	}}
	processor := New(store, classifier, publisher, slog.Default())
	ctx := context.Background()

	require.NoError(t, processor.Process(ctx, envelope("m1", "supermercado 12.50 usd")))

	got, err := store.GetConfirmed(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryShopping, got.Category)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.50")))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.ConfirmationEvent{
		ChatID:       "chat-1",
		OriginalWID:  "m1",
		ReplyMessage: "Ok, anotado.",
	}, events[0])
}

func TestProcess_PendingThenClarified(t *testing.T) {
	store := testutil.SetupTestDB(t)
	publisher := &recordingPublisher{}
	amount := decimal.NewFromInt(2500)
	classifier := &stubClassifier{results: map[string]model.ClassificationResult{
		"un café 2500": {
			ReplyMessage: "¿Qué categoría?",
			ExpenseData: &model.ExpenseData{
				Amount:   &amount,
				Currency: "CLP",
				Category: model.CategoryUnknown,
				MetaJSON: "{}",
			},
		},
	}}
	processor := New(store, classifier, publisher, slog.Default())
	ctx := context.Background()

	require.NoError(t, processor.Process(ctx, envelope("m2", "un café 2500")))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "m2", pending[0].WID)

	require.NoError(t, Clarify(ctx, store, "m2", "Food"))

	pending, err = store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := store.GetConfirmed(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryFood, got.Category)
	assert.True(t, got.Amount.Equal(amount))
}

func TestProcess_NotAnExpense(t *testing.T) {
	store := testutil.SetupTestDB(t)
	publisher := &recordingPublisher{}
	classifier := &stubClassifier{results: map[string]model.ClassificationResult{
		"hola": {ReplyMessage: "¡Hola! ¿Cómo puedo ayudarte?"},
	}}
	processor := New(store, classifier, publisher, slog.Default())
	ctx := context.Background()

	require.NoError(t, processor.Process(ctx, envelope("m3", "hola")))

	confirmed, err := store.ListConfirmed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, confirmed)

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// The confirmation still goes out with the greeting reply.
	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "¡Hola! ¿Cómo puedo ayudarte?", events[0].ReplyMessage)
}

func TestProcess_RedeliverySafety(t *testing.T) {
	store := testutil.SetupTestDB(t)
	publisher := &recordingPublisher{}
	classifier := &stubClassifier{results: map[string]model.ClassificationResult{
		"supermercado 12.50 usd": expenseResult("Ok.", "12.50", model.CategoryShopping),
	}}
	processor := New(store, classifier, publisher, slog.Default())
	ctx := context.Background()

	env := envelope("m1", "supermercado 12.50 usd")
	for i := 0; i < 3; i++ {
		require.NoError(t, processor.Process(ctx, env))
	}

	confirmed, err := store.ListConfirmed(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, confirmed, 1)

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcess_StoreFailureSurfaces(t *testing.T) {
	store := testutil.SetupTestDB(t)
	publisher := &recordingPublisher{}
	classifier := &stubClassifier{results: map[string]model.ClassificationResult{
		"supermercado 12.50 usd": expenseResult("Ok.", "12.50", model.CategoryShopping),
	}}
	processor := New(&failingStore{Storage: store}, classifier, publisher, slog.Default())

	err := processor.Process(context.Background(), envelope("m1", "supermercado 12.50 usd"))
	require.Error(t, err)

	// No confirmation goes out for a failed envelope.
	assert.Empty(t, publisher.Events())
}

func TestClarify_InvalidCategory(t *testing.T) {
	store := testutil.SetupTestDB(t)

	err := Clarify(context.Background(), store, "m1", "Groceries")
	assert.ErrorIs(t, err, common.ErrInvalidCategory)

	err = Clarify(context.Background(), store, "m1", "unknown")
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
}

func TestClarify_NotFound(t *testing.T) {
	store := testutil.SetupTestDB(t)

	err := Clarify(context.Background(), store, "missing", "Food")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
