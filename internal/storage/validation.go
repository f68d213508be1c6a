package storage

import (
	"context"
	"fmt"

	"github.com/mfierro/gastos/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	return nil
}

func validateRecord(rec *model.ExpenseRecord) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := validateString(rec.WID, "wid"); err != nil {
		return err
	}
	if err := validateString(rec.Currency, "currency"); err != nil {
		return err
	}
	if rec.Category == "" {
		return fmt.Errorf("category cannot be empty")
	}
	return nil
}
