package services

import (
	"context"
	"log/slog"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.Color == "" {
		c.Color = core.DefaultColor
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return c, err
	}
	slog.InfoContext(ctx, "Category created", "id", created.ID, "name", created.Name, "type", created.Kind)
	return created, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.Color == "" {
		c.Color = core.DefaultColor
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return s.store.UpdateCategory(ctx, c)
}

// DeleteCategory fails with a conflict while transactions or forecasts
// still reference the category.
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}
