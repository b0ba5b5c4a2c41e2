package services

import (
	"context"
	"log/slog"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

// DeleteAllConfirmation must be passed verbatim to DeleteAllData.
const DeleteAllConfirmation = "DELETE_ALL_DATA"

func (s *LedgerService) DataStats(ctx context.Context) (storage.DataStats, error) {
	return s.store.Stats(ctx)
}

// DeleteAllData wipes every user record, keeping the default categories,
// then restarts the id counters. A counter that fails to reset is logged
// and skipped.
func (s *LedgerService) DeleteAllData(ctx context.Context, confirmation string) (storage.DeleteResult, error) {
	if confirmation != DeleteAllConfirmation {
		return storage.DeleteResult{}, core.Validationf("confirmation token must be %q", DeleteAllConfirmation)
	}

	res, err := s.store.DeleteAllData(ctx)
	if err != nil {
		return storage.DeleteResult{}, err
	}

	for _, table := range storage.SequencedTables {
		if err := s.store.ResetSequence(ctx, table); err != nil {
			slog.WarnContext(ctx, "Failed to reset id sequence", "table", table, "error", err)
		}
	}
	return res, nil
}
