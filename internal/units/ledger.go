package units

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
)

type ledgerImpl struct{}

// NewLedger exposes the default unit lifecycle implementation.
func NewLedger() Ledger {
	return ledgerImpl{}
}

// TryClaim flips an available unit to reserved. With two concurrent
// claims only one UPDATE matches, the loser gets UNIT_UNAVAILABLE.
func (ledgerImpl) TryClaim(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for unit claim")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE units
		SET status = 'reserved',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'available'
	`, unitID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "claim unit")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeUnitUnavailable, "unit is not available").
			WithDetails(map[string]any{"unit_id": unitID.String()})
	}
	return nil
}

// Release returns a reserved or occupied unit to the available pool.
// Releasing an already-available unit is a no-op, so retries and
// double-cancellations are safe.
func (ledgerImpl) Release(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for unit release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE units
		SET status = 'available',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN ('reserved', 'occupied')
	`, unitID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release unit")
	}
	return nil
}

// Occupy moves a reserved unit to occupied when the booking activates.
func (ledgerImpl) Occupy(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for unit occupy")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE units
		SET status = 'occupied',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'reserved'
	`, unitID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "occupy unit")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "unit is not reserved").
			WithDetails(map[string]any{"unit_id": unitID.String()})
	}
	return nil
}
