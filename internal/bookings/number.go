package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// nextNumber builds the next sequential booking number for a tenant,
// e.g. BK202600042. Collisions under concurrency are caught by the
// (tenant_id, number) unique index and retried by the caller.
func (s *service) nextNumber(ctx context.Context, repo Repository, tenantID uuid.UUID, now time.Time) (string, error) {
	prefix := fmt.Sprintf("%s%d", s.numberPrefix, now.Year())
	count, err := repo.CountByTenantAndPrefix(ctx, tenantID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}
