package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/jvidal-dev/stokage-backend/pkg/db"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds a slots service with the required dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("slots repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Availability(ctx context.Context, siteID uuid.UUID, from, to time.Time) ([]models.Slot, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "availability range end must be after start")
	}
	slots, err := s.repo.ListBySiteAndRange(ctx, siteID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slots")
	}
	return slots, nil
}

// Reserve takes one place in the slot. The capacity check and the
// increment are a single statement, so the cap holds under races.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for slot reserve")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE slots
		SET current_bookings = current_bookings + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
			AND is_available = ?
			AND is_blocked = ?
			AND current_bookings < max_bookings
	`, slotID, true, false)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve slot")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeSlotUnavailable, "slot has no remaining capacity").
			WithDetails(map[string]any{"slot_id": slotID.String()})
	}
	return nil
}

// Release gives one place back. The floor guard makes repeated
// releases safe.
func (s *service) Release(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for slot release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE slots
		SET current_bookings = current_bookings - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND current_bookings > 0
	`, slotID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release slot")
	}
	return nil
}

// Generate extends the slot horizon for a site, skipping days the site
// is closed and starts that already exist.
func (s *service) Generate(ctx context.Context, input GenerateInput) (int, error) {
	if input.Settings == nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "partner settings required for slot generation")
	}
	if input.Days <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "generation horizon must be positive")
	}

	settings := input.Settings
	duration := time.Duration(settings.SlotDurationMinutes) * time.Minute
	if duration <= 0 {
		duration = time.Hour
	}

	opening, err := parseClock(settings.OpeningTime)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse opening time")
	}
	closing, err := parseClock(settings.ClosingTime)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse closing time")
	}
	if !closing.After(opening) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "closing time must be after opening time")
	}

	created := 0
	day := time.Date(input.From.Year(), input.From.Month(), input.From.Day(), 0, 0, 0, 0, input.From.Location())
	for i := 0; i < input.Days; i++ {
		date := day.AddDate(0, 0, i)
		if !settings.DayEnabled(date.Weekday()) {
			continue
		}

		start := date.Add(time.Duration(opening.Hour())*time.Hour + time.Duration(opening.Minute())*time.Minute)
		dayEnd := date.Add(time.Duration(closing.Hour())*time.Hour + time.Duration(closing.Minute())*time.Minute)

		for ; !start.Add(duration).After(dayEnd); start = start.Add(duration) {
			slot := &models.Slot{
				TenantID:        input.TenantID,
				SiteID:          input.SiteID,
				Date:            date,
				StartTime:       start,
				EndTime:         start.Add(duration),
				MaxBookings:     1,
				CurrentBookings: 0,
				IsAvailable:     true,
			}
			if _, err := s.repo.Create(ctx, slot); err != nil {
				if dbpkg.IsUniqueViolation(err, "ux_slots_site_date_start") {
					continue
				}
				return created, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create slot")
			}
			created++
		}
	}

	if s.logg != nil && created > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"site_id": input.SiteID.String(),
			"created": created,
			"days":    input.Days,
		})
		s.logg.Info(logCtx, "slot horizon extended")
	}
	return created, nil
}

func parseClock(value string) (time.Time, error) {
	return time.Parse("15:04", value)
}
