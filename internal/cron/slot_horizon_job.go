package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/jvidal-dev/stokage-backend/internal/slots"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

const defaultHorizonDays = 30

type partnerSettingsReader interface {
	ListEnabledPartnerSettings(ctx context.Context) ([]models.PartnerSettings, error)
}

type siteReader interface {
	ListActiveSites(ctx context.Context, tenantID uuid.UUID) ([]models.Site, error)
}

type slotGenerator interface {
	Generate(ctx context.Context, input slots.GenerateInput) (int, error)
}

// SlotHorizonJobParams configure the rolling slot generation job.
type SlotHorizonJobParams struct {
	Logger      *logger.Logger
	Settings    partnerSettingsReader
	Sites       siteReader
	Slots       slotGenerator
	HorizonDays int
}

// NewSlotHorizonJob builds the cron job that extends the visit slot
// horizon for every site of every partner-enabled tenant.
func NewSlotHorizonJob(params SlotHorizonJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("partner settings reader required")
	}
	if params.Sites == nil {
		return nil, fmt.Errorf("site reader required")
	}
	if params.Slots == nil {
		return nil, fmt.Errorf("slot generator required")
	}
	days := params.HorizonDays
	if days <= 0 {
		days = defaultHorizonDays
	}
	return &slotHorizonJob{
		logg:     params.Logger,
		settings: params.Settings,
		sites:    params.Sites,
		slots:    params.Slots,
		days:     days,
		now:      time.Now,
	}, nil
}

type slotHorizonJob struct {
	logg     *logger.Logger
	settings partnerSettingsReader
	sites    siteReader
	slots    slotGenerator
	days     int
	now      func() time.Time
}

func (j *slotHorizonJob) Name() string { return "slot-horizon" }

func (j *slotHorizonJob) Run(ctx context.Context) error {
	rows, err := j.settings.ListEnabledPartnerSettings(ctx)
	if err != nil {
		return fmt.Errorf("list enabled partner settings: %w", err)
	}

	var combined error
	generated := 0
	for i := range rows {
		settings := rows[i]
		sites, err := j.sites.ListActiveSites(ctx, settings.TenantID)
		if err != nil {
			combined = multierr.Append(combined, fmt.Errorf("list sites for tenant %s: %w", settings.TenantID, err))
			continue
		}
		for _, site := range sites {
			count, err := j.slots.Generate(ctx, slots.GenerateInput{
				TenantID: settings.TenantID,
				SiteID:   site.ID,
				Settings: &settings,
				From:     j.now().UTC(),
				Days:     j.days,
			})
			if err != nil {
				combined = multierr.Append(combined, fmt.Errorf("generate slots for site %s: %w", site.ID, err))
				continue
			}
			generated += count
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"merchants": len(rows),
		"generated": generated,
	})
	j.logg.Info(logCtx, "slot horizon extension complete")
	return combined
}
