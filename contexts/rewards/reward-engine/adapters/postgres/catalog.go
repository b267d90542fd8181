package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"contracthub/contexts/rewards/reward-engine/domain/entities"
	domainerrors "contracthub/contexts/rewards/reward-engine/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type eventModel struct {
	EventID           string     `gorm:"column:event_id;primaryKey"`
	Name              string     `gorm:"column:name"`
	Enabled           bool       `gorm:"column:enabled"`
	StartAt           *time.Time `gorm:"column:start_at"`
	EndAt             *time.Time `gorm:"column:end_at"`
	OrgID             string     `gorm:"column:org_id"`
	ClassID           string     `gorm:"column:class_id"`
	Scope             string     `gorm:"column:scope"`
	ClassIDs          []byte     `gorm:"column:class_ids;type:jsonb"`
	AppliesToTypes    []byte     `gorm:"column:applies_to_types;type:jsonb"`
	OneTimePerUser    bool       `gorm:"column:one_time_per_user"`
	XPPercent         int        `gorm:"column:xp_percent"`
	CurrencyPercent   int        `gorm:"column:currency_percent"`
	FlatCurrencyBonus int64      `gorm:"column:flat_currency_bonus"`
	RandomMin         *int64     `gorm:"column:random_currency_min"`
	RandomMax         *int64     `gorm:"column:random_currency_max"`
}

func (eventModel) TableName() string {
	return "reward_events"
}

// Catalog reads event definitions from reward_events. Authoring happens
// elsewhere; this side never writes.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) ListEvents(ctx context.Context) ([]entities.Event, error) {
	var rows []eventModel
	if err := c.db.WithContext(ctx).Order("event_id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	items := make([]entities.Event, 0, len(rows))
	for _, row := range rows {
		event, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, event)
	}
	return items, nil
}

func (c *Catalog) GetEvent(ctx context.Context, eventID string) (entities.Event, error) {
	var row eventModel
	if err := c.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Event{}, domainerrors.ErrEventNotFound
		}
		return entities.Event{}, mapError(err)
	}
	return row.toEntity()
}

func (m eventModel) toEntity() (entities.Event, error) {
	event := entities.Event{
		EventID:           m.EventID,
		Name:              m.Name,
		Enabled:           m.Enabled,
		StartAt:           utcPointer(m.StartAt),
		EndAt:             utcPointer(m.EndAt),
		OrgID:             m.OrgID,
		ClassID:           m.ClassID,
		Scope:             m.Scope,
		OneTimePerUser:    m.OneTimePerUser,
		XPPercent:         m.XPPercent,
		CurrencyPercent:   m.CurrencyPercent,
		FlatCurrencyBonus: m.FlatCurrencyBonus,
	}
	if len(m.ClassIDs) > 0 {
		if err := json.Unmarshal(m.ClassIDs, &event.ClassIDs); err != nil {
			return entities.Event{}, err
		}
	}
	if len(m.AppliesToTypes) > 0 {
		if err := json.Unmarshal(m.AppliesToTypes, &event.AppliesToTypes); err != nil {
			return entities.Event{}, err
		}
	}
	if m.RandomMin != nil && m.RandomMax != nil {
		event.RandomCurrencyBonus = &entities.RandomRange{Min: *m.RandomMin, Max: *m.RandomMax}
	}
	return event, nil
}

func utcPointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "57P01",
			strings.HasPrefix(pgErr.Code, "08"):
			return domainerrors.Transient(err)
		}
		return err
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return domainerrors.Transient(err)
	}
	return err
}
