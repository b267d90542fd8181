package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"contracthub/contexts/rewards/reward-engine/domain/entities"
	domainerrors "contracthub/contexts/rewards/reward-engine/domain/errors"

	"gopkg.in/yaml.v3"
)

type Catalog struct {
	mu     sync.RWMutex
	events map[string]entities.Event
}

func NewCatalog(seed []entities.Event) *Catalog {
	events := make(map[string]entities.Event, len(seed))
	for _, event := range seed {
		events[strings.TrimSpace(event.EventID)] = event.Clone()
	}
	return &Catalog{events: events}
}

func (c *Catalog) PutEvent(event entities.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[strings.TrimSpace(event.EventID)] = event.Clone()
	return nil
}

// ListEvents returns events ordered by id so settlement draws happen in a
// stable order.
func (c *Catalog) ListEvents(_ context.Context) ([]entities.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]entities.Event, 0, len(c.events))
	for _, event := range c.events {
		items = append(items, event.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].EventID < items[j].EventID
	})
	return items, nil
}

func (c *Catalog) GetEvent(_ context.Context, eventID string) (entities.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	event, ok := c.events[strings.TrimSpace(eventID)]
	if !ok {
		return entities.Event{}, domainerrors.ErrEventNotFound
	}
	return event.Clone(), nil
}

type seedDocument struct {
	Events []seedEvent `yaml:"events"`
}

type seedEvent struct {
	EventID         string     `yaml:"event_id"`
	Name            string     `yaml:"name"`
	Enabled         *bool      `yaml:"enabled"`
	StartAt         *time.Time `yaml:"start_at"`
	EndAt           *time.Time `yaml:"end_at"`
	OrgID           string     `yaml:"org_id"`
	ClassID         string     `yaml:"class_id"`
	Scope           string     `yaml:"scope"`
	ClassIDs        []string   `yaml:"class_ids"`
	AppliesToTypes  []string   `yaml:"applies_to_types"`
	OneTimePerUser  bool       `yaml:"one_time_per_user"`
	XPPercent       int        `yaml:"xp_percent"`
	CurrencyPercent int        `yaml:"currency_percent"`
	FlatCurrency    int64      `yaml:"flat_currency_bonus"`
	RandomCurrency  *seedRange `yaml:"random_currency_bonus"`
}

type seedRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// LoadEventsFile reads the events section of a seed file. An empty path
// yields no events. Enabled defaults to true when omitted.
func LoadEventsFile(path string) ([]entities.Event, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseEvents(raw)
}

func ParseEvents(raw []byte) ([]entities.Event, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	events := make([]entities.Event, 0, len(doc.Events))
	for _, item := range doc.Events {
		event := entities.Event{
			EventID:           strings.TrimSpace(item.EventID),
			Name:              strings.TrimSpace(item.Name),
			Enabled:           item.Enabled == nil || *item.Enabled,
			StartAt:           item.StartAt,
			EndAt:             item.EndAt,
			OrgID:             strings.TrimSpace(item.OrgID),
			ClassID:           strings.TrimSpace(item.ClassID),
			Scope:             strings.TrimSpace(item.Scope),
			ClassIDs:          item.ClassIDs,
			AppliesToTypes:    item.AppliesToTypes,
			OneTimePerUser:    item.OneTimePerUser,
			XPPercent:         item.XPPercent,
			CurrencyPercent:   item.CurrencyPercent,
			FlatCurrencyBonus: item.FlatCurrency,
		}
		if item.RandomCurrency != nil {
			event.RandomCurrencyBonus = &entities.RandomRange{Min: item.RandomCurrency.Min, Max: item.RandomCurrency.Max}
		}
		if err := event.Validate(); err != nil {
			return nil, fmt.Errorf("event %q: %w", item.EventID, err)
		}
		events = append(events, event)
	}
	return events, nil
}
