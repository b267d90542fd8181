package services

import (
	"strings"
	"time"

	"contracthub/contexts/rewards/reward-engine/domain/entities"
)

// IsActive reports whether event is switched on and now falls inside its
// optional window. Both bounds are inclusive.
func IsActive(event entities.Event, now time.Time) bool {
	if !event.Enabled {
		return false
	}
	if event.StartAt != nil && now.Before(*event.StartAt) {
		return false
	}
	if event.EndAt != nil && now.After(*event.EndAt) {
		return false
	}
	return true
}

// AppliesToScope decides whether a participant in classID/orgID is covered.
// An org mismatch excludes the event even when its scope is global.
func AppliesToScope(event entities.Event, classID string, orgID string) bool {
	eventOrg := strings.TrimSpace(event.OrgID)
	orgID = strings.TrimSpace(orgID)
	if eventOrg != "" && orgID != "" && eventOrg != orgID {
		return false
	}

	scope := strings.TrimSpace(event.Scope)
	if entities.IsAllScope(scope) {
		return true
	}

	eventClass := strings.TrimSpace(event.ClassID)
	classes := trimmed(event.ClassIDs)
	if scope == "" && eventClass == "" && len(classes) == 0 {
		return true
	}

	classID = strings.TrimSpace(classID)
	if classID == "" {
		return false
	}
	if eventClass == classID {
		return true
	}
	for _, candidate := range classes {
		if candidate == classID {
			return true
		}
	}
	// A scope that is neither an alias nor a list keyword names one class.
	switch entities.NormalizeToken(scope) {
	case "", "class", "classes", "specific":
		return false
	}
	return scope == classID
}

// AppliesToType reports whether event boosts submissions of kind. An empty
// type list means no restriction.
func AppliesToType(event entities.Event, kind entities.SubmissionType) bool {
	if len(event.AppliesToTypes) == 0 {
		return true
	}
	for _, raw := range event.AppliesToTypes {
		if entities.IsAllTypes(raw) {
			return true
		}
		parsed, err := entities.ParseSubmissionType(raw)
		if err == nil && parsed == kind {
			return true
		}
	}
	return false
}

// ActiveEventsFor keeps the events that are live, in scope and applicable,
// preserving input order.
func ActiveEventsFor(
	events []entities.Event,
	now time.Time,
	classID string,
	orgID string,
	kind entities.SubmissionType,
) []entities.Event {
	out := make([]entities.Event, 0, len(events))
	for _, event := range events {
		if !IsActive(event, now) || !AppliesToScope(event, classID, orgID) || !AppliesToType(event, kind) {
			continue
		}
		out = append(out, event)
	}
	return out
}

// ExcludeClaimed drops one-time events the user already consumed.
func ExcludeClaimed(events []entities.Event, claimedIDs []string) []entities.Event {
	if len(claimedIDs) == 0 {
		return append([]entities.Event(nil), events...)
	}
	claimed := make(map[string]struct{}, len(claimedIDs))
	for _, id := range claimedIDs {
		claimed[strings.TrimSpace(id)] = struct{}{}
	}
	out := make([]entities.Event, 0, len(events))
	for _, event := range events {
		if event.OneTimePerUser {
			if _, ok := claimed[strings.TrimSpace(event.EventID)]; ok {
				continue
			}
		}
		out = append(out, event)
	}
	return out
}

func trimmed(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
