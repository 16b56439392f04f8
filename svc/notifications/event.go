package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the lifecycle transition an Event describes.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Bus channels carrying lifecycle events, one per Kind.
const (
	ChannelItemCreated = "item.created"
	ChannelItemUpdated = "item.updated"
	ChannelItemDeleted = "item.deleted"
)

// Channels lists every lifecycle channel the pipeline consumes.
var Channels = []string{ChannelItemCreated, ChannelItemUpdated, ChannelItemDeleted}

// Channel returns the bus channel for k.
func (k Kind) Channel() string {
	switch k {
	case KindCreated:
		return ChannelItemCreated
	case KindUpdated:
		return ChannelItemUpdated
	case KindDeleted:
		return ChannelItemDeleted
	}
	return ""
}

// KindForChannel maps a bus channel back to its Kind.
func KindForChannel(channel string) (Kind, error) {
	switch channel {
	case ChannelItemCreated:
		return KindCreated, nil
	case ChannelItemUpdated:
		return KindUpdated, nil
	case ChannelItemDeleted:
		return KindDeleted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
}

// Change is one field diff. Values are kept as raw JSON so they round-trip
// unchanged whatever their type.
type Change struct {
	From json.RawMessage `json:"from"`
	To   json.RawMessage `json:"to"`
}

// Changes maps a field name to its diff.
type Changes map[string]Change

// Event is an item lifecycle event as carried on the bus. The kind is implied
// by the channel and is not part of the payload.
type Event struct {
	Kind        Kind
	ItemID      int64
	ItemName    string
	ActorUserID int64
	Changes     Changes
}

type wireEvent struct {
	ID      *int64  `json:"id"`
	Name    string  `json:"name"`
	UserID  *int64  `json:"user_id"`
	Changes Changes `json:"changes,omitempty"`
}

// MarshalJSON encodes the channel payload: {"id","name","user_id","changes"?}.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{
		ID:      &e.ItemID,
		Name:    e.ItemName,
		UserID:  &e.ActorUserID,
		Changes: e.Changes,
	})
}

// DecodeEvent parses a payload received on channel. Payloads that are not
// JSON objects or lack id/user_id are rejected with ErrMalformedEvent.
func DecodeEvent(channel string, payload []byte) (Event, error) {
	kind, err := KindForChannel(channel)
	if err != nil {
		return Event{}, err
	}

	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return Event{}, errors.Join(ErrMalformedEvent, err)
	}
	if w.ID == nil {
		return Event{}, fmt.Errorf("%w: missing id", ErrMalformedEvent)
	}
	if w.UserID == nil {
		return Event{}, fmt.Errorf("%w: missing user_id", ErrMalformedEvent)
	}

	return Event{
		Kind:        kind,
		ItemID:      *w.ID,
		ItemName:    w.Name,
		ActorUserID: *w.UserID,
		Changes:     w.Changes,
	}, nil
}
