package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Type is the wire discriminator of a Notification.
type Type string

const (
	TypeItemCreated Type = "ITEM_CREATED"
	TypeItemUpdated Type = "ITEM_UPDATED"
	TypeItemDeleted Type = "ITEM_DELETED"
)

// Header holds the fields every notification carries.
type Header struct {
	ID        uint64  `json:"id"`
	ItemID    int64   `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Changes   Changes `json:"changes"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds, taken at consumption time
}

// Notification is implemented by ItemCreated, ItemUpdated and ItemDeleted only.
type Notification interface {
	Type() Type
	Base() Header
	// Actor is the user who performed the action, whatever its role name.
	Actor() int64
	isNotification()
}

type ItemCreated struct {
	Header
	CreatorUserID int64 `json:"creator_user_id"`
}

type ItemUpdated struct {
	Header
	UpdaterUserID int64 `json:"updater_user_id"`
}

type ItemDeleted struct {
	Header
	DeleterUserID int64 `json:"deleter_user_id"`
}

func (n ItemCreated) Type() Type   { return TypeItemCreated }
func (n ItemCreated) Base() Header { return n.Header }
func (n ItemCreated) Actor() int64 { return n.CreatorUserID }
func (ItemCreated) isNotification() {}

func (n ItemUpdated) Type() Type   { return TypeItemUpdated }
func (n ItemUpdated) Base() Header { return n.Header }
func (n ItemUpdated) Actor() int64 { return n.UpdaterUserID }
func (ItemUpdated) isNotification() {}

func (n ItemDeleted) Type() Type   { return TypeItemDeleted }
func (n ItemDeleted) Base() Header { return n.Header }
func (n ItemDeleted) Actor() int64 { return n.DeleterUserID }
func (ItemDeleted) isNotification() {}

func (n ItemCreated) MarshalJSON() ([]byte, error) {
	type plain ItemCreated
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeItemCreated, plain(n)})
}

func (n ItemUpdated) MarshalJSON() ([]byte, error) {
	type plain ItemUpdated
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeItemUpdated, plain(n)})
}

func (n ItemDeleted) MarshalJSON() ([]byte, error) {
	type plain ItemDeleted
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeItemDeleted, plain(n)})
}

// NewNotification builds the notification for ev with the given sequence id.
func NewNotification(id uint64, ev Event, at time.Time) (Notification, error) {
	h := Header{
		ID:        id,
		ItemID:    ev.ItemID,
		ItemName:  ev.ItemName,
		Changes:   ev.Changes,
		Timestamp: at.UnixMilli(),
	}

	switch ev.Kind {
	case KindCreated:
		return ItemCreated{Header: h, CreatorUserID: ev.ActorUserID}, nil
	case KindUpdated:
		return ItemUpdated{Header: h, UpdaterUserID: ev.ActorUserID}, nil
	case KindDeleted:
		return ItemDeleted{Header: h, DeleterUserID: ev.ActorUserID}, nil
	}
	return nil, fmt.Errorf("%w: kind %q", ErrUnknownType, ev.Kind)
}

// Decode reads a notification from its JSON form, dispatching on "type".
func Decode(data []byte) (Notification, error) {
	var probe struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Join(ErrMalformedNotification, err)
	}

	var (
		n   Notification
		err error
	)
	switch probe.Type {
	case TypeItemCreated:
		var v ItemCreated
		err = json.Unmarshal(data, &v)
		n = v
	case TypeItemUpdated:
		var v ItemUpdated
		err = json.Unmarshal(data, &v)
		n = v
	case TypeItemDeleted:
		var v ItemDeleted
		err = json.Unmarshal(data, &v)
		n = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, probe.Type)
	}
	if err != nil {
		return nil, errors.Join(ErrMalformedNotification, err)
	}
	return n, nil
}

// peekID reads only the id of an encoded notification.
func peekID(data string) (uint64, bool) {
	var probe struct {
		ID *uint64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(data), &probe); err != nil || probe.ID == nil {
		return 0, false
	}
	return *probe.ID, true
}
