package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// ItemID records the catalog item identifier under the key "item_id".
func ItemID(id int64) slog.Attr {
	return slog.Int64("item_id", id)
}

// NotificationID records the admin notification sequence id.
func NotificationID(id uint64) slog.Attr {
	return slog.Uint64("notification_id", id)
}

// Channel records the event bus channel name.
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// Key records a key-value store key.
func Key(key string) slog.Attr {
	return slog.String("key", key)
}

// Operation records the name of a store or bus operation.
func Operation(op string) slog.Attr {
	return slog.String("op", op)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// ConsumerID records the identifier of an event consumer instance.
func ConsumerID(id string) slog.Attr {
	return slog.String("consumer_id", id)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
