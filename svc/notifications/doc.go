// Package notifications turns item lifecycle events into admin notifications.
//
// The item CRUD layer publishes an Event on one of three bus channels
// (item.created, item.updated, item.deleted) through Publisher. Pipeline
// subscribes to those channels and, for every message, resolves the admin
// audience, takes the next id from Sequence, builds a Notification and
// appends it to the bounded Log. Manager is the query surface used by the
// admin HTTP handlers: List, Acknowledge and Clear.
//
// Delivery is best-effort end to end. Messages published while the pipeline
// is disconnected are lost, entries evicted from the bounded log are gone,
// and a failure while handling one message is logged and never stops the
// subscription. Ids come from an atomic counter in the store and keep growing
// across Clear calls.
//
// Notification is a sum type: ItemCreated, ItemUpdated and ItemDeleted share a
// Header and each carries its own actor field (creator_user_id,
// updater_user_id, deleter_user_id on the wire). Use Decode to read one back
// from its JSON form.
package notifications
