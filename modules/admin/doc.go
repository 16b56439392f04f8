// Package admin mounts the HTTP surface over the notification manager, the
// like service and the user count cache.
//
// Routes:
//
//	GET    /admin/notifications        list retained notifications, oldest first
//	DELETE /admin/notifications/{id}   acknowledge one notification (404 when unknown)
//	DELETE /admin/notifications        clear the log
//	GET    /admin/stats/users          cached total user count
//	POST   /items/{id}/like            toggle the caller's like
//	GET    /items/{id}/likes           like count for an item
//
// Authentication is delegated to an IdentityFunc. /admin routes answer 403 to
// non-admins. Every response body is a JSON envelope {"data": ..., "error": ...}.
package admin
