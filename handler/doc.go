// Package handler adapts typed request handlers to net/http for the business
// module routers.
//
//	r.Post("/products", handler.Handle(svc.create,
//		handler.WithBinder(handler.BindJSON()),
//		handler.WithModule("inventory"),
//	))
//
// Responses use a single JSON envelope. Errors are classified by status:
// tenant resolution errors keep the middleware's mapping, a missing tenant
// context at data access is a 500, and a tenant database that cannot be
// opened is a 503. Internal error text is logged, never sent to clients.
package handler
