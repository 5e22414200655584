// Package sales manages customer orders.
//
// Order creation accepts an Idempotency-Key header. Keys are claimed per
// tenant, so two tenants may reuse the same key; a repeated key within one
// tenant answers 409 without touching the database.
package sales
