// Package inventory tracks products and stock levels.
//
// Every operation runs against the database of the tenant bound to the current
// unit of work; the Store gets its connection from a dbconn source and never
// sees a connection string.
//
//	f, _ := dbconn.NewPgx(inventory.ModuleName)
//	svc := inventory.NewService(inventory.NewStore[*pgx.Conn](f), log)
//	r.Mount("/inventory", svc.Handle())
package inventory
