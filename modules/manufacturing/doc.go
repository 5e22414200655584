// Package manufacturing plans and tracks work orders.
//
// Work orders live in the tenant's document database, the "documents" entry
// of the tenant's stores, not in its primary relational database. A tenant
// without that store fails at data access with dbconn.ErrConnectionUnavailable.
package manufacturing
