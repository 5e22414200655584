// Package mongo opens tenant document stores on MongoDB.
//
// Tenants that keep documents outside their relational database carry a
// "documents" store in their registry entry: a mongodb:// URI naming the
// database. Open connects to it with the pool settings from Config and returns
// the *mongo.Database; Close disconnects it when the owning scope ends.
//
// IsTransient feeds the connection factory's retry decorator.
package mongo
