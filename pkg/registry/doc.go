// Package registry provides tenant registry implementations.
//
// Postgres reads the tenants table of the platform database (created by the
// pg package migrations). Memory keeps entries in process and can be seeded
// from a YAML file, which is what development setups and tests use.
//
// Both implement tenant.Registry for the resolver and Admin for platform
// administration. Upsert and Deactivate publish a change event through the
// configured Notifier so every process drops its cached copy.
package registry
