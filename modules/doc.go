// Package modules mounts the business modules. Each subpackage owns one
// business area and reaches its data only through a dbconn source, so every
// query runs against the database of the tenant bound to the current scope.
package modules
