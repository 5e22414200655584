// Package crm keeps customer contacts in the tenant's primary database.
package crm
