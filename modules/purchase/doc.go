// Package purchase records supplier orders and their receipt.
package purchase
