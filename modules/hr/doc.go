// Package hr manages employee records. It is written against database/sql;
// the connection is a *sql.DB opened per unit of work by dbconn.NewSQL.
package hr
