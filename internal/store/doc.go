// Package store holds the database access abstractions shared by the
// benchmark workloads and the server: the DBTX interface, the common
// persistence errors and transaction handling.
package store
