// Package store groups the health resource stores. Each subpackage has an
// in-memory and a Postgres implementation of the same methods.
package store
