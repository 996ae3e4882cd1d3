// Package storage provides the SQLite-backed record buckets the enforcer
// is wired into. Writes run the marking validator inside the insert
// transaction; reads go through a lazy scan iterator that filters each
// candidate record through read authorization before yielding it.
package storage
