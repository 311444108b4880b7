// Package store defines the storage contract backing the virtual
// filesystem.
//
// The engine is written against the Store interface only. Two backends
// ship with the service: a jailed on-disk store (store/local) and a
// capacity-capped in-memory store (store/memory). Backends translate
// their native failures into the package sentinel errors so the error
// classifier can map them to stable codes without knowing the backend.
package store
