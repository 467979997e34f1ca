// Package slot provides the durable key-value slot that holds the serialized
// record list. A Slot stores exactly one value under one key and only
// supports whole-value replacement; there is no sub-key addressing.
//
// Backends:
//   - File     - <dir>/<key>.json, replaced atomically with renameio
//   - Memory   - process-local, used by tests and backend "memory"
//   - Gorm     - one row in the kv_slots table (Postgres via gorm)
//
// Open(cfg) builds the backend named by the storage config.
package slot
