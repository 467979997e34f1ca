// Package record persists calculation snapshots as an ordered list of
// Records in a single durable slot.
//
// Every operation is a complete load-mutate-persist cycle over the whole
// list, serialised by a mutex. LoadAll is fail-soft: a missing, unreadable or
// malformed blob reads as an empty list, and the next Save overwrites it.
//
// Record ids are ISO-8601 UTC timestamps with millisecond precision. When the
// clock has not moved past the last issued id, or the id is already taken,
// the timestamp is advanced by one millisecond so ids stay unique and sorted.
package record
