// Package store provides the SQLite-backed edit outbox.
//
// The engine keeps its dataset in memory only. Flushed edits are appended
// here so an external sync collaborator can apply them upstream and ack them.
//
// # Ordering
//
// Pending edits are read ORDER BY seq ASC, id ASC COLLATE BINARY, so a
// replay applies cell changes in the order the tracker stamped them.
//
// # Idempotency
//
// Edit ids are unique (UUIDv7). Writing the same edit twice is a no-op, so a
// crashed flush can simply be retried.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package store
