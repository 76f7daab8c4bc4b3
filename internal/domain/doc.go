// Package domain holds the poll aggregate and the interfaces the engine
// consumes from the outside world.
//
// A Poll owns its vote bookkeeping: single vote per user, no self-votes,
// cached tallies that never drift from the voter sets. The package is pure
// logic with no I/O; adapters implement the Store, MessageSink and
// GuildActions interfaces declared here.
package domain
