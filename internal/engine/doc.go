// Package engine runs the poll lifecycle: the registry of active polls, the
// reaction dispatcher, the completion scheduler and the per-kind resolution
// handlers.
//
// A single actor goroutine owns all poll state. Reaction events, scheduler
// ticks and tracking commands arrive over one command channel, so two events
// for the same poll can never interleave their mutation and completion-check
// sequence. Slow I/O (snapshot writes, message edits, announcements, guild
// actions) runs on dedicated workers fed by their own channels and never
// blocks tallying.
package engine
