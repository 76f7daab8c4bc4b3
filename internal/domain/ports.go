package domain

import "context"

// KV is one key/value pair from a Store prefix scan.
type KV struct {
	Key   string
	Value []byte
}

// Store is the crash-recovery snapshot store. It is never authoritative over
// the in-memory registry while the process runs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Scan(ctx context.Context, prefix string) ([]KV, error)
}

// ReactionEvent is one reaction add/remove delivered by the gateway.
// Delivery is at least once and may duplicate.
type ReactionEvent struct {
	MessageID string
	UserID    string
	Emoji     string
	Added     bool
}

// MessageSink sends and edits poll messages. Edit and Fetch return
// ErrMessageNotFound when the message was deleted externally.
type MessageSink interface {
	Send(ctx context.Context, channelID, content string) (messageID string, err error)
	Edit(ctx context.Context, channelID, messageID, content string) error
	Fetch(ctx context.Context, channelID, messageID string) error
}

// GuildActions executes moderation actions for KickBan polls and answers
// membership checks for giveaway draws.
type GuildActions interface {
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
	MemberExists(ctx context.Context, guildID, userID string) (bool, error)
}
