// Package discord adapts the discordgo gateway and REST API to the engine's
// interfaces: reaction events in, message sends/edits and guild moderation
// actions out.
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/naoTimesdev/naoTimes-sub002/internal/domain"
)

// ReactionHandler receives every reaction add/remove seen by the gateway.
type ReactionHandler interface {
	HandleReaction(ev domain.ReactionEvent)
}

// Gateway owns the discordgo session.
type Gateway struct {
	session *discordgo.Session
}

func NewGateway(token string) (*Gateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentGuildMembers

	return &Gateway{session: session}, nil
}

// BindReactions forwards reaction events to the handler. The bot's own
// reactions (seeding the poll message with its choice emojis) are dropped
// here so they never count as votes.
func (g *Gateway) BindReactions(h ReactionHandler) {
	g.session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageReactionAdd) {
		if s.State.User != nil && e.UserID == s.State.User.ID {
			return
		}
		h.HandleReaction(domain.ReactionEvent{
			MessageID: e.MessageID,
			UserID:    e.UserID,
			Emoji:     e.Emoji.Name,
			Added:     true,
		})
	})
	g.session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageReactionRemove) {
		if s.State.User != nil && e.UserID == s.State.User.ID {
			return
		}
		h.HandleReaction(domain.ReactionEvent{
			MessageID: e.MessageID,
			UserID:    e.UserID,
			Emoji:     e.Emoji.Name,
			Added:     false,
		})
	})
}

// Open connects to the gateway.
func (g *Gateway) Open() error {
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (g *Gateway) Close() error {
	return g.session.Close()
}
