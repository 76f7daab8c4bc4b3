package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Guild implements domain.GuildActions over the discordgo REST API.
type Guild struct {
	session *discordgo.Session
}

func NewGuild(g *Gateway) *Guild {
	return &Guild{session: g.session}
}

func (g *Guild) Kick(ctx context.Context, guildID, userID, reason string) error {
	err := g.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to kick member: %w", err)
	}
	return nil
}

func (g *Guild) Ban(ctx context.Context, guildID, userID, reason string) error {
	err := g.session.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ban member: %w", err)
	}
	return nil
}

func (g *Guild) MemberExists(ctx context.Context, guildID, userID string) (bool, error) {
	_, err := g.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMember {
		return false, nil
	}
	return false, fmt.Errorf("failed to fetch member: %w", err)
}
