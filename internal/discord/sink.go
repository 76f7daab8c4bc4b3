package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/naoTimesdev/naoTimes-sub002/internal/domain"
)

// editsPerSecond keeps the periodic embed refresh under Discord's per-channel
// rate limits even with many concurrent polls.
const editsPerSecond = 4

// Sink implements domain.MessageSink over the discordgo REST API.
type Sink struct {
	session *discordgo.Session
	limiter *rate.Limiter
}

func NewSink(g *Gateway) *Sink {
	return &Sink{
		session: g.session,
		limiter: rate.NewLimiter(rate.Limit(editsPerSecond), editsPerSecond),
	}
}

func (s *Sink) Send(ctx context.Context, channelID, content string) (string, error) {
	msg, err := s.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", mapNotFound(err))
	}
	return msg.ID, nil
}

func (s *Sink) Edit(ctx context.Context, channelID, messageID, content string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
	if err != nil {
		return mapNotFound(err)
	}
	return nil
}

func (s *Sink) Fetch(ctx context.Context, channelID, messageID string) error {
	_, err := s.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return mapNotFound(err)
	}
	return nil
}

// mapNotFound converts Discord's unknown-message/channel REST errors into
// the domain sentinel the engine treats as an early-resolution signal.
func mapNotFound(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return domain.ErrMessageNotFound
		}
	}
	return err
}
