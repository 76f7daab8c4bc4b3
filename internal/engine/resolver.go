package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/naoTimesdev/naoTimes-sub002/internal/domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrMessageNotFound)
}

func (w *Watcher) resolveWorker() {
	for p := range w.resolveCh {
		w.resolveOne(p)
	}
}

// resolveOne runs the kind-specific terminal action for a completed poll.
// Failures are contained here: whatever happens, the persisted record is
// deleted and the poll is forgotten, so a resolved poll can never get stuck
// in memory retrying forever.
func (w *Watcher) resolveOne(p *domain.Poll) {
	ctx := context.Background()
	log := slog.With("poll_id", p.ID, "kind", p.Kind, "correlation_id", uuid.NewString())

	outcome := p.Winner()
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Resolver: handler panicked", "panic", r)
		}
		if err := w.store.Delete(ctx, domain.PollKey(p.ID)); err != nil {
			log.WarnContext(ctx, "Resolver: failed to delete poll record", "error", err)
		}
		w.sendCmd(cmdForget{pollID: p.ID})
		w.metrics.ResolutionsTotal.WithLabelValues(string(p.Kind), string(outcome.Decision)).Inc()
	}()

	switch p.Kind {
	case domain.KindKickBan:
		w.resolveKickBan(ctx, log, p, outcome)
	case domain.KindGiveaway:
		w.resolveGiveaway(ctx, log, p, outcome)
	default:
		w.resolveChoiceVote(ctx, log, p, outcome)
	}
}

func (w *Watcher) resolveChoiceVote(ctx context.Context, log *slog.Logger, p *domain.Poll, outcome domain.Outcome) {
	var content string
	switch outcome.Decision {
	case domain.DecisionTie:
		content = fmt.Sprintf("The poll has ended in a tie with %d votes total.", p.TotalVotes())
	default:
		content = fmt.Sprintf("The poll has ended! **%s** wins with %d votes.", outcome.Choice.Label, outcome.Choice.Tally)
	}
	w.announce(ctx, log, p, content)
	log.InfoContext(ctx, "Resolver: poll resolved", "decision", outcome.Decision)
}

func (w *Watcher) resolveKickBan(ctx context.Context, log *slog.Logger, p *domain.Poll, outcome domain.Outcome) {
	verb := "kicked"
	if p.Action == domain.ActionBan {
		verb = "banned"
	}

	if outcome.Decision != domain.DecisionWinner {
		w.announce(ctx, log, p, fmt.Sprintf("The vote did not pass, <@%s> is safe.", p.TargetID))
		log.InfoContext(ctx, "Resolver: kickban vote did not pass", "target", p.TargetID)
		return
	}

	reason := fmt.Sprintf("Voted out by %d members (poll %s)", outcome.Choice.Tally, p.ID)
	var err error
	if p.Action == domain.ActionBan {
		err = w.guilds.Ban(ctx, p.GuildID, p.TargetID, reason)
	} else {
		err = w.guilds.Kick(ctx, p.GuildID, p.TargetID, reason)
	}
	if err != nil {
		// Permission and HTTP failures are reported, never raised; the poll
		// is resolved either way.
		log.WarnContext(ctx, "Resolver: guild action failed", "action", p.Action, "target", p.TargetID, "error", err)
		w.announce(ctx, log, p, fmt.Sprintf("The vote passed, but I could not %s <@%s>: %v", p.Action, p.TargetID, err))
		return
	}
	w.announce(ctx, log, p, fmt.Sprintf("<@%s> has been %s with %d votes.", p.TargetID, verb, outcome.Choice.Tally))
	log.InfoContext(ctx, "Resolver: guild action executed", "action", p.Action, "target", p.TargetID)
}

func (w *Watcher) resolveGiveaway(ctx context.Context, log *slog.Logger, p *domain.Poll, outcome domain.Outcome) {
	if outcome.Decision == domain.DecisionNoParticipants {
		w.announce(ctx, log, p, fmt.Sprintf("The giveaway for **%s** ended with no participants.", p.Item))
		log.InfoContext(ctx, "Resolver: giveaway had no participants")
		return
	}

	winner, ok := w.drawParticipant(ctx, log, p)
	if !ok {
		w.announce(ctx, log, p, fmt.Sprintf("The giveaway for **%s** ended, but every participant has left the server.", p.Item))
		log.InfoContext(ctx, "Resolver: giveaway pool exhausted")
		return
	}

	link := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", p.GuildID, p.ChannelID, p.ID)
	w.announce(ctx, log, p, fmt.Sprintf("Congratulations <@%s>, you won **%s**!\nGiveaway: %s", winner, p.Item, link))
	log.InfoContext(ctx, "Resolver: giveaway winner drawn", "winner", winner)
}

// drawParticipant picks uniformly among the remaining participants,
// discarding anyone who left the guild since joining the giveaway.
func (w *Watcher) drawParticipant(ctx context.Context, log *slog.Logger, p *domain.Poll) (string, bool) {
	pool := p.Participants()
	for len(pool) > 0 {
		i := w.rng.Intn(len(pool))
		candidate := pool[i]

		exists, err := w.guilds.MemberExists(ctx, p.GuildID, candidate)
		if err != nil {
			// Membership lookup is best-effort; keep the pick.
			log.DebugContext(ctx, "Resolver: member lookup failed, keeping pick", "user_id", candidate, "error", err)
			return candidate, true
		}
		if exists {
			return candidate, true
		}
		pool = append(pool[:i], pool[i+1:]...)
	}
	return "", false
}

func (w *Watcher) announce(ctx context.Context, log *slog.Logger, p *domain.Poll, content string) {
	if _, err := w.sink.Send(ctx, p.ChannelID, content); err != nil {
		// Best-effort notification; the resolved state wins.
		log.WarnContext(ctx, "Resolver: failed to send announcement", "error", err)
	}
}
