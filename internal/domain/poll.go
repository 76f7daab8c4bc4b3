package domain

import (
	"fmt"
	"time"
)

// Kind discriminates the poll variants.
type Kind string

const (
	KindMultiple Kind = "multiple"
	KindYesNo    Kind = "yesno"
	KindKickBan  Kind = "kickban"
	KindGiveaway Kind = "giveaway"
)

// Action is the moderation action a KickBan poll crowd-sources.
type Action string

const (
	ActionKick Action = "kick"
	ActionBan  Action = "ban"
)

const (
	// MinKickBanLimit is the smallest accepted vote threshold for a
	// KickBan poll.
	MinKickBanLimit = 5

	// MinDuration is the shortest accepted poll runtime.
	MinDuration = 3 * time.Minute

	// Canonical choice keys for the two-option kinds.
	ChoiceYes     = "y"
	ChoiceNo      = "n"
	ChoiceConfirm = "confirm"
	ChoiceDeny    = "deny"
	ChoiceJoin    = "join"
)

// Choice is one selectable option within a poll. Tally is a cached count and
// is recomputed from Voters on every mutation.
type Choice struct {
	Key    string
	Label  string
	Emoji  string
	Tally  int
	Voters []string
}

func (c *Choice) hasVoter(userID string) bool {
	for _, v := range c.Voters {
		if v == userID {
			return true
		}
	}
	return false
}

func (c *Choice) removeVoter(userID string) {
	for i, v := range c.Voters {
		if v == userID {
			c.Voters = append(c.Voters[:i], c.Voters[i+1:]...)
			return
		}
	}
}

// Poll is the aggregate root of a single vote, kick-vote, ban-vote or
// giveaway. Its identifier is the identifier of the Discord message carrying
// the poll, which doubles as the persistence key.
type Poll struct {
	ID          string
	GuildID     string
	ChannelID   string
	RequesterID string
	Kind        Kind

	// KickBan only.
	Action   Action
	TargetID string
	Limit    int

	// Giveaway only.
	Item string

	Choices   []Choice
	Deadline  time.Time
	CreatedAt time.Time

	resolved bool
}

type pollParams struct {
	id, guildID, channelID, requesterID string
	deadline, now                       time.Time
}

func (p pollParams) validate() error {
	if p.id == "" || p.channelID == "" || p.requesterID == "" {
		return fmt.Errorf("poll id, channel and requester are required")
	}
	if p.deadline.Sub(p.now) < MinDuration {
		return fmt.Errorf("poll must run for at least %s", MinDuration)
	}
	return nil
}

// NewMultiplePoll creates a multiple-choice poll with 2-10 choices.
func NewMultiplePoll(id, guildID, channelID, requesterID string, choices []Choice, deadline, now time.Time) (*Poll, error) {
	params := pollParams{id, guildID, channelID, requesterID, deadline, now}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(choices) < 2 || len(choices) > 10 {
		return nil, fmt.Errorf("multiple-choice poll needs 2-10 choices, got %d", len(choices))
	}
	seen := make(map[string]struct{}, len(choices))
	for _, c := range choices {
		if _, dup := seen[c.Key]; dup {
			return nil, fmt.Errorf("duplicate choice key %q", c.Key)
		}
		seen[c.Key] = struct{}{}
	}
	return &Poll{
		ID:          id,
		GuildID:     guildID,
		ChannelID:   channelID,
		RequesterID: requesterID,
		Kind:        KindMultiple,
		Choices:     resetChoices(choices),
		Deadline:    deadline,
		CreatedAt:   now,
	}, nil
}

// NewYesNoPoll creates a two-option yes/no poll.
func NewYesNoPoll(id, guildID, channelID, requesterID string, deadline, now time.Time) (*Poll, error) {
	params := pollParams{id, guildID, channelID, requesterID, deadline, now}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Poll{
		ID:          id,
		GuildID:     guildID,
		ChannelID:   channelID,
		RequesterID: requesterID,
		Kind:        KindYesNo,
		Choices: []Choice{
			{Key: ChoiceYes, Label: "Yes", Emoji: "✅"},
			{Key: ChoiceNo, Label: "No", Emoji: "❌"},
		},
		Deadline:  deadline,
		CreatedAt: now,
	}, nil
}

// NewKickBanPoll creates a kick or ban vote against target. The poll
// completes as soon as either side reaches limit, or at the deadline.
func NewKickBanPoll(id, guildID, channelID, requesterID string, action Action, targetID string, limit int, deadline, now time.Time) (*Poll, error) {
	params := pollParams{id, guildID, channelID, requesterID, deadline, now}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if action != ActionKick && action != ActionBan {
		return nil, fmt.Errorf("unknown moderation action %q", action)
	}
	if targetID == "" {
		return nil, fmt.Errorf("kickban poll needs a target user")
	}
	if limit < MinKickBanLimit {
		return nil, fmt.Errorf("kickban limit must be at least %d, got %d", MinKickBanLimit, limit)
	}
	return &Poll{
		ID:          id,
		GuildID:     guildID,
		ChannelID:   channelID,
		RequesterID: requesterID,
		Kind:        KindKickBan,
		Action:      action,
		TargetID:    targetID,
		Limit:       limit,
		Choices: []Choice{
			{Key: ChoiceConfirm, Label: "Confirm", Emoji: "✅"},
			{Key: ChoiceDeny, Label: "Deny", Emoji: "❌"},
		},
		Deadline:  deadline,
		CreatedAt: now,
	}, nil
}

// NewGiveawayPoll creates a giveaway with a single join choice; the winner is
// drawn among its voters at the deadline.
func NewGiveawayPoll(id, guildID, channelID, requesterID, item string, deadline, now time.Time) (*Poll, error) {
	params := pollParams{id, guildID, channelID, requesterID, deadline, now}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if item == "" {
		return nil, fmt.Errorf("giveaway poll needs an item")
	}
	return &Poll{
		ID:          id,
		GuildID:     guildID,
		ChannelID:   channelID,
		RequesterID: requesterID,
		Kind:        KindGiveaway,
		Item:        item,
		Choices: []Choice{
			{Key: ChoiceJoin, Label: "Join", Emoji: "\U0001f389"},
		},
		Deadline:  deadline,
		CreatedAt: now,
	}, nil
}

func resetChoices(choices []Choice) []Choice {
	out := make([]Choice, len(choices))
	for i, c := range choices {
		out[i] = Choice{Key: c.Key, Label: c.Label, Emoji: c.Emoji}
	}
	return out
}

// AddVote records a vote by userID for the given choice key.
func (p *Poll) AddVote(userID, choiceKey string) error {
	if p.resolved {
		return ErrPollResolved
	}
	if userID == p.RequesterID {
		return ErrSelfVote
	}
	for i := range p.Choices {
		if p.Choices[i].hasVoter(userID) {
			return ErrAlreadyVoted
		}
	}
	c := p.choice(choiceKey)
	if c == nil {
		return ErrUnknownChoice
	}
	c.Voters = append(c.Voters, userID)
	c.Tally = len(c.Voters)
	return nil
}

// RemoveVote withdraws a vote. Removal on an already-resolved poll is a
// silent no-op so late un-react events never error.
func (p *Poll) RemoveVote(userID, choiceKey string) error {
	if p.resolved {
		return nil
	}
	c := p.choice(choiceKey)
	if c == nil {
		return ErrUnknownChoice
	}
	if !c.hasVoter(userID) {
		return ErrNotVoted
	}
	c.removeVoter(userID)
	c.Tally = len(c.Voters)
	return nil
}

// IsComplete reports whether the poll should resolve at the given time.
// KickBan polls additionally complete once either side reaches the limit.
func (p *Poll) IsComplete(now time.Time) bool {
	if p.resolved {
		return true
	}
	if !now.Before(p.Deadline) {
		return true
	}
	if p.Kind == KindKickBan {
		for i := range p.Choices {
			if p.Choices[i].Tally >= p.Limit {
				return true
			}
		}
	}
	return false
}

// MarkResolved flips the poll to its terminal state. It returns true only on
// the first call, so a removal event racing with a completion trigger cannot
// enter resolution twice.
func (p *Poll) MarkResolved() bool {
	if p.resolved {
		return false
	}
	p.resolved = true
	return true
}

// Resolved reports whether the poll reached its terminal state.
func (p *Poll) Resolved() bool {
	return p.resolved
}

// ChoiceByEmoji maps a reaction emoji to a choice key.
func (p *Poll) ChoiceByEmoji(emoji string) (string, bool) {
	for i := range p.Choices {
		if p.Choices[i].Emoji == emoji {
			return p.Choices[i].Key, true
		}
	}
	return "", false
}

// TotalVotes is the sum of all choice tallies.
func (p *Poll) TotalVotes() int {
	total := 0
	for i := range p.Choices {
		total += p.Choices[i].Tally
	}
	return total
}

// Participants returns the voters of a giveaway's join choice, in the order
// they joined.
func (p *Poll) Participants() []string {
	if p.Kind != KindGiveaway || len(p.Choices) == 0 {
		return nil
	}
	out := make([]string, len(p.Choices[0].Voters))
	copy(out, p.Choices[0].Voters)
	return out
}

func (p *Poll) choice(key string) *Choice {
	for i := range p.Choices {
		if p.Choices[i].Key == key {
			return &p.Choices[i]
		}
	}
	return nil
}
