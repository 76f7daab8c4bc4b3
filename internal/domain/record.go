package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// KeyPrefix namespaces every persisted poll record.
const KeyPrefix = "poll:"

// PollKey builds the store key for a poll id.
func PollKey(id string) string {
	return KeyPrefix + id
}

type choiceRecord struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Emoji  string   `json:"emoji"`
	Tally  int      `json:"tally"`
	Voters []string `json:"voters"`
}

type pollRecord struct {
	ID        string         `json:"id"`
	Guild     string         `json:"guild"`
	Channel   string         `json:"channel"`
	Requester string         `json:"requester"`
	Kind      Kind           `json:"kind"`
	Choices   []choiceRecord `json:"choices"`
	Deadline  int64          `json:"deadline"`
	CreatedAt int64          `json:"created_at"`
	Limit     *int           `json:"limit"`
	Target    *string        `json:"target"`
	Item      *string        `json:"item"`
	Action    *Action        `json:"action,omitempty"`
}

// EncodePoll serializes a poll into its persisted record.
func EncodePoll(p *Poll) ([]byte, error) {
	rec := pollRecord{
		ID:        p.ID,
		Guild:     p.GuildID,
		Channel:   p.ChannelID,
		Requester: p.RequesterID,
		Kind:      p.Kind,
		Deadline:  p.Deadline.Unix(),
		CreatedAt: p.CreatedAt.Unix(),
	}
	rec.Choices = make([]choiceRecord, len(p.Choices))
	for i, c := range p.Choices {
		voters := c.Voters
		if voters == nil {
			voters = []string{}
		}
		rec.Choices[i] = choiceRecord{
			Key:    c.Key,
			Label:  c.Label,
			Emoji:  c.Emoji,
			Tally:  c.Tally,
			Voters: voters,
		}
	}
	switch p.Kind {
	case KindKickBan:
		limit := p.Limit
		target := p.TargetID
		action := p.Action
		rec.Limit = &limit
		rec.Target = &target
		rec.Action = &action
	case KindGiveaway:
		item := p.Item
		rec.Item = &item
	}
	return json.Marshal(rec)
}

// DecodePoll rebuilds a poll from its persisted record. Expired deadlines are
// kept as-is so a restart resolves the poll on the next scheduler tick
// instead of silently dropping it.
func DecodePoll(data []byte) (*Poll, error) {
	var rec pollRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode poll record: %w", err)
	}
	switch rec.Kind {
	case KindMultiple, KindYesNo, KindKickBan, KindGiveaway:
	default:
		return nil, fmt.Errorf("unknown poll kind %q", rec.Kind)
	}

	p := &Poll{
		ID:          rec.ID,
		GuildID:     rec.Guild,
		ChannelID:   rec.Channel,
		RequesterID: rec.Requester,
		Kind:        rec.Kind,
		Deadline:    time.Unix(rec.Deadline, 0).UTC(),
		CreatedAt:   time.Unix(rec.CreatedAt, 0).UTC(),
	}
	if rec.Limit != nil {
		p.Limit = *rec.Limit
	}
	if rec.Target != nil {
		p.TargetID = *rec.Target
	}
	if rec.Item != nil {
		p.Item = *rec.Item
	}
	if rec.Action != nil {
		p.Action = *rec.Action
	}
	p.Choices = make([]Choice, len(rec.Choices))
	for i, c := range rec.Choices {
		p.Choices[i] = Choice{
			Key:    c.Key,
			Label:  c.Label,
			Emoji:  c.Emoji,
			Tally:  len(c.Voters),
			Voters: append([]string(nil), c.Voters...),
		}
	}
	return p, nil
}
