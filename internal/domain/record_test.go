package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollRecord_RoundTripKickBan(t *testing.T) {
	p, err := NewKickBanPoll("msg9", "guild1", "chan1", "requester", ActionBan, "target", 6, testNow.Add(10*time.Minute), testNow)
	require.NoError(t, err)
	require.NoError(t, p.AddVote("user1", ChoiceConfirm))
	require.NoError(t, p.AddVote("user2", ChoiceConfirm))
	require.NoError(t, p.AddVote("user3", ChoiceDeny))

	data, err := EncodePoll(p)
	require.NoError(t, err)

	got, err := DecodePoll(data)
	require.NoError(t, err)

	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.GuildID, got.GuildID)
	assert.Equal(t, p.ChannelID, got.ChannelID)
	assert.Equal(t, p.RequesterID, got.RequesterID)
	assert.Equal(t, KindKickBan, got.Kind)
	assert.Equal(t, ActionBan, got.Action)
	assert.Equal(t, "target", got.TargetID)
	assert.Equal(t, 6, got.Limit)
	assert.True(t, p.Deadline.Equal(got.Deadline))
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Choices, 2)
	assert.Equal(t, []string{"user1", "user2"}, got.Choices[0].Voters)
	assert.Equal(t, 2, got.Choices[0].Tally)
	assert.Equal(t, 1, got.Choices[1].Tally)
}

func TestPollRecord_RoundTripGiveaway(t *testing.T) {
	p, err := NewGiveawayPoll("msg10", "guild1", "chan1", "requester", "Key of Steam", testNow.Add(30*time.Minute), testNow)
	require.NoError(t, err)
	require.NoError(t, p.AddVote("user1", ChoiceJoin))

	data, err := EncodePoll(p)
	require.NoError(t, err)

	got, err := DecodePoll(data)
	require.NoError(t, err)

	assert.Equal(t, KindGiveaway, got.Kind)
	assert.Equal(t, "Key of Steam", got.Item)
	assert.Equal(t, []string{"user1"}, got.Participants())
}

func TestDecodePoll_TallyRecomputedFromVoters(t *testing.T) {
	// A hand-edited or stale record with a drifted tally must come back
	// consistent: voters are the source of truth.
	raw := []byte(`{
		"id": "msg11", "guild": "g", "channel": "c", "requester": "r",
		"kind": "yesno",
		"choices": [
			{"key": "y", "label": "Yes", "emoji": "✅", "tally": 99, "voters": ["u1", "u2"]},
			{"key": "n", "label": "No", "emoji": "❌", "tally": 0, "voters": []}
		],
		"deadline": 1714565000, "created_at": 1714561400,
		"limit": null, "target": null, "item": null
	}`)

	got, err := DecodePoll(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Choices[0].Tally)
}

func TestDecodePoll_Invalid(t *testing.T) {
	_, err := DecodePoll([]byte("{not json"))
	assert.Error(t, err)

	_, err = DecodePoll([]byte(`{"id": "x", "kind": "raffle", "choices": []}`))
	assert.Error(t, err)
}

func TestPollKey(t *testing.T) {
	assert.Equal(t, "poll:12345", PollKey("12345"))
}
