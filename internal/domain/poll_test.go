package domain

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testChoices() []Choice {
	return []Choice{
		{Key: "a", Label: "Option A", Emoji: "🇦"},
		{Key: "b", Label: "Option B", Emoji: "🇧"},
		{Key: "c", Label: "Option C", Emoji: "🇨"},
	}
}

func newTestMultiple(t *testing.T) *Poll {
	t.Helper()
	p, err := NewMultiplePoll("msg1", "guild1", "chan1", "requester", testChoices(), testNow.Add(5*time.Minute), testNow)
	require.NoError(t, err)
	return p
}

func newTestKickBan(t *testing.T, limit int) *Poll {
	t.Helper()
	p, err := NewKickBanPoll("msg2", "guild1", "chan1", "requester", ActionKick, "target", limit, testNow.Add(5*time.Minute), testNow)
	require.NoError(t, err)
	return p
}

// assertTallyConsistent checks the core invariant: every cached tally equals
// the size of its voter set.
func assertTallyConsistent(t *testing.T, p *Poll) {
	t.Helper()
	for _, c := range p.Choices {
		assert.Equal(t, len(c.Voters), c.Tally, "tally drifted for choice %q", c.Key)
	}
}

// --- Construction ---

func TestNewMultiplePoll_ChoiceCount(t *testing.T) {
	one := []Choice{{Key: "a"}}
	_, err := NewMultiplePoll("m", "g", "c", "r", one, testNow.Add(5*time.Minute), testNow)
	assert.Error(t, err)

	eleven := make([]Choice, 11)
	for i := range eleven {
		eleven[i] = Choice{Key: string(rune('a' + i))}
	}
	_, err = NewMultiplePoll("m", "g", "c", "r", eleven, testNow.Add(5*time.Minute), testNow)
	assert.Error(t, err)
}

func TestNewMultiplePoll_DuplicateKey(t *testing.T) {
	choices := []Choice{{Key: "a"}, {Key: "a"}}
	_, err := NewMultiplePoll("m", "g", "c", "r", choices, testNow.Add(5*time.Minute), testNow)
	assert.Error(t, err)
}

func TestNewPoll_DeadlineTooSoon(t *testing.T) {
	_, err := NewYesNoPoll("m", "g", "c", "r", testNow.Add(time.Minute), testNow)
	assert.Error(t, err)
}

func TestNewKickBanPoll_LimitTooLow(t *testing.T) {
	_, err := NewKickBanPoll("m", "g", "c", "r", ActionKick, "target", 4, testNow.Add(5*time.Minute), testNow)
	assert.Error(t, err)

	_, err = NewKickBanPoll("m", "g", "c", "r", ActionBan, "target", 5, testNow.Add(5*time.Minute), testNow)
	assert.NoError(t, err)
}

// --- AddVote / RemoveVote ---

func TestAddVote_Success(t *testing.T) {
	p := newTestMultiple(t)

	require.NoError(t, p.AddVote("user1", "b"))
	require.NoError(t, p.AddVote("user2", "b"))
	require.NoError(t, p.AddVote("user3", "c"))

	assert.Equal(t, 2, p.Choices[1].Tally)
	assert.Equal(t, 1, p.Choices[2].Tally)
	assert.Equal(t, 3, p.TotalVotes())
	assertTallyConsistent(t, p)
}

func TestAddVote_SelfVote(t *testing.T) {
	p := newTestMultiple(t)

	err := p.AddVote("requester", "a")
	assert.ErrorIs(t, err, ErrSelfVote)
	assert.Equal(t, 0, p.TotalVotes())
	assertTallyConsistent(t, p)
}

func TestAddVote_AlreadyVoted(t *testing.T) {
	p := newTestMultiple(t)
	require.NoError(t, p.AddVote("user1", "a"))

	// Same choice and a different choice both reject: one vote per poll.
	assert.ErrorIs(t, p.AddVote("user1", "a"), ErrAlreadyVoted)
	assert.ErrorIs(t, p.AddVote("user1", "b"), ErrAlreadyVoted)
	assert.Equal(t, 1, p.TotalVotes())
	assertTallyConsistent(t, p)
}

func TestAddVote_UnknownChoice(t *testing.T) {
	p := newTestMultiple(t)
	assert.ErrorIs(t, p.AddVote("user1", "z"), ErrUnknownChoice)
}

func TestAddVote_Resolved(t *testing.T) {
	p := newTestMultiple(t)
	require.True(t, p.MarkResolved())

	assert.ErrorIs(t, p.AddVote("user1", "a"), ErrPollResolved)
}

func TestRemoveVote_Idempotence(t *testing.T) {
	p := newTestMultiple(t)
	require.NoError(t, p.AddVote("user1", "a"))

	require.NoError(t, p.RemoveVote("user1", "a"))
	assert.ErrorIs(t, p.RemoveVote("user1", "a"), ErrNotVoted)
	assert.Equal(t, 0, p.TotalVotes())
	assertTallyConsistent(t, p)
}

func TestRemoveVote_AfterResolvedIsSilent(t *testing.T) {
	p := newTestMultiple(t)
	require.NoError(t, p.AddVote("user1", "a"))
	require.True(t, p.MarkResolved())

	// Late un-react events after resolution must not error.
	assert.NoError(t, p.RemoveVote("user1", "a"))
	assert.Equal(t, 1, p.Choices[0].Tally, "resolved poll must not mutate")
}

func TestVoteSequence_SingleVotePerUser(t *testing.T) {
	p := newTestMultiple(t)

	require.NoError(t, p.AddVote("user1", "a"))
	require.NoError(t, p.RemoveVote("user1", "a"))
	require.NoError(t, p.AddVote("user1", "c"))

	count := 0
	for _, c := range p.Choices {
		for _, v := range c.Voters {
			if v == "user1" {
				count++
			}
		}
	}
	assert.Equal(t, 1, count, "user appears in more than one voter set")
	assertTallyConsistent(t, p)
}

// --- Completion ---

func TestIsComplete_Deadline(t *testing.T) {
	p := newTestMultiple(t)

	assert.False(t, p.IsComplete(testNow))
	assert.False(t, p.IsComplete(p.Deadline.Add(-time.Second)))
	assert.True(t, p.IsComplete(p.Deadline))
	assert.True(t, p.IsComplete(p.Deadline.Add(time.Hour)))
}

func TestIsComplete_KickBanLimit(t *testing.T) {
	p := newTestKickBan(t, 5)

	for i := 0; i < 4; i++ {
		require.NoError(t, p.AddVote(userN(i), ChoiceConfirm))
		assert.False(t, p.IsComplete(testNow), "complete before limit at %d votes", i+1)
	}
	require.NoError(t, p.AddVote(userN(4), ChoiceConfirm))
	assert.True(t, p.IsComplete(testNow), "not complete exactly at the limit")
}

func TestMarkResolved_ExactlyOnce(t *testing.T) {
	p := newTestMultiple(t)

	assert.True(t, p.MarkResolved())
	assert.False(t, p.MarkResolved())
	assert.True(t, p.Resolved())
}

// --- Winner ---

func TestWinner_MultipleHighestTally(t *testing.T) {
	p := newTestMultiple(t)
	require.NoError(t, p.AddVote("user1", "b"))
	require.NoError(t, p.AddVote("user2", "b"))
	require.NoError(t, p.AddVote("user3", "c"))

	outcome := p.Winner()
	require.Equal(t, DecisionWinner, outcome.Decision)
	assert.Equal(t, "b", outcome.Choice.Key)
	assert.Equal(t, 2, outcome.Choice.Tally)
}

func TestWinner_MultipleTieLowestKey(t *testing.T) {
	p := newTestMultiple(t)
	require.NoError(t, p.AddVote("user1", "c"))
	require.NoError(t, p.AddVote("user2", "b"))

	outcome := p.Winner()
	require.Equal(t, DecisionWinner, outcome.Decision)
	assert.Equal(t, "b", outcome.Choice.Key, "tie must break to the lowest key")
}

func TestWinner_YesNoTie(t *testing.T) {
	p, err := NewYesNoPoll("m", "g", "c", "r", testNow.Add(5*time.Minute), testNow)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.AddVote(userN(i), ChoiceYes))
		require.NoError(t, p.AddVote(userN(i+10), ChoiceNo))
	}

	outcome := p.Winner()
	assert.Equal(t, DecisionTie, outcome.Decision)
	assert.Nil(t, outcome.Choice)
}

func TestWinner_KickBan(t *testing.T) {
	tests := []struct {
		name     string
		confirm  int
		deny     int
		decision Decision
	}{
		{"confirm wins", 5, 2, DecisionWinner},
		{"deny wins", 1, 3, DecisionNoAction},
		{"tie is no action", 2, 2, DecisionNoAction},
		{"no votes is no action", 0, 0, DecisionNoAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestKickBan(t, 5)
			for i := 0; i < tt.confirm; i++ {
				require.NoError(t, p.AddVote(userN(i), ChoiceConfirm))
			}
			for i := 0; i < tt.deny; i++ {
				require.NoError(t, p.AddVote(userN(i+100), ChoiceDeny))
			}

			outcome := p.Winner()
			assert.Equal(t, tt.decision, outcome.Decision)
			if tt.decision == DecisionWinner {
				assert.Equal(t, ChoiceConfirm, outcome.Choice.Key)
			}
		})
	}
}

func TestWinner_Giveaway(t *testing.T) {
	p, err := NewGiveawayPoll("m", "g", "c", "r", "Nendoroid", testNow.Add(5*time.Minute), testNow)
	require.NoError(t, err)

	assert.Equal(t, DecisionNoParticipants, p.Winner().Decision)

	require.NoError(t, p.AddVote("user1", ChoiceJoin))
	require.NoError(t, p.AddVote("user2", ChoiceJoin))

	outcome := p.Winner()
	assert.Equal(t, DecisionDraw, outcome.Decision)
	assert.ElementsMatch(t, []string{"user1", "user2"}, p.Participants())
}

func TestChoiceByEmoji(t *testing.T) {
	p := newTestMultiple(t)

	key, ok := p.ChoiceByEmoji("🇧")
	require.True(t, ok)
	assert.Equal(t, "b", key)

	_, ok = p.ChoiceByEmoji("🤷")
	assert.False(t, ok)
}

func userN(i int) string {
	return "user" + strconv.Itoa(i)
}
