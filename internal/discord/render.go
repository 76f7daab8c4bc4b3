package discord

import (
	"fmt"
	"strings"

	"github.com/naoTimesdev/naoTimes-sub002/internal/domain"
)

const barWidth = 10

// RenderPoll formats a poll's current tallies into message content for the
// periodic refresh.
func RenderPoll(p *domain.Poll) string {
	var b strings.Builder

	switch p.Kind {
	case domain.KindKickBan:
		verb := "Kick"
		if p.Action == domain.ActionBan {
			verb = "Ban"
		}
		fmt.Fprintf(&b, "**%s vote** against <@%s> (needs %d votes)\n", verb, p.TargetID, p.Limit)
	case domain.KindGiveaway:
		fmt.Fprintf(&b, "**Giveaway**: %s\nReact with %s to join!\n", p.Item, p.Choices[0].Emoji)
	case domain.KindYesNo:
		b.WriteString("**Yes/No vote**\n")
	default:
		b.WriteString("**Poll**\n")
	}

	total := p.TotalVotes()
	if p.Kind != domain.KindGiveaway {
		for _, c := range p.Choices {
			fmt.Fprintf(&b, "%s %s — %d %s\n", c.Emoji, c.Label, c.Tally, renderBar(c.Tally, total))
		}
	} else {
		fmt.Fprintf(&b, "Participants: %d\n", total)
	}

	fmt.Fprintf(&b, "\nEnds: <t:%d:R>", p.Deadline.Unix())
	return b.String()
}

func renderBar(tally, total int) string {
	if total == 0 {
		return ""
	}
	filled := tally * barWidth / total
	return "`" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "`"
}
