package domain

import "sort"

// Decision classifies how a completed poll ended.
type Decision string

const (
	// DecisionWinner means a single choice won outright.
	DecisionWinner Decision = "winner"
	// DecisionTie means the top choices tied and no side is announced.
	DecisionTie Decision = "tie"
	// DecisionNoAction means a KickBan poll did not reach confirmation.
	DecisionNoAction Decision = "no_action"
	// DecisionDraw means a giveaway needs a random participant draw.
	DecisionDraw Decision = "draw"
	// DecisionNoParticipants means a giveaway ended with nobody joined.
	DecisionNoParticipants Decision = "no_participants"
)

// Outcome is the result of Winner. Choice is a copy of the deciding choice
// where one exists.
type Outcome struct {
	Decision Decision
	Choice   *Choice
}

// Winner computes the poll outcome from the current tallies. Tie-breaks are
// deterministic per kind: YesNo ties are reported as ties, Multiple ties go
// to the lowest key, KickBan ties resolve to no action. Giveaways report a
// draw request instead of a tally winner; the actual pick is random and owned
// by the resolver.
func (p *Poll) Winner() Outcome {
	switch p.Kind {
	case KindGiveaway:
		if len(p.Choices) == 0 || p.Choices[0].Tally == 0 {
			return Outcome{Decision: DecisionNoParticipants}
		}
		c := p.Choices[0]
		return Outcome{Decision: DecisionDraw, Choice: &c}

	case KindKickBan:
		confirm := p.choice(ChoiceConfirm)
		deny := p.choice(ChoiceDeny)
		if confirm != nil && (deny == nil || confirm.Tally > deny.Tally) {
			c := *confirm
			return Outcome{Decision: DecisionWinner, Choice: &c}
		}
		return Outcome{Decision: DecisionNoAction}

	case KindYesNo:
		top := p.topChoices()
		if len(top) != 1 {
			return Outcome{Decision: DecisionTie}
		}
		c := *top[0]
		return Outcome{Decision: DecisionWinner, Choice: &c}

	default: // KindMultiple
		top := p.topChoices()
		sort.Slice(top, func(i, j int) bool { return top[i].Key < top[j].Key })
		c := *top[0]
		return Outcome{Decision: DecisionWinner, Choice: &c}
	}
}

// topChoices returns every choice holding the strictly highest tally.
func (p *Poll) topChoices() []*Choice {
	var top []*Choice
	best := -1
	for i := range p.Choices {
		switch {
		case p.Choices[i].Tally > best:
			best = p.Choices[i].Tally
			top = top[:0]
			top = append(top, &p.Choices[i])
		case p.Choices[i].Tally == best:
			top = append(top, &p.Choices[i])
		}
	}
	return top
}
