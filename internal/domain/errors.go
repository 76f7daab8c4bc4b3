package domain

import "errors"

// Vote errors are expected and benign: the dispatcher recovers from all of
// them locally and the reaction simply does not register.
var (
	ErrPollResolved  = errors.New("poll already resolved")
	ErrSelfVote      = errors.New("requester cannot vote on own poll")
	ErrAlreadyVoted  = errors.New("user already voted in this poll")
	ErrNotVoted      = errors.New("user has not voted for this choice")
	ErrUnknownChoice = errors.New("unknown choice key")
)

var (
	ErrDuplicatePoll   = errors.New("poll already registered")
	ErrPollNotFound    = errors.New("poll not found")
	ErrKeyNotFound     = errors.New("key not found")
	ErrMessageNotFound = errors.New("message not found")
)
