package voting

import "errors"

var (
	// ErrUnauthorized is returned when no acting user could be resolved.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidVoteType is returned for vote types other than up and down.
	ErrInvalidVoteType = errors.New("invalid vote type")
	// ErrTargetNotFound is returned when a post or comment does not exist.
	ErrTargetNotFound = errors.New("target not found")
)
