package domain

import "time"

// SubmitCommand carries one inbound chat submission. Timestamp is the
// caller-supplied send time; when nil the relay assigns one at submission.
type SubmitCommand struct {
	FromUserID string
	ToUserID   *string // admin submissions only
	Body       string
	Kind       Kind
	FileURL    *string
	FileName   *string
	Timestamp  *time.Time
}
