package domain

import "time"

// Exchange is the audit record of one completed chat call. It never holds the
// message text or the reply.
type Exchange struct {
	ID             string
	MessageLength  int
	Success        bool
	Outcome        string
	UpstreamStatus int
	Duration       time.Duration
	CreatedAt      time.Time
}
