package models

import "time"

// Subscription is a pre-launch interest record: an email address captured
// from the coming-soon page, optionally tagged with the service it came
// from.
type Subscription struct {
	Email     string
	Service   string
	CreatedAt time.Time
}
