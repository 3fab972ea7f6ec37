package domain

import "time"

// AccountID is the site username; it doubles as the account key.
type AccountID string

type Account struct {
	ID              AccountID
	CredentialRef   string
	CredentialValid bool
	LastSignDate    string
	LastWorkTime    time.Time
}

// DateLayout is the calendar-day format used for LastSignDate.
const DateLayout = "2006-01-02"

func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

func (a Account) SignedOn(now time.Time) bool {
	return a.LastSignDate != "" && a.LastSignDate == DateOf(now)
}

func (a Account) HasCredentials() bool {
	return a.CredentialRef != ""
}
