package domain

import (
	"fmt"
	"time"
)

const (
	DefaultBlackoutStartHour = 0
	DefaultBlackoutEndHour   = 1
	DefaultWorkCooldown      = 6 * time.Hour
)

// Policy holds the site rules that gate eligibility. The values mirror what the site
// reports on its pages and are configurable.
type Policy struct {
	BlackoutStartHour int
	BlackoutEndHour   int
	WorkCooldown      time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		BlackoutStartHour: DefaultBlackoutStartHour,
		BlackoutEndHour:   DefaultBlackoutEndHour,
		WorkCooldown:      DefaultWorkCooldown,
	}
}

func (p Policy) Validate() error {
	if p.BlackoutStartHour < 0 || p.BlackoutStartHour > 23 {
		return fmt.Errorf("blackout start hour %d out of range", p.BlackoutStartHour)
	}
	if p.BlackoutEndHour < 0 || p.BlackoutEndHour > 24 {
		return fmt.Errorf("blackout end hour %d out of range", p.BlackoutEndHour)
	}
	if p.WorkCooldown <= 0 {
		return fmt.Errorf("work cooldown must be positive, got %s", p.WorkCooldown)
	}
	return nil
}

// InBlackout reports whether now falls in [start, end) local hours. A window whose end is
// before its start wraps past midnight; equal bounds disable the blackout.
func (p Policy) InBlackout(now time.Time) bool {
	start, end, hour := p.BlackoutStartHour, p.BlackoutEndHour, now.Hour()
	switch {
	case start == end:
		return false
	case start < end:
		return hour >= start && hour < end
	default:
		return hour >= start || hour < end
	}
}

func (p Policy) CooldownEnd(account Account) time.Time {
	if account.LastWorkTime.IsZero() {
		return time.Time{}
	}
	return account.LastWorkTime.Add(p.WorkCooldown)
}

func (p Policy) CooldownRemaining(account Account, now time.Time) time.Duration {
	end := p.CooldownEnd(account)
	if end.IsZero() || !now.Before(end) {
		return 0
	}
	return end.Sub(now)
}

// LastWorkFromWait back-computes the last work time from the wait the site still demands.
func (p Policy) LastWorkFromWait(now time.Time, wait time.Duration) time.Time {
	return now.Add(-p.WorkCooldown + wait)
}

func (p Policy) SignEligible(account Account, now time.Time) bool {
	return account.CredentialValid && !account.SignedOn(now) && !p.InBlackout(now)
}

func (p Policy) WorkEligible(account Account, now time.Time) bool {
	return account.CredentialValid && p.CooldownRemaining(account, now) == 0
}
