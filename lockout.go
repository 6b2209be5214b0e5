package auth

import "time"

// LockoutPolicy tracks consecutive failed login attempts and computes the
// Unlocked -> Locked transition. The policy is pure, persistence of the
// mutated fields belongs to the credential store.
//
// Locked is terminal within this package: successful logins reset the
// counter but never clear the flag, unlocking is an explicit administrative
// action.
type LockoutPolicy struct {
	// Threshold is the number of consecutive failures that locks the
	// account. Zero falls back to DefaultMaxLoginAttempts.
	Threshold int
	now       func() time.Time
}

// NewLockoutPolicy builds a policy with the given threshold.
func NewLockoutPolicy(threshold int) LockoutPolicy {
	return LockoutPolicy{Threshold: threshold, now: time.Now}
}

// WithClock returns a copy of the policy using the supplied clock.
func (p LockoutPolicy) WithClock(clock func() time.Time) LockoutPolicy {
	if clock != nil {
		p.now = clock
	}
	return p
}

func (p LockoutPolicy) threshold() int {
	if p.Threshold <= 0 {
		return DefaultMaxLoginAttempts
	}
	return p.Threshold
}

func (p LockoutPolicy) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

// Blocks reports whether the account must be rejected before password
// verification. Lockout gates the login at entry so repeated attempts
// against a locked account leak nothing and stop inflating the counter.
func (p LockoutPolicy) Blocks(u *User) bool {
	return u != nil && u.Locked
}

// RecordFailure increments the failed-attempt counter on the user and flips
// the locked flag once the threshold is reached. The counter is clamped at
// the threshold so repeated failures cannot grow it without bound. Returns
// true when this failure transitioned the account into Locked.
func (p LockoutPolicy) RecordFailure(u *User) bool {
	if u == nil {
		return false
	}

	threshold := p.threshold()
	if u.FailedAttempts < threshold {
		u.FailedAttempts++
	}

	if u.FailedAttempts >= threshold && !u.Locked {
		u.Locked = true
		now := p.clock()
		u.LockedAt = &now
		return true
	}

	return false
}

// RecordSuccess resets the counter and stamps the last login. The locked
// flag is left untouched: a locked account never reaches this path because
// Blocks gates the login first.
func (p LockoutPolicy) RecordSuccess(u *User) {
	if u == nil {
		return
	}
	u.FailedAttempts = 0
	now := p.clock()
	u.LastLoginAt = &now
}
