package service

import "time"

// DefaultCorrectionWindow is how long a record stays editable after its
// most recent marking.
const DefaultCorrectionWindow = 24 * time.Hour

// CorrectionPolicy decides whether an attendance record may still be
// corrected or deleted. The same threshold gates both operations.
type CorrectionPolicy struct {
	window time.Duration
}

// NewCorrectionPolicy builds a policy with the given window, falling back
// to the default when the value is not positive.
func NewCorrectionPolicy(window time.Duration) CorrectionPolicy {
	if window <= 0 {
		window = DefaultCorrectionWindow
	}
	return CorrectionPolicy{window: window}
}

// CanCorrect reports whether a mutation at now is still inside the window
// measured from the record's most recent marking. The boundary is
// inclusive: exactly the full window elapsed is still permitted.
func (p CorrectionPolicy) CanCorrect(markedAt, now time.Time) bool {
	return now.Sub(markedAt) <= p.window
}

// Window exposes the configured duration for error messages and docs.
func (p CorrectionPolicy) Window() time.Duration {
	return p.window
}
