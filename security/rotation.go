package security

import "time"

// KeyRotationWindow bounds the period in which a key version may seal new
// credentials. Zero bounds are open.
type KeyRotationWindow struct {
	NotBefore time.Time
	NotAfter  time.Time
}

func (w KeyRotationWindow) Allows(at time.Time) bool {
	ts := at.UTC()
	if !w.NotBefore.IsZero() && ts.Before(w.NotBefore.UTC()) {
		return false
	}
	return w.NotAfter.IsZero() || !ts.After(w.NotAfter.UTC())
}
