package jobstatus

import "sync"

// Token identifies one activation of a view.
type Token uint64

// Lifecycle guards view state against results that arrive after the view was
// torn down or activated again. Each Activate and Teardown bumps a generation
// counter; a token is only current while its generation is live.
type Lifecycle struct {
	mu     sync.Mutex
	gen    uint64
	active bool
}

// Activate starts a new generation and returns its token.
func (l *Lifecycle) Activate() Token {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.active = true
	return Token(l.gen)
}

// Teardown invalidates every outstanding token.
func (l *Lifecycle) Teardown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.active = false
}

// Current reports whether t belongs to the live generation.
func (l *Lifecycle) Current(t Token) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active && uint64(t) == l.gen
}

// Apply runs fn only if t is current. fn runs with the lifecycle locked, so a
// concurrent Teardown either happens before fn starts or after it returns.
func (l *Lifecycle) Apply(t Token, fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active || uint64(t) != l.gen {
		return false
	}
	fn()
	return true
}
