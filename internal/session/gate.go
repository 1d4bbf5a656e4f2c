package session

import (
	"sync"
	"time"
)

// Verdict is the outcome of a rate-gate decision.
type Verdict int

const (
	// Allow permits a new generation for the chat.
	Allow Verdict = iota
	// RejectBusy means a generation for the chat is already in flight.
	RejectBusy
	// RejectCooldown means the chat is inside its post-success cooldown.
	RejectCooldown
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case RejectBusy:
		return "reject_busy"
	case RejectCooldown:
		return "reject_cooldown"
	}
	return "unknown"
}

// Decision is a verdict plus, for cooldown rejections, the whole seconds the
// chat still has to wait (rounded up).
type Decision struct {
	Verdict     Verdict
	WaitSeconds int64
}

// Gate serializes session transitions for the store. Decide+Begin and the
// completion transitions each run under one lock, so two messages for the
// same chat can never both observe Busy == false.
type Gate struct {
	mu    sync.Mutex
	store *Store
}

// NewGate creates a gate over the given store.
func NewGate(store *Store) *Gate {
	return &Gate{store: store}
}

// Decide returns the gate's verdict for a chat at the given instant. The
// busy check takes priority over the cooldown check.
func (g *Gate) Decide(chatID int64, now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decideLocked(chatID, now)
}

func (g *Gate) decideLocked(chatID int64, now time.Time) Decision {
	sess := g.store.Get(chatID)

	if sess.Busy {
		return Decision{Verdict: RejectBusy}
	}
	if sess.CooldownUntil.After(now) {
		remaining := sess.CooldownUntil.Sub(now)
		secs := remaining.Milliseconds() / 1000
		if remaining.Milliseconds()%1000 != 0 {
			secs++
		}
		return Decision{Verdict: RejectCooldown, WaitSeconds: secs}
	}
	return Decision{Verdict: Allow}
}

// Begin marks the chat busy. The caller must have just received Allow;
// prefer Acquire, which performs the decide-and-begin step atomically.
func (g *Gate) Begin(chatID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.beginLocked(chatID)
}

func (g *Gate) beginLocked(chatID int64) {
	busy := true
	g.store.Merge(chatID, Patch{Busy: &busy})
}

// Acquire decides and, on Allow, marks the chat busy in one atomic step.
func (g *Gate) Acquire(chatID int64, now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := g.decideLocked(chatID, now)
	if d.Verdict == Allow {
		g.beginLocked(chatID)
	}
	return d
}

// Succeed clears the busy flag and arms the cooldown window.
func (g *Gate) Succeed(chatID int64, now time.Time, cooldown time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	busy := false
	until := now.Add(cooldown)
	g.store.Merge(chatID, Patch{Busy: &busy, CooldownUntil: &until})
}

// Fail clears the busy flag without touching the cooldown. A failed attempt
// does not consume the chat's cooldown-free window.
func (g *Gate) Fail(chatID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	busy := false
	g.store.Merge(chatID, Patch{Busy: &busy})
}
