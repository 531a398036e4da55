package signaling

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// connectLimiter throttles register attempts per source IP. A new WebSocket
// upgrade arrives before any peer ID exists to scope state by, so this is
// the one place in signaling that still needs an IP-keyed table with a
// background sweep for idle entries — there's no connection object yet to
// hang a plain rate.Limiter off of. Narrowed down from the teacher's
// internal/server/ratelimit package, which keyed every operation this way;
// relay traffic below doesn't need it.
type connectLimiter struct {
	mu      sync.Mutex
	entries map[string]*ipEntry
	rate    rate.Limit
	burst   int
	idle    time.Duration
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newConnectLimiter(eventsPerSec float64, burst int) *connectLimiter {
	l := &connectLimiter{
		entries: make(map[string]*ipEntry),
		rate:    rate.Limit(eventsPerSec),
		burst:   burst,
		idle:    3 * time.Minute,
	}
	go l.sweepLoop()
	return l
}

func (l *connectLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

func (l *connectLimiter) sweepLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for range ticker.C {
		l.sweep()
	}
}

func (l *connectLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := time.Now().Add(-l.idle)
	for ip, e := range l.entries {
		if e.lastSeen.Before(threshold) {
			delete(l.entries, ip)
		}
	}
}

// newRelayLimiter builds the per-connection limiter applied to every frame a
// socket sends after registering (list_peers, offer, answer, ice_candidate,
// and frames that fail to decode). Relay traffic, unlike
// a connect attempt, always belongs to a single already-registered
// connection that already has its own goroutine and lifetime, so it needs
// no IP table and no sweep: the limiter is created once the handshake
// succeeds and is garbage collected with the handleConn goroutine that
// holds it. The rate is generous enough to cover a full ICE candidate
// exchange without tripping, but still caps a misbehaving or malicious
// peer well below what the hub can route for everyone else.
func newRelayLimiter() *rate.Limiter {
	const (
		eventsPerSec = 60.0 / 60.0
		burst        = 30
	)
	return rate.NewLimiter(rate.Limit(eventsPerSec), burst)
}

// connectEventsPerSec and connectBurst are the default register-attempt
// budget per IP: the
// signaling server expects at most a handful of host/join attempts a
// minute from any one player, so this stays tight.
const (
	connectEventsPerSec = 10.0 / 60.0
	connectBurst        = 5
)
