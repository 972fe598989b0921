// Package ratelimit implements the per-identity rate governor and the
// cooperative pacing primitive used by broadcast jobs.
//
// Each (identity, bucket) pair gets an independent token bucket with
// continuous refill: tokens trickle back over the window instead of
// resetting all at once, smoothing permitted throughput across the
// window rather than allowing full-burst-then-silence.
package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Bucket selects which limit applies to a consume call.
type Bucket int

const (
	// API limits outbound third-party API calls per identity.
	API Bucket = iota
	// Command limits inbound bot commands.
	Command
	// Message limits inbound free-text messages.
	Message
	// Premium is the wider API limit for premium-tier identities.
	Premium
)

func (b Bucket) String() string {
	switch b {
	case API:
		return "api"
	case Command:
		return "command"
	case Message:
		return "message"
	case Premium:
		return "premium"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// Limit configures one bucket: capacity tokens refilling over window.
type Limit struct {
	Capacity int
	Window   time.Duration
}

// Decision is the outcome of a consume call. A denial is expected
// control flow, not an error: RetryAfter tells the caller when to try
// again.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Status describes the current state of one (identity, bucket) pair.
type Status struct {
	Bucket    Bucket
	Capacity  int
	Remaining int
	// RetryAfter is zero when at least one token is available.
	RetryAfter time.Duration
}

// Trust score bounds. Effective capacity scales between half and full
// capacity with the score; below denyThreshold every consume is denied
// regardless of remaining tokens.
const (
	maxTrust      = 1.0
	denyThreshold = 0.2
	reportPenalty = 0.2
)

type pairKey struct {
	id     int64
	bucket Bucket
}

type bucketState struct {
	tokens     float64
	lastRefill time.Time
}

type trustState struct {
	commands int64
	messages int64
	reports  int64
}

// Governor applies token bucket limits per (identity, bucket) pair, with
// an adaptive per-identity trust score. It is safe for concurrent use
// and holds the only shared mutable state in the process besides the job
// registry.
type Governor struct {
	mu     sync.Mutex
	limits map[Bucket]Limit
	states map[pairKey]*bucketState
	trust  map[int64]*trustState
	logger *slog.Logger
	now    func() time.Time
}

// NewGovernor creates a Governor with the given per-bucket limits.
func NewGovernor(limits map[Bucket]Limit, logger *slog.Logger) *Governor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Governor{
		limits: limits,
		states: make(map[pairKey]*bucketState),
		trust:  make(map[int64]*trustState),
		logger: logger.With("component", "rate_governor"),
		now:    time.Now,
	}
}

// Consume takes one token from the identity's bucket. The decision
// carries a positive RetryAfter on denial.
func (g *Governor) Consume(id int64, bucket Bucket) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit, ok := g.limits[bucket]
	if !ok || limit.Capacity <= 0 || limit.Window <= 0 {
		// Unconfigured bucket: allow, but make it visible.
		g.logger.Warn("Consume on unconfigured bucket, allowing", "bucket", bucket.String())
		return Decision{Allowed: true}
	}

	score := g.trustScoreLocked(id)
	if score < denyThreshold {
		g.logger.Warn("Identity denied by trust score",
			"identity", id, "bucket", bucket.String(), "score", score)
		return Decision{Allowed: false, RetryAfter: limit.Window}
	}

	capacity := effectiveCapacity(limit.Capacity, score)
	state := g.stateLocked(id, bucket, capacity)
	g.refillLocked(state, limit, capacity)

	if state.tokens >= 1 {
		state.tokens--
		return Decision{Allowed: true, Remaining: int(state.tokens)}
	}

	// Time until one full token trickles back.
	perToken := limit.Window / time.Duration(capacity)
	retryAfter := time.Duration((1 - state.tokens) * float64(perToken))
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	return Decision{Allowed: false, RetryAfter: retryAfter}
}

// Status reports the identity's current bucket state without consuming.
func (g *Governor) Status(id int64, bucket Bucket) Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit, ok := g.limits[bucket]
	if !ok {
		return Status{Bucket: bucket}
	}

	capacity := effectiveCapacity(limit.Capacity, g.trustScoreLocked(id))
	state := g.stateLocked(id, bucket, capacity)
	g.refillLocked(state, limit, capacity)

	st := Status{Bucket: bucket, Capacity: capacity, Remaining: int(state.tokens)}
	if state.tokens < 1 {
		perToken := limit.Window / time.Duration(capacity)
		st.RetryAfter = time.Duration((1 - state.tokens) * float64(perToken))
	}
	return st
}

// Reset restores a single bucket to full capacity (administrative override).
func (g *Governor) Reset(id int64, bucket Bucket) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.states, pairKey{id: id, bucket: bucket})
	g.logger.Info("Rate limit reset", "identity", id, "bucket", bucket.String())
}

// ResetAll restores every bucket for an identity and clears its trust
// history.
func (g *Governor) ResetAll(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, b := range []Bucket{API, Command, Message, Premium} {
		delete(g.states, pairKey{id: id, bucket: b})
	}
	delete(g.trust, id)
	g.logger.Info("All rate limits reset", "identity", id)
}

// RecordCommand feeds the trust model with one observed command.
func (g *Governor) RecordCommand(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trustLocked(id).commands++
}

// RecordMessage feeds the trust model with one observed message.
func (g *Governor) RecordMessage(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trustLocked(id).messages++
}

// RecordReport counts an abuse report against the identity. Enough
// reports push the trust score below the denial threshold.
func (g *Governor) RecordReport(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trustLocked(id).reports++
}

// TrustScore exposes the identity's current score, mainly for admin
// status output.
func (g *Governor) TrustScore(id int64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.trustScoreLocked(id)
}

func (g *Governor) stateLocked(id int64, bucket Bucket, capacity int) *bucketState {
	key := pairKey{id: id, bucket: bucket}
	state, ok := g.states[key]
	if !ok {
		state = &bucketState{tokens: float64(capacity), lastRefill: g.now()}
		g.states[key] = state
	}
	return state
}

func (g *Governor) refillLocked(state *bucketState, limit Limit, capacity int) {
	now := g.now()
	elapsed := now.Sub(state.lastRefill)
	if elapsed <= 0 {
		return
	}
	state.lastRefill = now

	rate := float64(limit.Capacity) / limit.Window.Seconds()
	state.tokens = math.Min(float64(capacity), state.tokens+elapsed.Seconds()*rate)
}

func (g *Governor) trustLocked(id int64) *trustState {
	t, ok := g.trust[id]
	if !ok {
		t = &trustState{}
		g.trust[id] = t
	}
	return t
}

// trustScoreLocked derives the identity's score from its command to
// message ratio and report count. Identities with little history are
// fully trusted.
func (g *Governor) trustScoreLocked(id int64) float64 {
	t, ok := g.trust[id]
	if !ok {
		return maxTrust
	}

	score := maxTrust - float64(t.reports)*reportPenalty

	// A command-heavy pattern with almost no conversation looks like
	// automation probing the bot.
	total := t.commands + t.messages
	if total >= 20 && t.messages > 0 {
		ratio := float64(t.commands) / float64(t.messages)
		if ratio > 3 {
			score -= 0.3
		}
	} else if total >= 20 && t.messages == 0 {
		score -= 0.5
	}

	return math.Max(0, score)
}

func effectiveCapacity(capacity int, score float64) int {
	scaled := int(float64(capacity) * (0.5 + score/2))
	if scaled < 1 {
		scaled = 1
	}
	return scaled
}
