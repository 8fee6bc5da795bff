// Package span tracks source-code byte ranges and gives each one a unique
// prime identifier, so a compound range built by joining others carries its
// full provenance in a single integer: factoring the id recovers the set of
// atomic spans that composed it.
package span

import "sync"

// Span is a half-open source byte range [Lo, Hi) tagged with a unique id
// drawn from the primes in increasing order. Joining two spans produces a
// span whose range is the union of the inputs and whose id is the product
// of their ids.
type Span struct {
	id uint64
	lo int
	hi int
}

// New allocates a fresh span over [lo, hi) with a freshly generated prime id.
// Panics if lo > hi: a span that runs backwards is a bug in the caller, not
// a reportable condition.
func New(lo, hi int) Span {
	if lo > hi {
		panic("span: lo > hi")
	}
	return Span{id: nextPrime(), lo: lo, hi: hi}
}

// WithID builds a span over [lo, hi) carrying an already-known id, used when
// reconstructing a span whose id was computed elsewhere (e.g. Join).
func WithID(lo, hi int, id uint64) Span {
	if lo > hi {
		panic("span: lo > hi")
	}
	return Span{id: id, lo: lo, hi: hi}
}

// Lo returns the inclusive lower bound of the span.
func (s Span) Lo() int { return s.lo }

// Hi returns the exclusive upper bound of the span.
func (s Span) Hi() int { return s.hi }

// ID returns the span's prime identifier.
func (s Span) ID() uint64 { return s.id }

// Join returns a new span whose range is the union of a and b and whose id
// is the product of a's and b's ids. Neither input is modified.
func Join(a, b Span) Span {
	lo, hi := unionRange(a, b)
	return WithID(lo, hi, a.id*b.id)
}

func unionRange(a, b Span) (int, int) {
	lo, hi := a.lo, a.hi
	if b.lo < lo {
		lo = b.lo
	}
	if b.hi > hi {
		hi = b.hi
	}
	return lo, hi
}

// Together joins any non-empty set of spans in one pass: the resulting range
// is the union of all inputs and the id is the product of all input ids.
// Panics if spans is empty.
func Together(spans ...Span) Span {
	if len(spans) == 0 {
		panic("span: Together requires at least one span")
	}
	lo, hi := spans[0].lo, spans[0].hi
	id := uint64(1)
	for _, s := range spans {
		if s.lo < lo {
			lo = s.lo
		}
		if s.hi > hi {
			hi = s.hi
		}
		id *= s.id
	}
	return WithID(lo, hi, id)
}

// JoinInto mutably extends s's range to contain other, without touching s's
// id. This mirrors the generator's habit of growing a span's textual extent
// as it consumes more tokens while treating the id as fixed provenance.
func (s *Span) JoinInto(other Span) {
	lo, hi := unionRange(*s, other)
	s.lo, s.hi = lo, hi
}

// IsDisjoint reports whether s and other share no byte range.
func (s Span) IsDisjoint(other Span) bool {
	return s.hi <= other.lo || other.hi <= s.lo
}

// Overlaps reports whether s and other share any byte range.
func (s Span) Overlaps(other Span) bool {
	return !s.IsDisjoint(other)
}

// IsSuperset reports whether other is fully contained within s.
func (s Span) IsSuperset(other Span) bool {
	return s.lo <= other.lo && other.hi <= s.hi
}

// ComposingIDs returns the distinct prime factors of s's id, i.e. the ids of
// the atomic spans that were joined (directly or transitively) to build s.
func (s Span) ComposingIDs() []uint64 {
	return uniqueFactors(s.id)
}

func (s Span) String() string {
	return "(" + itoa(s.lo) + ", " + itoa(s.hi) + ")"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// sieve is the process-wide prime generator backing Span ids. It mirrors the
// source model's global mutex-guarded sieve (a lazily-initialised singleton
// shared across the whole pipeline) rather than threading an explicit
// factory through every stage; spec.md's Design Notes flag this as a
// candidate for an explicit SpanFactory in a future redesign, but this
// repository keeps the singleton since nothing in the pipeline needs to
// isolate span id generation across concurrent pipelines.
type sieve struct {
	mu     sync.Mutex
	known  []uint64
	cursor uint64
}

var globalSieve = &sieve{known: []uint64{2}, cursor: 2}

func nextPrime() uint64 {
	globalSieve.mu.Lock()
	defer globalSieve.mu.Unlock()

	next := globalSieve.known[len(globalSieve.known)-1]
	for {
		next++
		if isPrime(next, globalSieve.known) {
			globalSieve.known = append(globalSieve.known, next)
			return next
		}
	}
}

func isPrime(n uint64, known []uint64) bool {
	for _, p := range known {
		if p*p > n {
			break
		}
		if n%p == 0 {
			return false
		}
	}
	return true
}

func uniqueFactors(n uint64) []uint64 {
	globalSieve.mu.Lock()
	primes := append([]uint64(nil), globalSieve.known...)
	globalSieve.mu.Unlock()

	var factors []uint64
	remaining := n
	for _, p := range primes {
		if p*p > remaining {
			break
		}
		if remaining%p == 0 {
			factors = append(factors, p)
			for remaining%p == 0 {
				remaining /= p
			}
		}
	}
	if remaining > 1 {
		factors = append(factors, remaining)
	}
	return factors
}

// Reset discards all generated primes and restarts the sieve at 2. Exposed
// for tests that want a deterministic id sequence; never called in
// production code paths.
func Reset() {
	globalSieve.mu.Lock()
	defer globalSieve.mu.Unlock()
	globalSieve.known = []uint64{2}
	globalSieve.cursor = 2
}
