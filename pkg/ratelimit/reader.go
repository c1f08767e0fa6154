package ratelimit

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// minBucketSize keeps small limits from degrading into tiny reads
const minBucketSize = 64 * 1024

// Limiter is a token bucket shared by every reader of a run
type Limiter struct {
	bytesPerSecond int64
	mu             sync.Mutex
	tokens         int64
	lastUpdate     time.Time
	bucketSize     int64
}

// NewLimiter creates a limiter for the given rate; it returns nil (no limit) for rates <= 0
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	// One second of data, never below 64KB
	bucketSize := bytesPerSecond
	if bucketSize < minBucketSize {
		bucketSize = minBucketSize
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		tokens:         bucketSize,
		lastUpdate:     time.Now(),
		bucketSize:     bucketSize,
	}
}

// ParseRate parses a human bandwidth such as "20MB", "512KiB" or "0".
// An empty string means no limit.
func ParseRate(s string) (int64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "/s")
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth limit %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("bandwidth limit %q is too large", s)
	}
	return int64(n), nil
}

// Rate returns the configured rate in bytes per second
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// String formats the rate for logs
func (l *Limiter) String() string {
	if l == nil {
		return "unlimited"
	}
	return humanize.Bytes(uint64(l.bytesPerSecond)) + "/s"
}

// Wrapper returns a function that wraps readers with this limiter
func (l *Limiter) Wrapper(ctx context.Context) func(io.Reader) io.Reader {
	return func(r io.Reader) io.Reader {
		return NewReader(ctx, r, l)
	}
}

// Reader wraps an io.Reader with bandwidth limiting
type Reader struct {
	reader  io.Reader
	limiter *Limiter
	ctx     context.Context
}

// NewReader wraps an io.Reader with rate limiting
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader
	}
	return &Reader{
		reader:  reader,
		limiter: limiter,
		ctx:     ctx,
	}
}

// Read implements io.Reader with rate limiting
func (r *Reader) Read(p []byte) (int, error) {
	toRead := int64(len(p))
	if toRead > r.limiter.bucketSize {
		toRead = r.limiter.bucketSize
	}

	if err := r.limiter.wait(r.ctx, toRead); err != nil {
		return 0, err
	}

	n, err := r.reader.Read(p[:toRead])
	if n > 0 {
		r.limiter.consume(int64(n))
	}
	return n, err
}

// wait blocks until enough tokens are available or ctx is done
func (l *Limiter) wait(ctx context.Context, needed int64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		l.refill()
		if l.tokens >= needed {
			l.mu.Unlock()
			return nil
		}
		deficit := needed - l.tokens
		l.mu.Unlock()

		waitTime := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if waitTime < time.Millisecond {
			waitTime = time.Millisecond
		}

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill adds tokens for the elapsed time; l.mu must be held
func (l *Limiter) refill() {
	now := time.Now()
	tokensToAdd := int64(now.Sub(l.lastUpdate).Seconds() * float64(l.bytesPerSecond))
	if tokensToAdd > 0 {
		l.tokens += tokensToAdd
		if l.tokens > l.bucketSize {
			l.tokens = l.bucketSize
		}
		l.lastUpdate = now
	}
}

func (l *Limiter) consume(n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens -= n
	if l.tokens < 0 {
		l.tokens = 0
	}
}
