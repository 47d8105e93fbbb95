// Package services – request numbering
//
// Request numbers look like MR-ACX-20240115-001: a three letter client
// abbreviation, the business date and a per (abbreviation, date) sequence.
// When any of those cannot be derived the generator issues MR-GEN-{last six
// digits of epoch millis} instead of failing the create.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/Izzudinalqassam/techops-dashboard/internal/observability"
	"github.com/Izzudinalqassam/techops-dashboard/internal/repo"
)

const (
	numberPrefix   = "MR"
	abbrevLen      = 3
	abbrevPad      = "X"
	maxSequence    = 999
	fallbackModulo = 1_000_000

	fallbackMalformedName = "malformed_name"
	fallbackStoreError    = "store_error"
	fallbackOverflow      = "sequence_overflow"
)

// Abbreviate returns the uppercase initials of the first three
// whitespace-separated tokens of name, right-padded with X. Accents are
// folded ("Évora" counts as E); tokens starting with anything other than an
// ASCII letter contribute nothing, and later tokens never take their place.
// ok is false when no initial was found.
func Abbreviate(name string) (abbr string, ok bool) {
	toks := strings.Fields(name)
	if len(toks) > abbrevLen {
		toks = toks[:abbrevLen]
	}
	var b strings.Builder
	for _, tok := range toks {
		r, _ := utf8.DecodeRuneInString(norm.NFD.String(tok))
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	initials := cases.Upper(language.Und).String(b.String())
	return initials + strings.Repeat(abbrevPad, abbrevLen-len(initials)), true
}

// SequenceSource yields the next daily sequence for a number prefix such as
// "MR-ACX-20240115-".
type SequenceSource interface {
	Next(ctx context.Context, db *gorm.DB, prefix string) (int, error)
}

// StoreSequence scans existing request numbers for the highest suffix. Two
// concurrent creates for the same client and day can observe the same maximum;
// the resulting duplicate is tolerated since request_number is not a key.
type StoreSequence struct{}

func (StoreSequence) Next(ctx context.Context, db *gorm.DB, prefix string) (int, error) {
	max, err := repo.MaxSequence(ctx, db, prefix)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// RedisSequence keeps an atomic per-prefix counter in Redis. A missing key is
// seeded from the store maximum with SETNX before INCR, so switching backends
// never reissues a number. Any Redis failure falls back to Store.
type RedisSequence struct {
	Client    redis.Cmdable
	KeyPrefix string
	TTL       time.Duration
	Store     SequenceSource
}

// NewRedisSequence builds a RedisSequence whose keys outlive the business day.
func NewRedisSequence(client redis.Cmdable) *RedisSequence {
	return &RedisSequence{
		Client:    client,
		KeyPrefix: "techops:mr-seq:",
		TTL:       48 * time.Hour,
		Store:     StoreSequence{},
	}
}

func (s *RedisSequence) Next(ctx context.Context, db *gorm.DB, prefix string) (int, error) {
	n, err := s.incr(ctx, db, prefix)
	if err == nil {
		return n, nil
	}
	if ctx.Err() != nil {
		return 0, err
	}
	loggerFrom(ctx).Warn().Err(err).Str("prefix", prefix).Msg("redis sequence unavailable, scanning store")
	return s.store().Next(ctx, db, prefix)
}

func (s *RedisSequence) incr(ctx context.Context, db *gorm.DB, prefix string) (int, error) {
	if s.Client == nil {
		return 0, fmt.Errorf("redis sequence: no client")
	}
	key := s.KeyPrefix + prefix

	exists, err := s.Client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists: %w", err)
	}
	if exists == 0 {
		seed, err := repo.MaxSequence(ctx, db, prefix)
		if err != nil {
			return 0, err
		}
		// Losing the SETNX race is fine: the winner seeded the same maximum.
		if err := s.Client.SetNX(ctx, key, seed, s.TTL).Err(); err != nil {
			return 0, fmt.Errorf("redis setnx: %w", err)
		}
	}

	pipe := s.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisSequence) store() SequenceSource {
	if s.Store == nil {
		return StoreSequence{}
	}
	return s.Store
}

// NumberGenerator composes request numbers.
type NumberGenerator struct {
	Sequence SequenceSource
	// Location defines the business day; nil means UTC.
	Location *time.Location
	Now      func() time.Time
}

// Generate returns a request number for clientName. It only fails, with
// ErrGeneration, when ctx is already done; every other problem degrades to
// the MR-GEN fallback.
func (g *NumberGenerator) Generate(ctx context.Context, db *gorm.DB, clientName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	now := g.now()

	abbr, ok := Abbreviate(clientName)
	if !ok {
		return g.fallback(ctx, now, fallbackMalformedName, nil), nil
	}
	prefix := fmt.Sprintf("%s-%s-%s-", numberPrefix, abbr, now.In(g.location()).Format("20060102"))

	seq, err := g.sequence().Next(ctx, db, prefix)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return "", fmt.Errorf("%w: %v", ErrGeneration, cerr)
		}
		return g.fallback(ctx, now, fallbackStoreError, err), nil
	}
	if seq < 1 || seq > maxSequence {
		return g.fallback(ctx, now, fallbackOverflow, nil), nil
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

func (g *NumberGenerator) fallback(ctx context.Context, now time.Time, reason string, cause error) string {
	observability.NumberFallbacks.WithLabelValues(reason).Inc()
	ev := loggerFrom(ctx).Warn().Str("reason", reason)
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Msg("issuing fallback request number")
	return fmt.Sprintf("%s-GEN-%06d", numberPrefix, now.UnixMilli()%fallbackModulo)
}

func (g *NumberGenerator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *NumberGenerator) location() *time.Location {
	if g.Location != nil {
		return g.Location
	}
	return time.UTC
}

func (g *NumberGenerator) sequence() SequenceSource {
	if g.Sequence != nil {
		return g.Sequence
	}
	return StoreSequence{}
}
