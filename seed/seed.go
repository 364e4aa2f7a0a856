/*
Package seed turns seed strings into reproducible streams of floats.

A seed is a 16 character string identifying one maze and the room of players
walking it. Streams are keyed by the seed with HMAC-SHA256, so the value of
the n-th draw depends only on the seed and n.
*/
package seed

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// Length is the number of characters of a canonical seed.
	Length = 16

	// DefaultDailySalt is mixed with the day number to produce the seed of the day.
	DefaultDailySalt = "061662bdbd2e9ba6"

	childSeedBytes = Length / 2
	bytesPerFloat  = 4
	roundSize      = sha256.Size
)

// Source is a stream of floats in [0,1).
type Source interface {
	Next() float64
}

// Stream is a deterministic Source keyed by a seed.
type Stream struct {
	seed   string
	round  uint64
	pos    int
	draws  uint64
	buffer [roundSize]byte
}

var _ Source = &Stream{}

// NewStream creates a stream positioned at its first draw.
func NewStream(seed string) *Stream {
	return NewStreamAt(seed, 0)
}

// NewStreamAt creates a stream that continues after the given number of draws.
// It yields the same values as NewStream followed by that many discarded draws.
func NewStreamAt(seed string, draws uint64) *Stream {
	cursor := draws * bytesPerFloat
	s := &Stream{
		seed:  seed,
		round: cursor / roundSize,
		pos:   int(cursor % roundSize),
		draws: draws,
	}
	s.fill()
	return s
}

// Seed returns the key of the stream.
func (s *Stream) Seed() string {
	return s.seed
}

// Draws reports how many floats have been drawn so far.
func (s *Stream) Draws() uint64 {
	return s.draws
}

// Next returns the next float in [0,1).
func (s *Stream) Next() float64 {
	var b [bytesPerFloat]byte
	for i := range b {
		b[i] = s.nextByte()
	}
	s.draws++
	return bytesToFloat(b)
}

func (s *Stream) nextByte() byte {
	if s.pos >= roundSize {
		s.round++
		s.pos = 0
		s.fill()
	}
	b := s.buffer[s.pos]
	s.pos++
	return b
}

func (s *Stream) fill() {
	h := hmac.New(sha256.New, []byte(s.seed))
	h.Write([]byte(strconv.FormatUint(s.round, 10)))
	copy(s.buffer[:], h.Sum(nil))
}

// bytesToFloat reads the bytes as base-256 digits after the point.
func bytesToFloat(b [bytesPerFloat]byte) float64 {
	result := 0.0
	for i, v := range b {
		result += float64(v) / math.Pow(256, float64(i+1))
	}
	return result
}

// Canonicalize keeps at most the first 16 characters of s and left-pads the
// result with '0' to exactly 16 characters.
func Canonicalize(s string) string {
	if utf8.RuneCountInString(s) > Length {
		s = string([]rune(s)[:Length])
	}
	if n := utf8.RuneCountInString(s); n < Length {
		s = strings.Repeat("0", Length-n) + s
	}
	return s
}

// Derive draws 8 values from r and renders them as a new 16 hex character seed.
// Deriving from a stream that was itself built from a seed keeps a chain of
// levels reproducible from its first seed.
func Derive(r Source) string {
	var sb strings.Builder
	sb.Grow(Length)
	for range childSeedBytes {
		fmt.Fprintf(&sb, "%02x", int(math.Floor(r.Next()*256)))
	}
	return sb.String()
}

// Daily returns the seed of the UTC day containing now.
func Daily(salt string, now time.Time) string {
	day := now.Unix() / int64(24*time.Hour/time.Second)
	return Derive(NewStream(salt + strconv.FormatInt(day, 10)))
}
