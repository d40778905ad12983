package generator

import (
	"crypto/md5" //nolint:gosec // token derivation, not authentication
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/Wtfthisman1/ParserLinks/internal/config"
)

// Strategy selects how candidate tokens are derived.
type Strategy string

const (
	// StrategyRandom draws every token character uniformly from the
	// profile alphabet.
	StrategyRandom Strategy = "random"

	// StrategyTimestamp derives tokens from an MD5 of the current epoch
	// second plus the candidate index.
	StrategyTimestamp Strategy = "timestamp"

	// StrategyHash derives tokens from an MD5 of the candidate index
	// mixed with the current time.
	StrategyHash Strategy = "hash"

	// StrategySequential embeds the candidate index and pads with
	// random alphabet characters.
	StrategySequential Strategy = "sequential"

	// StrategySmart picks one of the other strategies at random per
	// candidate.
	StrategySmart Strategy = "smart"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyRandom, StrategyTimestamp, StrategyHash, StrategySequential, StrategySmart:
		return true
	}
	return false
}

// Generator produces candidate URLs for hosting profiles.
type Generator struct {
	rng *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes token generation deterministic. Intended for tests.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // reproducibility over entropy
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // tokens are guesses, not secrets
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns count candidate URLs for the hosting using uniform
// random tokens.
func (g *Generator) Generate(hosting config.Hosting, count int) []string {
	return g.GenerateWithStrategy(hosting, count, StrategyRandom)
}

// GenerateWithStrategy returns count candidate URLs built with the
// given strategy. An unknown strategy falls back to random tokens.
func (g *Generator) GenerateWithStrategy(hosting config.Hosting, count int, strategy Strategy) []string {
	if count <= 0 {
		return nil
	}

	links := make([]string, 0, count)
	for i := 0; i < count; i++ {
		links = append(links, hosting.BuildURL(g.token(hosting, i, strategy)))
	}
	return links
}

// token builds one token for candidate index i.
func (g *Generator) token(hosting config.Hosting, i int, strategy Strategy) string {
	switch strategy {
	case StrategyTimestamp:
		return g.timestampToken(hosting, i)
	case StrategyHash:
		return g.hashToken(hosting, i)
	case StrategySequential:
		return g.sequentialToken(hosting, i)
	case StrategySmart:
		return g.smartToken(hosting, i)
	default:
		return g.randomToken(hosting)
	}
}

// smartToken picks a concrete strategy at random for each candidate.
func (g *Generator) smartToken(hosting config.Hosting, i int) string {
	switch g.rng.IntN(4) {
	case 0:
		return g.randomToken(hosting)
	case 1:
		return g.timestampToken(hosting, i)
	case 2:
		return g.hashToken(hosting, i)
	default:
		return g.sequentialToken(hosting, i)
	}
}

// randomToken draws TokenLength characters uniformly from the alphabet.
func (g *Generator) randomToken(hosting config.Hosting) string {
	var b strings.Builder
	b.Grow(hosting.TokenLength)
	for i := 0; i < hosting.TokenLength; i++ {
		b.WriteByte(hosting.TokenChars[g.rng.IntN(len(hosting.TokenChars))])
	}
	return b.String()
}

// timestampToken hashes the current epoch second offset by the index.
func (g *Generator) timestampToken(hosting config.Hosting, i int) string {
	input := strconv.FormatInt(time.Now().Unix()+int64(i), 10)
	return g.hashedToken(hosting, input)
}

// hashToken hashes the index mixed with the current time.
func (g *Generator) hashToken(hosting config.Hosting, i int) string {
	input := fmt.Sprintf("%d%d", i, time.Now().UnixMilli())
	return g.hashedToken(hosting, input)
}

// hashedToken filters an MD5 hex digest through the profile alphabet,
// padding with random characters when the digest runs short.
func (g *Generator) hashedToken(hosting config.Hosting, input string) string {
	sum := md5.Sum([]byte(input)) //nolint:gosec // token derivation, not authentication
	digest := hex.EncodeToString(sum[:])

	var b strings.Builder
	b.Grow(hosting.TokenLength)
	for _, c := range digest {
		if strings.ContainsRune(hosting.TokenChars, c) {
			b.WriteRune(c)
			if b.Len() >= hosting.TokenLength {
				break
			}
		}
	}
	for b.Len() < hosting.TokenLength {
		b.WriteByte(hosting.TokenChars[g.rng.IntN(len(hosting.TokenChars))])
	}
	return b.String()
}

// sequentialToken embeds the decimal index, padded with random
// alphabet characters or truncated to the profile length.
func (g *Generator) sequentialToken(hosting config.Hosting, i int) string {
	base := strconv.Itoa(i)
	if len(base) >= hosting.TokenLength {
		return base[:hosting.TokenLength]
	}

	var b strings.Builder
	b.Grow(hosting.TokenLength)
	b.WriteString(base)
	for b.Len() < hosting.TokenLength {
		b.WriteByte(hosting.TokenChars[g.rng.IntN(len(hosting.TokenChars))])
	}
	return b.String()
}
