package accm

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Scale is a total order of classification level names, lowest sensitivity
// first (for example U < CUI < C < S < TS). Rank lookup is total: a level
// that does not resolve is a configuration error, never a silent default.
//
// A Scale is immutable after construction and safe for concurrent use.
type Scale struct {
	levels []string
	ranks  map[string]int
}

// NewScale builds a Scale from level names ordered lowest to highest.
// Names are normalized (NFC, trimmed, upper-cased) before registration.
func NewScale(levels []string) (*Scale, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("classification scale must not be empty")
	}

	s := &Scale{
		levels: make([]string, len(levels)),
		ranks:  make(map[string]int, len(levels)),
	}
	for i, level := range levels {
		token := NormalizeToken(level)
		if token == "" {
			return nil, fmt.Errorf("classification scale contains empty level at index %d", i)
		}
		if _, dup := s.ranks[token]; dup {
			return nil, fmt.Errorf("classification scale contains duplicate level %q", token)
		}
		s.levels[i] = token
		s.ranks[token] = i
	}
	return s, nil
}

// Rank returns the position of a level in the scale, zero-based from the
// lowest sensitivity. Unknown levels are INVALID_CLASSIFICATION.
func (s *Scale) Rank(level string) (int, error) {
	rank, ok := s.ranks[NormalizeToken(level)]
	if !ok {
		return 0, NewInvalidClassification(level, s.levels)
	}
	return rank, nil
}

// Compare orders two levels: negative if a < b, zero if equal, positive if
// a > b. Either side failing to resolve is INVALID_CLASSIFICATION.
func (s *Scale) Compare(a, b string) (int, error) {
	ra, err := s.Rank(a)
	if err != nil {
		return 0, err
	}
	rb, err := s.Rank(b)
	if err != nil {
		return 0, err
	}
	return ra - rb, nil
}

// Contains reports whether the level resolves in the scale.
func (s *Scale) Contains(level string) bool {
	_, ok := s.ranks[NormalizeToken(level)]
	return ok
}

// Levels returns a copy of the level names in ascending sensitivity order.
func (s *Scale) Levels() []string {
	out := make([]string, len(s.levels))
	copy(out, s.levels)
	return out
}

// Prefix returns the levels from the lowest up to and including rank.
// A rank beyond the top of the scale is clamped to the full scale.
func (s *Scale) Prefix(rank int) []string {
	if rank < 0 {
		return []string{}
	}
	if rank >= len(s.levels) {
		rank = len(s.levels) - 1
	}
	out := make([]string, rank+1)
	copy(out, s.levels[:rank+1])
	return out
}

// NormalizeToken canonicalizes a marking token arriving from an external
// system: NFC normalization, surrounding whitespace stripped, upper-cased.
func NormalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(token)))
}

// LevelFromMarking extracts the bare classification level from a full
// resource marking string. Portion-marking parentheses are stripped and
// anything after the first double-slash separator is dropped, so
// "(S//NOFORN)" yields "S".
func LevelFromMarking(marking string) string {
	cleaned := NormalizeToken(marking)
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	cleaned = strings.TrimSpace(cleaned)
	if idx := strings.Index(cleaned, "//"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	return cleaned
}
