package moderation

import (
	"log/slog"
	"syncbridge/errors"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator masks forbidden words in chat text before it is broadcast.
// Matching ignores case, punctuation, spacing and common leet substitutions,
// the masked span covers the original characters including the noise in between.
type Moderator struct {
	log         *slog.Logger
	matcher     *goahocorasick.Machine
	words       map[string]string // map normalized pattern -> configured word
	replacement rune
}

// textMapping keeps, for every normalized rune, its index in the original text.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the automaton. Words made only of noise are skipped,
// at least one usable word is required.
func NewModerator(censoredWords []string, replacement rune, log *slog.Logger) (*Moderator, error) {
	if replacement == 0 || unicode.IsSpace(replacement) {
		return nil, errors.ErrInvalidReplacement
	}

	words := make(map[string]string)
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		pattern := normalizeRunes([]rune(word))
		if len(pattern) == 0 {
			continue
		}
		if _, ok := words[string(pattern)]; ok {
			continue
		}
		words[string(pattern)] = word
		patterns = append(patterns, pattern)
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	log.Debug("Moderation enabled", "words", len(patterns))
	return &Moderator{log: log, matcher: m, words: words, replacement: replacement}, nil
}

// Censor returns the masked text and the configured words found, in order of appearance.
func (m *Moderator) Censor(original string) (string, []string) {
	mapping := normalize(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	var found []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			origRunes[i] = m.replacement
		}
		found = append(found, m.words[string(span.Word)])
	}

	return string(origRunes), lo.Compact(found)
}

func normalize(input string) textMapping {
	origRunes := []rune(input)
	mapping := textMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps leet characters back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
