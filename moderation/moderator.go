package moderation

import (
	"log/slog"
	"slices"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator masks dictionary words in chat messages. Matching ignores case,
// punctuation, spacing and common leet substitutions, so "B.4.d g€r" is
// caught by "badger" and masked rune for rune.
type Moderator struct {
	matcher *goahocorasick.Machine
	mask    rune
	log     *slog.Logger
}

// folded is a message reduced to its matchable runes. positions[i] is the
// index in the original message of runes[i].
type folded struct {
	runes     []rune
	positions []int
}

// NewModerator builds the automaton from words. Words that fold to nothing
// are dropped, an empty dictionary gives a moderator that lets everything through.
func NewModerator(words []string, mask rune, log *slog.Logger) (*Moderator, error) {
	patterns := lo.Uniq(lo.FilterMap(words, func(word string, _ int) (string, bool) {
		f := fold(word)
		return string(f.runes), len(f.runes) > 0
	}))
	slices.Sort(patterns)

	mod := &Moderator{mask: mask, log: log}
	if len(patterns) == 0 {
		return mod, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(lo.Map(patterns, func(p string, _ int) []rune { return []rune(p) })); err != nil {
		return nil, err
	}
	mod.matcher = machine
	return mod, nil
}

// Censor returns the masked message and the dictionary words found, in order.
func (m *Moderator) Censor(message string) (string, []string) {
	if m.matcher == nil {
		return message, nil
	}
	f := fold(message)
	if len(f.runes) == 0 {
		return message, nil
	}

	hits := m.matcher.MultiPatternSearch(f.runes, false)
	if len(hits) == 0 {
		return message, nil
	}

	out := []rune(message)
	words := make([]string, 0, len(hits))
	for _, hit := range hits {
		last := hit.Pos + len(hit.Word) - 1
		if hit.Pos < 0 || last >= len(f.positions) {
			continue
		}
		for i := f.positions[hit.Pos]; i <= f.positions[last]; i++ {
			out[i] = m.mask
		}
		words = append(words, string(hit.Word))
	}
	if len(words) == 0 {
		return message, nil
	}
	return string(out), words
}

// Sanitize is the relay hook: it masks the message and logs how many words went.
func (m *Moderator) Sanitize(message string) string {
	masked, words := m.Censor(message)
	if len(words) > 0 {
		m.log.Info("Message censored",
			"words", len(words),
			"lang", whatlanggo.Detect(message).Lang.Iso6391())
	}
	return masked
}

func fold(s string) folded {
	runes := []rune(s)
	f := folded{runes: make([]rune, 0, len(runes)), positions: make([]int, 0, len(runes))}
	for i, r := range runes {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		f.runes = append(f.runes, unicode.ToLower(r))
		f.positions = append(f.positions, i)
	}
	return f
}

func unleet(r rune) rune {
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
	}
	return r
}
