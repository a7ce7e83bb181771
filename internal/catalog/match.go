package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// MatchOption configures a [Matcher].
type MatchOption func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a name that
// shares a Double Metaphone code with the query. Default: 0.70.
func WithPhoneticThreshold(threshold float64) MatchOption {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for a name with no
// phonetic overlap. Default: 0.85.
func WithFuzzyThreshold(threshold float64) MatchOption {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher ranks catalog names against a misspelt or misheard query.
//
// A name is a candidate when it shares a Double Metaphone code with the query
// and scores at least the phonetic threshold on Jaro-Winkler, or when it has
// no phonetic overlap but still scores at least the stricter fuzzy threshold.
// Phonetic candidates always rank ahead of fuzzy ones.
//
// Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewMatcher returns a [Matcher] configured with opts.
func NewMatcher(opts ...MatchOption) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

type scored struct {
	name     string
	score    float64
	phonetic bool
}

// Rank returns the names that resemble query, best first. A limit of zero or
// less returns every candidate.
func (m *Matcher) Rank(query string, names []string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(names) == 0 {
		return nil
	}
	qTokens := tokenize(q)
	qCodes := metaphoneCodes(qTokens)

	var hits []scored
	for _, name := range names {
		n := strings.ToLower(strings.TrimSpace(name))
		if n == "" {
			continue
		}
		nTokens := tokenize(n)
		score := similarity(qTokens, nTokens, q, n)
		phonetic := sharesCode(qCodes, metaphoneCodes(nTokens))

		switch {
		case phonetic && score >= m.phoneticThreshold:
			hits = append(hits, scored{name: name, score: score, phonetic: true})
		case score >= m.fuzzyThreshold:
			hits = append(hits, scored{name: name, score: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		if a.phonetic != b.phonetic {
			if a.phonetic {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.score, a.score)
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// tokenize splits on whitespace and hyphens so ids such as
// "father-rhinehardt" compare word by word.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '\t'
	})
}

func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func sharesCode(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// similarity is the best Jaro-Winkler score across the full strings, the
// space-stripped strings and every token pair.
func similarity(qTokens, nTokens []string, q, n string) float64 {
	score := matchr.JaroWinkler(q, n, false)
	if len(qTokens) > 1 || len(nTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(qTokens, ""), strings.Join(nTokens, ""), false); s > score {
			score = s
		}
	}
	for _, a := range qTokens {
		for _, b := range nTokens {
			if s := matchr.JaroWinkler(a, b, false); s > score {
				score = s
			}
		}
	}
	return score
}
