package dialogue

import (
	"strings"
	"unicode"
)

// Matcher checks free text against a configured keyword set. A keyword
// matches when the lowercased text contains it, or when the text contains
// it once whitespace is stripped from both sides ("chamarcarro" still
// matches "chamar carro").
type Matcher struct {
	keywords []string
	compact  []string
}

func NewMatcher(keywords []string) Matcher {
	m := Matcher{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		m.keywords = append(m.keywords, k)
		m.compact = append(m.compact, stripSpace(k))
	}
	return m
}

func (m Matcher) Match(text string) bool {
	q := strings.ToLower(text)
	cq := stripSpace(q)
	for i, k := range m.keywords {
		if strings.Contains(q, k) || strings.Contains(cq, m.compact[i]) {
			return true
		}
	}
	return false
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
