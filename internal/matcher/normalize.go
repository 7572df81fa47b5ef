package matcher

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer canonicalizes free text for comparison. It is safe for concurrent use.
type Normalizer struct {
	filler      map[string]struct{}
	replacer    *strings.Replacer
	qualifiers  *regexp.Regexp
	foldAccents bool
}

// NewNormalizer compiles the normalization table.
func NewNormalizer(n Normalization) *Normalizer {
	filler := make(map[string]struct{}, len(n.FillerWords))
	for _, w := range n.FillerWords {
		filler[strings.ToLower(w)] = struct{}{}
	}

	// Longest keys first so multi-rune symbols win over their prefixes.
	keys := make([]string, 0, len(n.Substitutions))
	for k := range n.Substitutions {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, strings.ToLower(k), strings.ToLower(n.Substitutions[k]))
	}

	return &Normalizer{
		filler:      filler,
		replacer:    strings.NewReplacer(pairs...),
		qualifiers:  qualifierPattern(n.VersionQualifiers),
		foldAccents: n.FoldAccents,
	}
}

// qualifierPattern matches a parenthesized or bracketed segment containing any of words.
func qualifierPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(w)))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)[(\[][^)\]]*(?:` + strings.Join(quoted, "|") + `)[^)\]]*[)\]]`)
}

// Normalize lowercases s (after folding accents when enabled), applies substitutions, drops every rune that is not a letter, number
// or space, removes filler words and joins the remaining tokens with single spaces.
//
// Normalize never fails and is idempotent.
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	if n.foldAccents {
		s = fold(s)
	}
	s = strings.ToLower(s)
	s = n.replacer.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if _, ok := n.filler[f]; !ok {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// StripQualifiers removes version qualifiers such as "(Radio Edit)" or "[Live]" from a raw title.
func (n *Normalizer) StripQualifiers(s string) string {
	if n.qualifiers == nil {
		return s
	}
	return strings.TrimSpace(n.qualifiers.ReplaceAllString(s, " "))
}

// fold decomposes s and drops combining marks, so "é" compares equal to "e".
func fold(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, norm.NFKD.String(s))
}
