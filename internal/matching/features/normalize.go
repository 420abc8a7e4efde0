package features

import (
	"strings"
	"unicode"
)

// Vocabulary is the subset of a binarizer the tokenizer needs.
type Vocabulary interface {
	Contains(token string) bool
}

func isSeparator(r rune) bool {
	return r == ',' || r == ';' || unicode.IsSpace(r)
}

// Normalize lowercases, trims, splits on commas and whitespace, and deduplicates keeping the first
// occurrence. Each raw entry may itself be a delimited list.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range raw {
		for _, tok := range strings.FieldsFunc(strings.ToLower(entry), isSeparator) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

// NormalizeWithVocabulary behaves like Normalize but keeps a comma-delimited phrase whole when the
// vocabulary knows it, so "Machine Learning" stays one token if it was fit that way.
func NormalizeWithVocabulary(raw []string, vocab Vocabulary) []string {
	if vocab == nil {
		return Normalize(raw)
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(tok string) {
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for _, entry := range raw {
		for _, piece := range strings.FieldsFunc(strings.ToLower(entry), func(r rune) bool { return r == ',' || r == ';' }) {
			phrase := strings.Join(strings.Fields(piece), " ")
			if phrase == "" {
				continue
			}
			if strings.Contains(phrase, " ") && vocab.Contains(phrase) {
				add(phrase)
				continue
			}
			for _, tok := range strings.Fields(phrase) {
				add(tok)
			}
		}
	}
	return out
}
