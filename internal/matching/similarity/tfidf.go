package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Tokenize lowercases text and returns runs of two or more word characters, the same token
// rule the catalog vectorizer was fit with.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// Vector is a sparse, L2-normalized term vector with ascending vocabulary indices. Sums run in
// index order so scores are bit-for-bit reproducible.
type Vector struct {
	Indices []int
	Values  []float64
}

func (v Vector) Len() int { return len(v.Indices) }

// Vectorizer is a fitted TF-IDF space: raw term counts, smoothed idf and L2 row norm.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

// FitVectorizer learns the vocabulary and idf weights from docs. Vocabulary indices are
// assigned in sorted term order.
func FitVectorizer(docs []string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v := &Vectorizer{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v
}

func (v *Vectorizer) VocabularySize() int { return len(v.vocabulary) }

// Transform vectorizes doc in the fitted space. Terms outside the vocabulary are ignored; a
// document with no known terms yields an empty vector.
func (v *Vectorizer) Transform(doc string) Vector {
	counts := make(map[int]float64)
	for _, tok := range Tokenize(doc) {
		if i, ok := v.vocabulary[tok]; ok {
			counts[i]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	out := Vector{Indices: make([]int, 0, len(counts))}
	for i := range counts {
		out.Indices = append(out.Indices, i)
	}
	sort.Ints(out.Indices)

	out.Values = make([]float64, len(out.Indices))
	norm := 0.0
	for k, i := range out.Indices {
		w := counts[i] * v.idf[i]
		out.Values[k] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for k := range out.Values {
		out.Values[k] /= norm
	}
	return out
}

// Cosine returns the cosine similarity of a and b, or 0 if either is empty.
func Cosine(a, b Vector) float64 {
	if a.Len() == 0 || b.Len() == 0 {
		return 0
	}
	var dot, na, nb float64
	for i, j := 0, 0; i < a.Len() && j < b.Len(); {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	for _, x := range a.Values {
		na += x * x
	}
	for _, x := range b.Values {
		nb += x * x
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
