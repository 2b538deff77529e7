package matching

import (
	"math"
	"sort"
)

// Vector is a dense, L2-normalized TF-IDF vector in a model's term space.
type Vector []float64

// VectorSpaceModel is a fitted TF-IDF term space. It is immutable after Fit:
// Transform only reads the vocabulary and idf weights.
type VectorSpaceModel struct {
	vocabulary map[string]int
	terms      []string
	idf        []float64
	docs       int
}

// Fit builds the vocabulary and smoothed idf weights from corpus.
// idf(t) = ln((1+N)/(1+df(t))) + 1, which stays strictly positive even for
// terms present in every document. An empty corpus yields an empty model.
func Fit(corpus []string) *VectorSpaceModel {
	df := make(map[string]int)
	for _, doc := range corpus {
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
	for t := range df {
		terms = append(terms, t)
	}
	// stable dimension order
	sort.Strings(terms)

	m := &VectorSpaceModel{
		vocabulary: make(map[string]int, len(terms)),
		terms:      terms,
		idf:        make([]float64, len(terms)),
		docs:       len(corpus),
	}
	n := float64(len(corpus))
	for i, t := range terms {
		m.vocabulary[t] = i
		m.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return m
}

// Dimension is the vocabulary size.
func (m *VectorSpaceModel) Dimension() int { return len(m.terms) }

// Documents is the number of documents the model was fitted on.
func (m *VectorSpaceModel) Documents() int { return m.docs }

// Vocabulary returns a copy of the sorted term list.
func (m *VectorSpaceModel) Vocabulary() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// IDF returns the idf weight of term and whether it is in the vocabulary.
func (m *VectorSpaceModel) IDF(term string) (float64, bool) {
	i, ok := m.vocabulary[term]
	if !ok {
		return 0, false
	}
	return m.idf[i], true
}

// Transform projects doc into the fitted space: raw term counts times idf,
// L2-normalized. Terms outside the vocabulary contribute nothing. The result
// is all zeros when no term is known.
func (m *VectorSpaceModel) Transform(doc string) Vector {
	vec := make(Vector, len(m.terms))
	for _, tok := range Tokenize(doc) {
		if i, ok := m.vocabulary[tok]; ok {
			vec[i]++
		}
	}
	for i, c := range vec {
		if c != 0 {
			vec[i] = c * m.idf[i]
		}
	}
	if n := vec.Norm(); n > 0 {
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec
}

// Norm is the Euclidean length of v.
func (v Vector) Norm() float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// It is 0 when either vector is all zeros or the dimensions differ.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	return clamp01(dot / (na * nb))
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
