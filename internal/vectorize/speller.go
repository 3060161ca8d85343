package vectorize

import "strings"

// Suggestion is a vocabulary term close to a query term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
}

// Speller corrects query terms against a fitted model's vocabulary.
type Speller struct {
	model *Model
}

// NewSpeller creates a speller over m's vocabulary.
func NewSpeller(m *Model) *Speller {
	return &Speller{model: m}
}

// maxDistance allows one edit for short terms and two otherwise.
func maxDistance(term string) int {
	if len([]rune(term)) <= 4 {
		return 1
	}
	return 2
}

// Suggest returns the best vocabulary term for term: smallest edit distance, then highest
// document frequency, then lexical order. ok is false when term is in the vocabulary or
// nothing is close enough.
func (s *Speller) Suggest(term string) (Suggestion, bool) {
	if _, known := s.model.vocabulary[term]; known {
		return Suggestion{}, false
	}
	limit := maxDistance(term)
	n := len([]rune(term))
	var best Suggestion
	found := false
	for col, cand := range s.model.terms {
		diff := len([]rune(cand)) - n
		if diff < 0 {
			diff = -diff
		}
		if diff > limit {
			continue
		}
		d := DamerauLevenshteinDistance(term, cand)
		if d > limit {
			continue
		}
		freq := s.model.docFreq[col]
		if !found || d < best.Distance || (d == best.Distance && freq > best.Frequency) {
			best = Suggestion{Term: cand, Distance: d, Frequency: freq}
			found = true
		}
	}
	return best, found
}

// Correct analyzes text and replaces each unknown term with its best suggestion. It returns
// the analyzed terms joined by spaces and whether any term was replaced.
func (s *Speller) Correct(text string) (string, bool) {
	terms := s.model.analyzer.Terms(text)
	changed := false
	for i, t := range terms {
		if sug, ok := s.Suggest(t); ok {
			terms[i] = sug.Term
			changed = true
		}
	}
	return strings.Join(terms, " "), changed
}

// LevenshteinDistance is the minimum number of single-rune insertions, deletions or
// substitutions turning a into b.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// DamerauLevenshteinDistance is LevenshteinDistance that also counts a transposition of
// two adjacent runes as one edit.
func DamerauLevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	d := make([][]int, len(ra)+1)
	for i := range d {
		d[i] = make([]int, len(rb)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+cost)
			}
		}
	}
	return d[len(ra)][len(rb)]
}
