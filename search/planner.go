// Package search answers queries against a knowledge base by expanding
// them into sub-queries and fusing lexical and semantic rankings.
package search

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/dockb"
)

// MaxSubQueries bounds the expansion of one query, the original included.
const MaxSubQueries = 6

// DefaultVocabulary lists compound technical terms recognized in queries.
var DefaultVocabulary = []string{
	"http action",
	"compound action",
	"decision policy",
	"workflow routing",
	"api authentication",
	"single sign-on",
	"rest api",
	"web hook",
	"action chaining",
	"error handling",
	"data mapping",
	"integration pattern",
	"user management",
	"access control",
	"rate limiting",
	"api endpoint",
	"http method",
	"request body",
	"response header",
	"status code",
}

// queryStopWords are words common in questions that carry no topic.
var queryStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "will": true, "with": true,
	"how": true, "what": true, "when": true, "where": true, "which": true, "who": true,
	"why": true, "about": true, "explain": true, "tell": true, "me": true, "can": true,
	"you": true, "do": true, "does": true, "work": true, "works": true, "use": true,
	"uses": true, "used": true, "i": true, "my": true, "show": true,
}

var wordRE = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}_-]*`)

// StopWordFilter reports whether a lowercased word is a stop word.
// bleve.Analyzer implements it.
type StopWordFilter interface {
	IsStopWord(word string) bool
}

var _ dockb.QueryPlanner = (*Planner)(nil)

// Planner expands a query into the original, compound phrases and salient
// keywords.
type Planner struct {
	// Vocabulary holds lowercased compound terms matched anywhere in a query.
	Vocabulary []string

	// StopWords, when set, extends the built-in question stop words.
	StopWords StopWordFilter
}

// NewPlanner returns a Planner using DefaultVocabulary.
func NewPlanner(stopWords StopWordFilter) *Planner {
	return &Planner{Vocabulary: DefaultVocabulary, StopWords: stopWords}
}

// Expand implements dockb.QueryPlanner.
//
// Compound phrases are vocabulary terms present in the query, adjacent
// capitalized words, and adjacent salient words longer than three
// characters. Keywords are salient words longer than two characters that
// are not part of a matched vocabulary term. When MaxSubQueries is reached,
// salient word pairs are dropped before keywords. An empty query yields
// nothing.
func (p *Planner) Expand(query string) []dockb.SubQuery {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil
	}

	plan := &plan{seen: make(map[string]bool)}
	plan.add(query, dockb.SubQueryOriginal)

	lower := strings.ToLower(query)
	covered := make(map[string]bool)
	for _, term := range p.Vocabulary {
		if containsPhrase(lower, term) {
			plan.add(term, dockb.SubQueryCompound)
			for _, w := range append(strings.Fields(term), strings.FieldsFunc(term, isSeparator)...) {
				covered[w] = true
			}
		}
	}

	words := wordRE.FindAllString(query, -1)
	for i := 0; i+1 < len(words); i++ {
		a, b := words[i], words[i+1]
		if isCapitalized(a) && isCapitalized(b) && !p.isStopWord(a) && !p.isStopWord(b) {
			plan.add(a+" "+b, dockb.SubQueryCompound)
		}
	}

	var salient []string
	for _, w := range words {
		w = strings.ToLower(w)
		if utf8.RuneCountInString(w) > 2 && !p.isStopWord(w) {
			salient = append(salient, w)
		}
	}

	// Keywords come before salient pairs, which only fill the slots left.
	for _, w := range salient {
		if !covered[w] {
			plan.add(w, dockb.SubQueryKeyword)
		}
	}
	for i := 0; i+1 < len(salient); i++ {
		a, b := salient[i], salient[i+1]
		if utf8.RuneCountInString(a) > 3 && utf8.RuneCountInString(b) > 3 {
			plan.add(a+" "+b, dockb.SubQueryCompound)
		}
	}

	return plan.subs
}

func (p *Planner) isStopWord(word string) bool {
	w := strings.ToLower(word)
	if queryStopWords[w] {
		return true
	}
	return p.StopWords != nil && p.StopWords.IsStopWord(w)
}

// plan accumulates unique sub-queries up to MaxSubQueries.
type plan struct {
	subs []dockb.SubQuery
	seen map[string]bool
}

func (p *plan) add(text, label string) {
	key := strings.ToLower(text)
	if len(p.subs) >= MaxSubQueries || p.seen[key] {
		return
	}
	p.seen[key] = true
	p.subs = append(p.subs, dockb.SubQuery{Text: text, Label: label})
}

// containsPhrase reports whether phrase occurs in text starting on a word
// boundary. The end is left open so plurals match.
func containsPhrase(text, phrase string) bool {
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		before, _ := utf8.DecodeLastRuneInString(text[:i])
		if i == 0 || !isWordRune(before) {
			return true
		}
		start = i + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '-'
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}
