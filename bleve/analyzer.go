// Package bleve provides text analysis for the lexical index using the
// analysis pipeline of the bleve search library.
package bleve

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/fwojciec/dockb"
)

// Ensure Analyzer implements dockb.Tokenizer at compile time.
var _ dockb.Tokenizer = (*Analyzer)(nil)

// Analyzer splits text on Unicode word boundaries, lowercases tokens and
// removes English stop words.
type Analyzer struct {
	analyzer *analysis.DefaultAnalyzer
	stop     analysis.TokenMap
}

// NewAnalyzer creates an Analyzer. Extra stop words are removed in addition
// to the English list.
func NewAnalyzer(extraStopWords ...string) *Analyzer {
	stopWords := analysis.NewTokenMap()
	// The embedded list is well-formed; LoadBytes only fails on I/O.
	_ = stopWords.LoadBytes(en.EnglishStopWords)
	for _, w := range extraStopWords {
		stopWords.AddToken(w)
	}

	return &Analyzer{
		analyzer: &analysis.DefaultAnalyzer{
			Tokenizer: unicode.NewUnicodeTokenizer(),
			TokenFilters: []analysis.TokenFilter{
				lowercase.NewLowerCaseFilter(),
				stop.NewStopTokensFilter(stopWords),
			},
		},
		stop: stopWords,
	}
}

// Tokenize returns the index terms of text in order.
func (a *Analyzer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	stream := a.analyzer.Analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		terms = append(terms, string(tok.Term))
	}
	return terms
}

// IsStopWord reports whether the lowercased word is removed by the analyzer.
func (a *Analyzer) IsStopWord(word string) bool {
	_, ok := a.stop[word]
	return ok
}
