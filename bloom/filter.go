// Package bloom provides the visited set of a crawl.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter is a probabilistic set of URLs. Membership tests may return false
// positives but never false negatives.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs at the given false
// positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{f: bloom.NewWithEstimates(n, fpRate)}
}

// Add records a URL.
func (f *Filter) Add(url string) { f.f.AddString(url) }

// Test reports whether the URL may have been recorded.
func (f *Filter) Test(url string) bool { return f.f.TestString(url) }

// TestAndAdd records a URL and reports whether it may have been recorded before.
func (f *Filter) TestAndAdd(url string) bool { return f.f.TestAndAddString(url) }

// EstimatedCount returns the approximate number of recorded URLs.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
