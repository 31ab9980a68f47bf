package dockb

// PageError records why a page was not indexed.
type PageError struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// IndexReport summarizes an index operation.
type IndexReport struct {
	PagesIndexed int         `json:"pagesIndexed"`
	PagesSkipped int         `json:"pagesSkipped"`
	Errors       []PageError `json:"errors"`

	// Incomplete is set when the operation stopped early on timeout or
	// cancellation. Pages indexed before that remain stored.
	Incomplete bool `json:"incomplete,omitempty"`
}

// AddError records a failed page.
func (r *IndexReport) AddError(url string, err error) {
	r.Errors = append(r.Errors, PageError{URL: url, Reason: err.Error()})
}

// Merge adds the counts and errors of other to r.
func (r *IndexReport) Merge(other *IndexReport) {
	if other == nil {
		return
	}
	r.PagesIndexed += other.PagesIndexed
	r.PagesSkipped += other.PagesSkipped
	r.Errors = append(r.Errors, other.Errors...)
	r.Incomplete = r.Incomplete || other.Incomplete
}
