package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/dockb"
)

// printReport writes the outcome of an index operation.
func printReport(w io.Writer, report *dockb.IndexReport) {
	fmt.Fprintf(w, "Indexed %d pages, skipped %d", report.PagesIndexed, report.PagesSkipped)
	if n := len(report.Errors); n > 0 {
		fmt.Fprintf(w, ", %d failed", n)
	}
	fmt.Fprintln(w)
	for _, e := range report.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.URL, e.Reason)
	}
	if report.Incomplete {
		fmt.Fprintln(w, "Stopped early. Run the command again to continue.")
	}
}
