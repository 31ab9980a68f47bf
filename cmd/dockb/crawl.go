package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	fmt.Fprintf(deps.Stderr, "Crawling %s into %q...\n", c.URL, c.Name)

	report, err := deps.Service.IndexDomain(deps.Ctx, c.Name, c.URL, dockb.IndexDomainOptions{
		MaxPages:     c.MaxPages,
		MaxDepth:     &c.MaxDepth,
		ScopePrefix:  c.Scope,
		ForceRefresh: c.Force,
		Metadata:     c.Metadata(),
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	printReport(deps.Stdout, report)
	return nil
}
