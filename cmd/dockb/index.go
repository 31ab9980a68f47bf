package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the index command.
func (c *IndexCmd) Run(deps *Dependencies) error {
	report, err := deps.Service.IndexPages(deps.Ctx, c.Name, c.URLs, dockb.IndexPagesOptions{
		Metadata:     c.Metadata(),
		ForceRefresh: c.Force,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	printReport(deps.Stdout, report)
	return nil
}
