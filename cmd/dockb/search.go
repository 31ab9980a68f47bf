package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	topK := c.TopK
	if topK <= 0 && deps.Config != nil {
		topK = deps.Config.Search.TopK
	}

	results, err := deps.Service.Search(deps.Ctx, c.Name, c.Query, topK)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}
	fmt.Fprint(deps.Stdout, dockb.FormatSearchResults(results))
	return nil
}
