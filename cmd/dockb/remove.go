package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the remove command.
func (c *RemoveCmd) Run(deps *Dependencies) error {
	urls := c.URLs
	if c.All {
		urls = []string{dockb.RemoveAllDocuments}
	}
	if len(urls) == 0 {
		fmt.Fprintf(deps.Stderr, "error: give document URLs or --all\n")
		return dockb.Errorf(dockb.EINVALID, "no documents to remove")
	}

	n, err := deps.Service.RemoveDocuments(deps.Ctx, c.Name, urls)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Removed %d documents from %q\n", n, c.Name)
	return nil
}
