package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	kbs, err := deps.Service.ListKnowledgeBases(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	if len(kbs) == 0 {
		fmt.Fprintln(deps.Stdout, "No knowledge bases found. Use 'dockb crawl' to create one.")
		return nil
	}

	for _, kb := range kbs {
		fmt.Fprintf(deps.Stdout, "%s  %d docs  %d vectors  %s\n", kb.Name, kb.DocumentCount, kb.VectorCount, kb.SourceURL)
		if kb.Description != "" {
			fmt.Fprintf(deps.Stdout, "  %s\n", kb.Description)
		}
	}

	return nil
}
