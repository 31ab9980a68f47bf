package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the docs command.
func (c *DocsCmd) Run(deps *Dependencies) error {
	filter := dockb.DocumentFilter{Offset: c.Offset, Limit: c.Limit}
	if c.Category != "" {
		filter.Category = &c.Category
	}
	if c.Query != "" {
		filter.Query = &c.Query
	}

	docs, err := deps.Service.ListDocuments(deps.Ctx, c.Name, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	if len(docs) == 0 {
		fmt.Fprintf(deps.Stdout, "No documents in %q. Use 'dockb crawl' to add some.\n", c.Name)
		return nil
	}

	for _, d := range docs {
		title := d.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(deps.Stdout, "%s\n  %s  [%s] %d chars, indexed %s\n",
			d.ID, title, d.Category, d.Chars, d.IndexedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
