package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	doc, err := deps.Service.GetDocument(deps.Ctx, c.Name, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	if c.Outline {
		fmt.Fprint(deps.Stdout, dockb.FormatOutline(dockb.Outline(doc.Markdown)))
		return nil
	}

	fmt.Fprintln(deps.Stdout, dockb.FormatDocuments([]*dockb.Document{doc}))
	return nil
}
