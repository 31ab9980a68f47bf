package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/fs"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	storage, err := deps.Registry.OpenKnowledgeBase(deps.Ctx, c.Name)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	n, err := fs.NewExporter(c.Dir).Export(deps.Ctx, storage.Documents)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Exported %d documents to %s\n", n, c.Dir)
	return nil
}
