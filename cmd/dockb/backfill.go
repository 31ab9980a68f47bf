package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the backfill command.
func (c *BackfillCmd) Run(deps *Dependencies) error {
	n, err := deps.Service.BackfillVectors(deps.Ctx, c.Name)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Embedded %d documents\n", n)
	return nil
}
