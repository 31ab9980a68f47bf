package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the refresh command.
func (c *RefreshCmd) Run(deps *Dependencies) error {
	result, err := deps.Service.Refresh(deps.Ctx, c.Name, c.DryRun)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	if c.DryRun {
		for _, u := range result.URLs {
			fmt.Fprintln(deps.Stdout, u)
		}
		fmt.Fprintf(deps.Stdout, "%d documents would be refreshed\n", len(result.URLs))
		return nil
	}

	printReport(deps.Stdout, result.Report)
	return nil
}
