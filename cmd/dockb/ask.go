package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	answer, err := deps.Asker.Ask(deps.Ctx, c.Name, c.Question)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, answer)
	return nil
}
