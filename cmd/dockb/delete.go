package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return dockb.Errorf(dockb.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Service.DeleteKnowledgeBase(deps.Ctx, c.Name); err != nil {
		if dockb.ErrorCode(err) == dockb.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: knowledge base %q not found. Use 'dockb list' to see available knowledge bases.\n", c.Name)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted knowledge base %q\n", c.Name)
	return nil
}
