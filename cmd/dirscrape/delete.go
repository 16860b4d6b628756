package main

import (
	"fmt"

	"github.com/fwojciec/dirscrape"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return dirscrape.Errorf(dirscrape.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Sessions.DeleteSession(deps.Ctx, c.ID); err != nil {
		if dirscrape.ErrorCode(err) == dirscrape.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: session %q not found. Use 'dirscrape history' to see stored sessions.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
		}
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted session %q\n", c.ID)

	return nil
}
