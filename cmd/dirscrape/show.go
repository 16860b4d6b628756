package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/dirscrape"
	"github.com/fwojciec/dirscrape/fs"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	session, err := deps.Sessions.FindSessionByID(deps.Ctx, c.ID)
	if err != nil {
		if dirscrape.ErrorCode(err) == dirscrape.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: session %q not found. Use 'dirscrape history' to see stored sessions.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
		}
		return err
	}

	if c.Output != "" {
		writer := fs.NewWriter(c.Output)
		if err := writer.WriteSession(deps.Ctx, session); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Wrote %s\n", c.Output)
		return nil
	}

	doc, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(doc))

	return nil
}
