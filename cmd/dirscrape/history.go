package main

import (
	"fmt"

	"github.com/fwojciec/dirscrape"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	filter := dirscrape.SessionFilter{Limit: c.Limit}
	if c.URL != "" {
		filter.URL = &c.URL
	}

	sessions, err := deps.Sessions.FindSessions(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dirscrape.ErrorMessage(err))
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(deps.Stdout, "No sessions found. Use 'dirscrape run' to create one.")
		return nil
	}

	for _, s := range sessions {
		fmt.Fprintf(deps.Stdout, "%s  %s  %4d records  %s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Total, s.URL)
	}

	return nil
}
