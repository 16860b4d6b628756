package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fwojciec/dirscrape"
	main "github.com/fwojciec/dirscrape/cmd/dirscrape"
	"github.com/fwojciec/dirscrape/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists stored sessions", func(t *testing.T) {
		t.Parallel()

		sessions := &mock.SessionService{
			FindSessionsFn: func(_ context.Context, _ dirscrape.SessionFilter) ([]*dirscrape.Session, error) {
				return []*dirscrape.Session{
					{
						ID:        "sess-2",
						URL:       "https://example.com/members",
						Total:     17,
						CreatedAt: time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
					},
					{
						ID:        "sess-1",
						URL:       "https://other.example.com/listing",
						Total:     4,
						CreatedAt: time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC),
					},
				}, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   &bytes.Buffer{},
			Sessions: sessions,
		}

		cmd := &main.HistoryCmd{}

		err := cmd.Run(deps)

		require.NoError(t, err)
		output := stdout.String()
		assert.Contains(t, output, "sess-2")
		assert.Contains(t, output, "2026-08-20 10:30")
		assert.Contains(t, output, "17 records")
		assert.Contains(t, output, "https://example.com/members")
		assert.Contains(t, output, "sess-1")
	})

	t.Run("reports empty history", func(t *testing.T) {
		t.Parallel()

		sessions := &mock.SessionService{
			FindSessionsFn: func(_ context.Context, _ dirscrape.SessionFilter) ([]*dirscrape.Session, error) {
				return nil, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   &bytes.Buffer{},
			Sessions: sessions,
		}

		cmd := &main.HistoryCmd{}

		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No sessions found. Use 'dirscrape run' to create one.")
	})

	t.Run("passes URL filter and limit to the service", func(t *testing.T) {
		t.Parallel()

		var gotFilter dirscrape.SessionFilter
		sessions := &mock.SessionService{
			FindSessionsFn: func(_ context.Context, filter dirscrape.SessionFilter) ([]*dirscrape.Session, error) {
				gotFilter = filter
				return nil, nil
			},
		}

		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   &bytes.Buffer{},
			Stderr:   &bytes.Buffer{},
			Sessions: sessions,
		}

		cmd := &main.HistoryCmd{
			URL:   "https://example.com/members",
			Limit: 5,
		}

		err := cmd.Run(deps)

		require.NoError(t, err)
		require.NotNil(t, gotFilter.URL)
		assert.Equal(t, "https://example.com/members", *gotFilter.URL)
		assert.Equal(t, 5, gotFilter.Limit)
	})
}
