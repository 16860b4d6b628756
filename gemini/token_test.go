package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/dirscrape"
	"github.com/fwojciec/dirscrape/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCounter_CountTokens(t *testing.T) {
	t.Parallel()

	// Use a real model name that the tokenizer supports
	tc, err := gemini.NewTokenCounter("gemini-2.0-flash")
	require.NoError(t, err)

	// Verify it implements the interface
	var _ dirscrape.TokenCounter = tc

	t.Run("counts tokens in text", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		count, err := tc.CountTokens(ctx, "Hello, world!")

		require.NoError(t, err)
		assert.Positive(t, count)
	})

	t.Run("empty string returns zero", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		count, err := tc.CountTokens(ctx, "")

		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("longer text returns more tokens", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		shortCount, err := tc.CountTokens(ctx, "Hello")
		require.NoError(t, err)

		longCount, err := tc.CountTokens(ctx, "Hello, this is a much longer piece of text that should have more tokens than just a single word.")
		require.NoError(t, err)

		assert.Greater(t, longCount, shortCount)
	})

	t.Run("sketched markup costs fewer tokens than the raw page", func(t *testing.T) {
		t.Parallel()

		raw := `<div class="member-card" style="margin:0 auto;padding:12px;border:1px solid #ddd" data-tracking-id="m-1041">` +
			`<h3 class="member-name">Acme Corp</h3>` +
			`<a class="email" href="mailto:info@acme.test" onclick="track(this)">info@acme.test</a></div>`
		sketch := `<div class="member-card">` + "\n" +
			`  <h3 class="member-name">Acme Corp</h3>` + "\n" +
			`  <a class="email" href="mailto:info@acme.test">info@acme.test</a>` + "\n" +
			`</div>`

		ctx := context.Background()
		rawCount, err := tc.CountTokens(ctx, raw)
		require.NoError(t, err)

		sketchCount, err := tc.CountTokens(ctx, sketch)
		require.NoError(t, err)

		assert.Less(t, sketchCount, rawCount)
	})
}
