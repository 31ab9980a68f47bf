package readability_test

import (
	"testing"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolator_Isolate(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := readability.NewIsolator().Isolate("  ")

		require.Error(t, err)
		assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
	})

	t.Run("keeps the article and drops navigation", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
<nav><a href="/home">Home Nav Link</a><a href="/about">About Nav Link</a></nav>
<article>
<p>The compound action runs several steps in order and passes outputs between them.</p>
<p>Each step may reference results of earlier steps, which keeps workflows short and readable.</p>
</article>
</body>
</html>`

		got, err := readability.NewIsolator().Isolate(html)

		require.NoError(t, err)
		assert.Contains(t, got, "compound action runs several steps")
		assert.NotContains(t, got, "Home Nav Link")
	})
}
