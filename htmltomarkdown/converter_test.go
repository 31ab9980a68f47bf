package htmltomarkdown_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts headings and inline markup", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(
			`<h1>Title</h1><h2>Subtitle</h2><p><strong>Bold</strong> and <em>italic</em>, run <code>go build</code>.</p>`)

		require.NoError(t, err)
		assert.Contains(t, md, "# Title")
		assert.Contains(t, md, "## Subtitle")
		assert.Contains(t, md, "**Bold**")
		assert.Contains(t, md, "*italic*")
		assert.Contains(t, md, "`go build`")
	})

	t.Run("converts links and lists", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(
			`<p>See <a href="https://example.com">Example</a>.</p><ol><li>First</li><li>Second</li></ol>`)

		require.NoError(t, err)
		assert.Contains(t, md, "[Example](https://example.com)")
		assert.Contains(t, md, "1. First")
		assert.Contains(t, md, "2. Second")
	})

	t.Run("keeps code block language hints", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(
			`<pre><code class="language-go">package main</code></pre>`)

		require.NoError(t, err)
		assert.Contains(t, md, "```go")
		assert.Contains(t, md, "package main")
	})

	t.Run("converts tables", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<table>
<thead><tr><th>Option</th><th>Default</th></tr></thead>
<tbody><tr><td>timeout</td><td>30s</td></tr></tbody>
</table>`)

		require.NoError(t, err)
		assert.Contains(t, md, "| Option")
		assert.Contains(t, md, "---")
		assert.Contains(t, md, "timeout")
	})

	t.Run("collapses blank lines and trailing spaces", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(
			`<p>One</p><div><br><br><br></div><p>Two</p>`)

		require.NoError(t, err)
		assert.NotContains(t, md, "\n\n\n")
		for _, line := range strings.Split(md, "\n") {
			assert.Equal(t, strings.TrimRight(line, " \t"), line)
		}
		assert.False(t, strings.HasSuffix(md, "\n"))
	})

	t.Run("returns error for empty input", func(t *testing.T) {
		t.Parallel()

		_, err := htmltomarkdown.NewConverter().Convert("   ")

		require.Error(t, err)
		assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
	})
}
