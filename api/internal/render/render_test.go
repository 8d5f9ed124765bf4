package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTML(t *testing.T) {
	out, err := HTML("**Правило:** додавання\n\n1. крок\n2. крок\n\n| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>Правило:</strong>")
	assert.Contains(t, out, "<ol>")
	assert.Contains(t, out, "<table>")
}

func TestHTMLDropsRawHTML(t *testing.T) {
	out, err := HTML("<script>alert(1)</script>\n\ntext")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<p>text</p>")
}

func TestHTMLHardWraps(t *testing.T) {
	out, err := HTML("рядок 1\nрядок 2")
	require.NoError(t, err)
	assert.Equal(t, "<p>рядок 1<br>\nрядок 2</p>", out)
}
