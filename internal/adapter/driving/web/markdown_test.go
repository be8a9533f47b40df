package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_PlainText(t *testing.T) {
	result := RenderMarkdown("Every part we stock")
	assert.Contains(t, result, "Every part we stock")
}

func TestRenderMarkdown_Bold(t *testing.T) {
	result := RenderMarkdown("**do not edit**")
	assert.Contains(t, result, "<strong>do not edit</strong>")
}

func TestRenderMarkdown_InlineCode(t *testing.T) {
	result := RenderMarkdown("stored as `SKU-123`")
	assert.Contains(t, result, "<code>SKU-123</code>")
}

func TestRenderMarkdown_Link(t *testing.T) {
	result := RenderMarkdown("See [the supplier sheet](https://example.com/parts)")
	assert.Contains(t, result, `<a href="https://example.com/parts"`)
	assert.Contains(t, result, "the supplier sheet</a>")
}

func TestRenderMarkdown_SanitizesScript(t *testing.T) {
	result := RenderMarkdown(`<script>alert("xss")</script>`)
	assert.NotContains(t, result, "<script>")
}

func TestRenderMarkdown_GFMStrikethrough(t *testing.T) {
	result := RenderMarkdown("~~legacy~~")
	assert.Contains(t, result, "<del>legacy</del>")
}

func TestRenderMarkdown_GFMTaskList(t *testing.T) {
	result := RenderMarkdown("- [x] counted\n- [ ] reordered")
	assert.Contains(t, result, "<li>")
	assert.Contains(t, result, "counted")
	assert.Contains(t, result, "reordered")
}

func TestRenderMarkdown_StripsEventHandlers(t *testing.T) {
	result := RenderMarkdown(`<img src="x.png" onerror="alert(1)">`)
	assert.NotContains(t, result, "onerror")
}
