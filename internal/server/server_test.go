package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstitch/docstitch/internal/config"
	"github.com/docstitch/docstitch/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelError,
		Output: io.Discard,
	})
}

func testServer() *PreviewServer {
	cfg := &config.Config{
		Document: config.DocumentConfig{Title: "Typing Guide"},
		Server:   config.ServerConfig{Host: "localhost", Port: 8135},
	}
	return NewPreviewServer(cfg, testLogger())
}

func TestHandleIndex(t *testing.T) {
	s := testServer()
	s.SetDocument(context.Background(), "# Guide\n\n## Setup\n\nHello world.\n")

	rec := httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<title>Typing Guide</title>")
	assert.Contains(t, body, `<h2 id="setup">Setup</h2>`)
	assert.Contains(t, body, "<p>Hello world.</p>")
	assert.Contains(t, body, "new WebSocket")
}

func TestHandleIndex_NotFound(t *testing.T) {
	s := testServer()

	rec := httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRaw(t *testing.T) {
	s := testServer()
	s.SetDocument(context.Background(), "# Raw\n")

	rec := httptest.NewRecorder()
	s.handleRaw(rec, httptest.NewRequest(http.MethodGet, "/raw", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Raw\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
}

func TestRenderHTML_CodeBlock(t *testing.T) {
	out := renderHTML("```typescript\nconst a: number = 1 < 2 ? 1 : 2\n```\n")

	assert.Contains(t, out, `<pre><code class="language-typescript">`)
	assert.Contains(t, out, "1 &lt; 2")
	assert.NotContains(t, out, "```")
}

func TestRenderHTML_Blockquote(t *testing.T) {
	out := renderHTML("> Requires redux 4 or later.\n")

	assert.Contains(t, out, "<blockquote>Requires redux 4 or later.</blockquote>")
}

func TestRenderHTML_ListAndLinks(t *testing.T) {
	out := renderHTML("- [Setup](#setup)\n")

	assert.Contains(t, out, `<li><a href="#setup">Setup</a></li>`)
}

func TestRenderHTML_InlineCode(t *testing.T) {
	out := renderHTML("Use `createStore` here.\n")

	assert.Contains(t, out, "<p>Use <code>createStore</code> here.</p>")
}

func TestRenderHTML_SkipsComments(t *testing.T) {
	out := renderHTML("<!-- Generated by docstitch -->\n\n# Title\n")

	assert.NotContains(t, out, "Generated by docstitch")
	assert.Contains(t, out, `<h1 id="title">Title</h1>`)
}

func TestRenderHTML_FenceHeadingsNotRendered(t *testing.T) {
	out := renderHTML("```md\n# not a heading\n```\n")

	assert.NotContains(t, out, "<h1")
	assert.Contains(t, out, "# not a heading")
}

func TestRenderHTML_GrownFences(t *testing.T) {
	out := renderHTML("````markdown\n```go\nx\n```\n````\n")

	assert.True(t, strings.Contains(out, "language-markdown"))
	assert.Contains(t, out, "```go")
}

func TestRenderHTML_DuplicateHeadingIDs(t *testing.T) {
	out := renderHTML("## Setup\n\n## Setup\n\n## Setup\n")

	assert.Contains(t, out, `<h2 id="setup">Setup</h2>`)
	assert.Contains(t, out, `<h2 id="setup-1">Setup</h2>`)
	assert.Contains(t, out, `<h2 id="setup-2">Setup</h2>`)
}

func TestRenderHTML_DuplicateHeadingAnchorsMatchTOC(t *testing.T) {
	// The ids must line up with the -1, -2 suffixes the generated table of
	// contents uses for repeated headings.
	out := renderHTML("- [Usage](#usage)\n- [Usage](#usage-1)\n\n# Usage\n\n# Usage\n")

	assert.Contains(t, out, `<a href="#usage">`)
	assert.Contains(t, out, `<a href="#usage-1">`)
	assert.Contains(t, out, `<h1 id="usage">`)
	assert.Contains(t, out, `<h1 id="usage-1">`)
}

func TestBroadcast_DropsDeadClient(t *testing.T) {
	hub := newReloadHub(testLogger())
	srv := httptest.NewServer(http.HandlerFunc(hub.handleWebSocket))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	live, _, err := websocket.Dial(ctx, srv.URL, nil)
	require.NoError(t, err)
	defer live.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool {
		hub.mutex.Lock()
		defer hub.mutex.Unlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	// A torn-down connection stands in for a client whose writes fail.
	dead, _, err := websocket.Dial(ctx, srv.URL, nil)
	require.NoError(t, err)
	require.NoError(t, dead.CloseNow())
	hub.mutex.Lock()
	hub.clients["dead"] = dead
	hub.mutex.Unlock()

	hub.broadcast(ctx, "reload")

	// The live client still gets the message.
	_, data, err := live.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reload", string(data))

	hub.mutex.Lock()
	_, kept := hub.clients["dead"]
	hub.mutex.Unlock()
	assert.False(t, kept)
}
