package preview

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protocol-Lattice/vibe-code/src/project"
)

func newTestServer(t *testing.T, cacheSize int) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(Options{CacheSize: cacheSize})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Shutdown(context.Background())
	})
	return s, ts
}

func get(t *testing.T, url string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b), resp.Header
}

func sampleTree() project.Tree {
	t := project.Upsert(nil, "index.html", `<html><head><link rel="stylesheet" href="style.css"></head><body>v1</body></html>`)
	return project.Upsert(t, "style.css", "body{color:red}")
}

func TestServerPreviewRoutes(t *testing.T) {
	s, ts := newTestServer(t, 4)

	code, body, _ := get(t, ts.URL+"/preview")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, Placeholder, body)

	rev := s.Publish(sampleTree())
	assert.Equal(t, 1, rev)
	assert.Equal(t, 1, s.Revision())

	code, body, _ = get(t, ts.URL+"/preview")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<style>body{color:red}</style>")

	code, body, _ = get(t, ts.URL+"/preview/0")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, Placeholder, body)

	code, _, _ = get(t, ts.URL+"/preview/42")
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = get(t, ts.URL+"/preview/latest")
	assert.Equal(t, http.StatusNotFound, code)

	code, body, _ = get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `src="/preview"`)
}

func TestServerEvictsOldRevisions(t *testing.T) {
	s, ts := newTestServer(t, 2)
	for i := 0; i < 3; i++ {
		s.Publish(sampleTree())
	}
	code, _, _ := get(t, ts.URL+"/preview/1")
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = get(t, ts.URL+"/preview/3")
	assert.Equal(t, http.StatusOK, code)
}

func TestServerFiles(t *testing.T) {
	s, ts := newTestServer(t, 4)
	s.Publish(project.Upsert(sampleTree(), "lib/app.js", "go()"))

	code, body, hdr := get(t, ts.URL+"/files/style.css")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "body{color:red}", body)
	assert.Contains(t, hdr.Get("Content-Type"), "text/css")

	code, body, _ = get(t, ts.URL+"/files/lib/app.js")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "go()", body)

	code, _, _ = get(t, ts.URL+"/files/lib")
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = get(t, ts.URL+"/files/missing.txt")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServerWebsocketNotifies(t *testing.T) {
	s, ts := newTestServer(t, 4)
	s.Publish(sampleTree())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg revisionMsg
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 1, msg.Revision)

	s.Publish(sampleTree())
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 2, msg.Revision)
}
