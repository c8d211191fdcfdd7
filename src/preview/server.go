package preview

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Protocol-Lattice/vibe-code/src/project"
)

const (
	DefaultAddr      = "127.0.0.1:8787"
	DefaultCacheSize = 32

	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type Options struct {
	Addr      string
	CacheSize int
}

// Server serves the composed preview of the latest published tree and
// notifies connected browsers when a new revision is published.
type Server struct {
	e    *echo.Echo
	addr string

	mu       sync.RWMutex
	revision int
	html     string
	tree     project.Tree
	cache    *lru.Cache[int, string]
	subs     map[chan int]struct{}
}

type revisionMsg struct {
	Revision int `json:"revision"`
}

func NewServer(opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New[int, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("preview cache: %w", err)
	}

	s := &Server{
		e:     echo.New(),
		addr:  opts.Addr,
		html:  Compose(nil),
		cache: cache,
		subs:  make(map[chan int]struct{}),
	}
	s.cache.Add(0, s.html)

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug().Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).Msg("preview request")
			return nil
		},
	}))

	s.e.GET("/", s.handleShell)
	s.e.GET("/preview", s.handlePreview)
	s.e.GET("/preview/:rev", s.handleRevision)
	s.e.GET("/files/*", s.handleFile)
	s.e.GET("/ws", s.handleWS)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Addr() string { return s.addr }

// Start blocks serving on the configured address until Shutdown.
func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
	s.mu.Unlock()
	return s.e.Shutdown(ctx)
}

// Publish composes tree as a new revision and returns its number.
func (s *Server) Publish(tree project.Tree) int {
	html := Compose(tree)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	s.html = html
	s.tree = tree
	s.cache.Add(s.revision, html)
	for ch := range s.subs {
		notify(ch, s.revision)
	}
	return s.revision
}

// notify replaces any revision the subscriber has not consumed yet.
func notify(ch chan int, rev int) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- rev:
	default:
	}
}

func (s *Server) Revision() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Server) subscribe() (chan int, int) {
	ch := make(chan int, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[ch] = struct{}{}
	return ch, s.revision
}

func (s *Server) unsubscribe(ch chan int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *Server) handleShell(c echo.Context) error {
	return c.HTML(http.StatusOK, shellPage)
}

func (s *Server) handlePreview(c echo.Context) error {
	s.mu.RLock()
	html := s.html
	s.mu.RUnlock()
	return c.HTML(http.StatusOK, html)
}

func (s *Server) handleRevision(c echo.Context) error {
	rev, err := strconv.Atoi(c.Param("rev"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown revision")
	}
	html, ok := s.cache.Get(rev)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown revision")
	}
	return c.HTML(http.StatusOK, html)
}

func (s *Server) handleFile(c echo.Context) error {
	p := c.Param("*")
	s.mu.RLock()
	n := project.Find(s.tree, p)
	s.mu.RUnlock()
	if !n.IsFile() {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	ct := mime.TypeByExtension(path.Ext(p))
	if ct == "" {
		ct = "text/plain; charset=utf-8"
	}
	return c.Blob(http.StatusOK, ct, []byte(n.Content))
}

func (s *Server) handleWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}
	defer conn.Close()

	ch, current := s.subscribe()
	defer s.unsubscribe(ch)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return nil
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	// Reads only serve to notice the browser going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(v any) error {
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(v)
	}
	if err := write(revisionMsg{Revision: current}); err != nil {
		return nil
	}

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case rev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := write(revisionMsg{Revision: rev}); err != nil {
				log.Debug().Err(err).Msg("preview subscriber gone")
				return nil
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

const shellPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Preview</title>
<style>html,body{margin:0;height:100%}iframe{border:0;width:100%;height:100%}</style>
</head>
<body>
<iframe id="preview" src="/preview" sandbox="allow-scripts allow-same-origin allow-forms allow-modals"></iframe>
<script>
(function () {
  var frame = document.getElementById("preview");
  var shown = -1;
  function connect() {
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.revision !== shown) {
        shown = msg.revision;
        frame.src = "/preview/" + msg.revision;
      }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>
</body>
</html>
`
