package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"uptech/internal/adcio"
	"uptech/internal/config"
	"uptech/internal/display"
	appLog "uptech/internal/log"
	"uptech/internal/sampler"
)

// Server exposes the board over a small JSON API.
// 모든 하드웨어 호출은 sampler.Do 를 통해 직렬화한다.
type Server struct {
	cfg     *config.Config
	io      *adcio.IO
	screen  *display.Screen
	sampler *sampler.Sampler
	router  *mux.Router

	accessLog *io.PipeWriter
	handler   http.Handler
}

// NewServer constructs a new Server. screen may be nil when the display
// is not used.
func NewServer(cfg *config.Config, io *adcio.IO, screen *display.Screen, s *sampler.Sampler) *Server {
	srv := &Server{
		cfg:     cfg,
		io:      io,
		screen:  screen,
		sampler: s,
		router:  mux.NewRouter().StrictSlash(false),
	}
	srv.registerRoutes()

	h := http.Handler(srv.router)
	if srv.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+cfg.Listen)
		h = srv.basicAuthMiddleware(h)
	}
	srv.accessLog = appLog.Writer()
	srv.handler = handlers.CombinedLoggingHandler(srv.accessLog, h)
	return srv
}

// Handler returns the http.Handler for this server, with access logging
// and, if configured, basic auth.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases the access log writer. Run calls it on return.
func (s *Server) Close() error {
	return s.accessLog.Close()
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// 빈 사용자명 또는 비밀번호가 설정된 경우에는 비활성화로 취급한다.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="uptech", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	httpSrv := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/sample", s.handleSample).Methods(http.MethodPost)
	api.HandleFunc("/io", s.handleIO).Methods(http.MethodGet)
	api.HandleFunc("/io/{index:[0-9]+}", s.handleIOChannel).Methods(http.MethodGet)
	api.HandleFunc("/io/{index:[0-9]+}/flip", s.handleIOFlip).Methods(http.MethodPost)
	api.HandleFunc("/display/text", s.handleDisplayText).Methods(http.MethodPost)
	api.HandleFunc("/leds", s.handleLEDs).Methods(http.MethodPut)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.sampler.Latest()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no sample taken yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSample(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sampler.Sample())
}

// ioResponse is the JSON shape for /api/io.
type ioResponse struct {
	Levels uint8 `json:"levels"`
	Modes  uint8 `json:"modes"`
}

func (s *Server) handleIO(w http.ResponseWriter, _ *http.Request) {
	var resp ioResponse
	s.sampler.Do(func() {
		resp.Levels = s.io.Levels()
		resp.Modes = s.io.Modes()
	})
	writeJSON(w, http.StatusOK, resp)
}

// channelResponse is the JSON shape for /api/io/{index}.
type channelResponse struct {
	Index uint   `json:"index"`
	High  bool   `json:"high"`
	Level string `json:"level"`
}

func (s *Server) handleIOChannel(w http.ResponseWriter, r *http.Request) {
	index, ok := channelIndex(w, r)
	if !ok {
		return
	}
	var resp channelResponse
	s.sampler.Do(func() {
		l := s.io.Level(index)
		resp = channelResponse{Index: index, High: bool(l), Level: l.String()}
	})
	writeJSON(w, http.StatusOK, resp)
}

// codeResponse carries a native return code verbatim.
type codeResponse struct {
	Code int32 `json:"code"`
}

func (s *Server) handleIOFlip(w http.ResponseWriter, r *http.Request) {
	index, ok := channelIndex(w, r)
	if !ok {
		return
	}
	var code int32
	s.sampler.Do(func() {
		code = s.io.Flip(uint32(index))
	})
	status := http.StatusOK
	if code != 0 {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, codeResponse{Code: code})
}

// textRequest is the JSON body for /api/display/text.
type textRequest struct {
	Row  int32  `json:"row"`
	Text string `json:"text"`
}

func (s *Server) handleDisplayText(w http.ResponseWriter, r *http.Request) {
	if s.screen == nil {
		writeError(w, http.StatusServiceUnavailable, "display disabled")
		return
	}
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var rangeErr, nativeErr error
	s.sampler.Do(func() {
		_, rows := s.screen.TextGrid()
		if req.Row < 0 || (rows > 0 && req.Row >= rows) {
			rangeErr = errors.New("row out of range")
			return
		}
		nativeErr = s.drawScreen(func(sc *display.Screen) {
			sc.PutLine(req.Row, req.Text).Refresh()
		})
	})
	if rangeErr != nil {
		writeError(w, http.StatusBadRequest, rangeErr.Error())
		return
	}
	if nativeErr != nil {
		writeError(w, http.StatusBadGateway, nativeErr.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ledsRequest is the JSON body for /api/leds; colors are "#rrggbb".
type ledsRequest struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

func (s *Server) handleLEDs(w http.ResponseWriter, r *http.Request) {
	if s.screen == nil {
		writeError(w, http.StatusServiceUnavailable, "display disabled")
		return
	}
	var req ledsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	first, err := display.ParseColor(req.First)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	second, err := display.ParseColor(req.Second)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.sampler.Do(func() {
		err = s.drawScreen(func(sc *display.Screen) {
			sc.SetAllLEDs(first, second)
		})
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// drawScreen runs fn on the screen and returns the first native failure of
// that run only. Callers hold the device lock.
func (s *Server) drawScreen(fn func(*display.Screen)) error {
	if stale := s.screen.TakeErr(); stale != nil {
		appLog.Debug("discarding earlier display failure", "err", stale)
	}
	fn(s.screen)
	return s.screen.TakeErr()
}

// channelIndex parses {index} and writes a 400 if it is not an IO channel.
func channelIndex(w http.ResponseWriter, r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(mux.Vars(r)["index"], 10, 8)
	if err != nil || n >= adcio.DigitalChannels {
		writeError(w, http.StatusBadRequest, "index must be 0-7")
		return 0, false
	}
	return uint(n), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
