// Package httpapi exposes GoStream over HTTP with a chi router.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tejashwikalptaru/gostream/internal/adapter/device/remote"
	"github.com/tejashwikalptaru/gostream/internal/service"
)

// Config configures the API surface.
type Config struct {
	// JWTSecret enables bearer token authentication when non-empty
	JWTSecret []byte

	// DefaultUser is used when authentication is off and no user is named
	DefaultUser string

	// CORSOrigin is sent as Access-Control-Allow-Origin
	CORSOrigin string
}

// StreamHandler serves the realtime event stream of a user.
type StreamHandler interface {
	ServeUser(w http.ResponseWriter, r *http.Request, userID string)
}

// Deps are the services behind the API.
type Deps struct {
	Library     *service.LibraryService
	Sessions    *service.SessionManager
	Collections *service.CollectionService
	Preferences *service.PreferenceService
	Stats       *service.StatsService
	Reporter    *remote.Reporter
	Stream      StreamHandler
}

// Server holds the handlers of the API.
type Server struct {
	logger *slog.Logger
	cfg    Config
	deps   Deps
}

// NewServer creates the API server.
func NewServer(logger *slog.Logger, cfg Config, deps Deps) *Server {
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	return &Server{
		logger: logger.With(slog.String("component", "httpapi")),
		cfg:    cfg,
		deps:   deps,
	}
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)
	r.Use(corsMiddleware(s.cfg.CORSOrigin))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/ws", s.handleStream)

		r.Route("/api", func(r chi.Router) {
			r.Get("/songs", s.handleListSongs)
			r.Get("/songs/{id}", s.handleGetSong)
			r.Get("/artists", s.handleListArtists)
			r.Get("/artists/{name}/songs", s.handleArtistSongs)
			r.Post("/artists/{name}/follow", s.handleToggleFollow)

			r.Get("/user", s.handleGetUser)
			r.Post("/like/{songId}", s.handleToggleLike)
			r.Get("/liked", s.handleLiked)

			r.Get("/playlists", s.handleListPlaylists)
			r.Post("/playlist", s.handleCreatePlaylist)
			r.Get("/playlist/{id}", s.handleGetPlaylist)
			r.Patch("/playlist/{id}", s.handleRenamePlaylist)
			r.Delete("/playlist/{id}", s.handleDeletePlaylist)
			r.Post("/playlist/{id}/add/{songId}", s.handleAddToPlaylist)
			r.Post("/playlist/{id}/remove/{songId}", s.handleRemoveFromPlaylist)

			r.Get("/recent", s.handleRecent)
			r.Get("/stats", s.handleStats)
			r.Get("/settings", s.handleGetSettings)
			r.Patch("/settings", s.handleUpdateSettings)
			r.Delete("/settings", s.handleResetSettings)

			r.Route("/player", func(r chi.Router) {
				r.Get("/", s.handlePlayerState)
				r.Post("/play", s.handlePlay)
				r.Post("/next", s.handleNext)
				r.Post("/previous", s.handlePrevious)
				r.Post("/toggle", s.handleToggle)
				r.Post("/shuffle", s.handleShuffle)
				r.Post("/repeat", s.handleRepeat)
				r.Post("/queue", s.handleEnqueue)
				r.Delete("/queue", s.handleClearQueue)
				r.Delete("/queue/{songId}", s.handleDequeue)
				r.Post("/seek", s.handleSeek)
				r.Post("/volume", s.handleVolume)
				r.Post("/device/progress", s.handleDeviceProgress)
				r.Post("/device/ended", s.handleDeviceEnded)
			})
		})
	})

	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tracks": s.deps.Library.Count(),
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stream == nil {
		writeError(w, http.StatusNotFound, "event stream disabled")
		return
	}
	s.deps.Stream.ServeUser(w, r, UserID(r.Context()))
}
