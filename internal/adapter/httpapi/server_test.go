package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gostream/internal/adapter/catalog/jsonfile"
	"github.com/tejashwikalptaru/gostream/internal/adapter/device/mock"
	"github.com/tejashwikalptaru/gostream/internal/adapter/device/remote"
	"github.com/tejashwikalptaru/gostream/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/gostream/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/gostream/internal/adapter/storage/memory"
	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/logger"
	"github.com/tejashwikalptaru/gostream/internal/player"
	"github.com/tejashwikalptaru/gostream/internal/service"
)

var testTracks = []domain.Track{
	{ID: "1", Title: "Tum Hi Ho", Artist: "Arijit Singh", URL: "/songs/1.mp3", Mood: "romantic"},
	{ID: "2", Title: "Kala Chashma", Artist: "Badshah & Neha Kakkar", URL: "/songs/2.mp3", Mood: "party"},
	{ID: "3", Title: "Channa Mereya", Artist: "Arijit Singh", URL: "/songs/3.mp3", Mood: "sad"},
}

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus()
	store := memory.New()

	path := filepath.Join(t.TempDir(), "songs.json")
	require.NoError(t, jsonfile.Write(path, testTracks))

	library := service.NewLibraryService(log, jsonfile.New(jsonfile.Config{Path: path}, log), bus)
	history := kv.NewHistoryRepository(store, log)

	opts := player.DefaultOptions()
	opts.IntN = func(int) int { return 0 }
	sessions := service.NewSessionManager(log, bus, library, mock.NewFactory(bus, log), history, opts)
	require.NoError(t, library.Reload(context.Background()))

	t.Cleanup(func() {
		sessions.Shutdown()
		_ = bus.Close()
	})

	server := NewServer(log, cfg, Deps{
		Library:     library,
		Sessions:    sessions,
		Collections: service.NewCollectionService(log, kv.NewPlaylistRepository(store, log), kv.NewLikeRepository(store, log), kv.NewFollowRepository(store, log), bus),
		Preferences: service.NewPreferenceService(log, kv.NewPreferencesRepository(store, log), bus),
		Stats:       service.NewStatsService(history),
		Reporter:    remote.NewReporter(bus),
	})
	return server.Router()
}

// do performs a request as user and decodes the JSON response into out.
func do(t *testing.T, h http.Handler, method, path, user string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type stateResponse struct {
	CurrentTrack *domain.Track `json:"currentTrack"`
	IsPlaying    bool          `json:"isPlaying"`
	Queue        []domain.Track
	History      []domain.Track
	Shuffle      bool
	Repeat       bool
	Status       string
	Volume       float64
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	var body map[string]any
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["tracks"])
}

func TestSongs(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	var songs []domain.Track
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/songs?q=arijit", "", nil, &songs))
	assert.Len(t, songs, 2)

	var song domain.Track
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/songs/2", "", nil, &song))
	assert.Equal(t, "Kala Chashma", song.Title)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/songs/99", "", nil, &errBody))
	assert.Contains(t, errBody["error"], "track not found")
}

func TestArtists(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	var artists []domain.Artist
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/artists", "", nil, &artists))
	require.Len(t, artists, 3)
	assert.Equal(t, "Arijit Singh", artists[0].Name)
	assert.Equal(t, 2, artists[0].SongCount)

	var songs []domain.Track
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/artists/Neha%20Kakkar/songs", "", nil, &songs))
	require.Len(t, songs, 1)
	assert.Equal(t, "2", songs[0].ID)

	var follow struct {
		Followed        bool     `json:"followed"`
		FollowedArtists []string `json:"followedArtists"`
	}
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/artists/Badshah/follow", "", nil, &follow))
	assert.True(t, follow.Followed)
	assert.Equal(t, []string{"Badshah"}, follow.FollowedArtists)
}

func TestLikes(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	var like struct {
		Liked bool     `json:"liked"`
		Likes []string `json:"likes"`
	}
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/like/3", "", nil, &like))
	assert.True(t, like.Liked)
	assert.Equal(t, []string{"3"}, like.Likes)

	var liked []domain.Track
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/liked", "", nil, &liked))
	require.Len(t, liked, 1)
	assert.Equal(t, "Channa Mereya", liked[0].Title)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/like/3", "", nil, &like))
	assert.False(t, like.Liked)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/like/99", "", nil, nil))
}

func TestUsersAreIsolated(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	do(t, h, http.MethodPost, "/api/like/1", "alice", nil, nil)

	var alice, bob userView
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/user", "alice", nil, &alice))
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/user", "bob", nil, &bob))

	assert.Equal(t, "alice", alice.ID)
	assert.Equal(t, []string{"1"}, alice.Likes)
	assert.Equal(t, "bob", bob.ID)
	assert.Empty(t, bob.Likes)
}

func TestPlaylists(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	var created domain.Playlist
	assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/playlist", "", map[string]string{"name": "  "}, &created))
	assert.Equal(t, "My Playlist #1", created.Name)

	var added map[string]bool
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/playlist/"+created.ID+"/add/2", "", nil, &added))
	assert.True(t, added["added"])
	do(t, h, http.MethodPost, "/api/playlist/"+created.ID+"/add/2", "", nil, &added)
	assert.False(t, added["added"])

	var renamed domain.Playlist
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPatch, "/api/playlist/"+created.ID, "", map[string]string{"name": "Road trip"}, &renamed))
	assert.Equal(t, "Road trip", renamed.Name)
	require.Len(t, renamed.Songs, 1)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPatch, "/api/playlist/"+created.ID, "", map[string]string{"name": ""}, nil))

	var removed map[string]bool
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/playlist/"+created.ID+"/remove/2", "", nil, &removed))
	assert.True(t, removed["removed"])

	var list []domain.Playlist
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/playlists", "", nil, &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/playlist/"+created.ID, "", nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/playlist/"+created.ID, "", nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/playlist/missing/add/1", "", nil, nil))
}

func TestSettings(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	var prefs domain.Preferences
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/settings", "", nil, &prefs))
	assert.Equal(t, "auto", prefs.Theme)
	assert.Equal(t, 80, prefs.Volume)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPatch, "/api/settings", "", map[string]any{"theme": "dark", "volume": 40}, &prefs))
	assert.Equal(t, "dark", prefs.Theme)
	assert.Equal(t, 40, prefs.Volume)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPatch, "/api/settings", "", map[string]any{"theme": "neon"}, nil))

	req := httptest.NewRequest(http.MethodPatch, "/api/settings", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/api/settings", "", nil, &prefs))
	assert.Equal(t, "auto", prefs.Theme)
}

func TestPlayer_PlayNextAndQueue(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	var state stateResponse
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/player/", "", nil, &state))
	require.NotNil(t, state.CurrentTrack)
	assert.Equal(t, "1", state.CurrentTrack.ID)
	assert.Equal(t, "paused", state.Status)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/player/play", "", map[string]string{"songId": "2"}, &state))
	assert.Equal(t, "2", state.CurrentTrack.ID)
	assert.True(t, state.IsPlaying)

	do(t, h, http.MethodPost, "/api/player/queue", "", map[string]string{"songId": "1"}, &state)
	require.Len(t, state.Queue, 1)

	do(t, h, http.MethodPost, "/api/player/next", "", nil, &state)
	assert.Equal(t, "1", state.CurrentTrack.ID, "queue is consumed first")
	assert.Empty(t, state.Queue)

	do(t, h, http.MethodPost, "/api/player/toggle", "", nil, &state)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, "paused", state.Status)

	var recent []domain.Track
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/recent", "", nil, &recent))
	require.Len(t, recent, 2)
	assert.Equal(t, "1", recent[0].ID)

	var stats domain.ListeningStats
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/stats", "", nil, &stats))
	assert.Equal(t, 2, stats.TotalPlays)
}

func TestPlayer_PlayWithOrder(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	var state stateResponse
	body := map[string]any{"songId": "3", "order": []string{"3", "1"}}
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/player/play", "", body, &state))
	assert.Equal(t, "3", state.CurrentTrack.ID)

	do(t, h, http.MethodPost, "/api/player/next", "", nil, &state)
	assert.Equal(t, "1", state.CurrentTrack.ID)

	body = map[string]any{"songId": "1", "order": []string{"1", "99"}}
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/player/play", "", body, nil))

	body = map[string]any{"songId": "1", "order": []string{"1"}, "index": 5}
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/player/play", "", body, nil))
}

func TestPlayer_ModesSeekAndVolume(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	var state stateResponse
	do(t, h, http.MethodPost, "/api/player/repeat", "", map[string]bool{"enabled": true}, &state)
	assert.True(t, state.Repeat)
	do(t, h, http.MethodPost, "/api/player/shuffle", "", map[string]bool{"enabled": true}, &state)
	assert.True(t, state.Shuffle)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/player/volume", "", map[string]float64{"volume": 0.3}, &state))
	assert.InDelta(t, 0.3, state.Volume, 1e-9)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/player/volume", "", map[string]float64{"volume": 2}, nil))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/player/seek", "", map[string]float64{"seconds": 30}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/player/seek", "", map[string]float64{"seconds": -1}, nil))
}

func TestPlayer_DeviceReports(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/player/device/ended", "", map[string]string{"url": "/songs/1.mp3"}, nil))

	var state stateResponse
	do(t, h, http.MethodPost, "/api/player/play", "", map[string]string{"songId": "1"}, &state)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/api/player/device/progress", "", map[string]float64{"current": 12.5, "duration": 200}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/player/device/progress", "", map[string]float64{"current": -3}, nil))

	// a stale report for another url changes nothing
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/player/device/ended", "", map[string]string{"url": "/songs/3.mp3"}, &state))
	assert.Equal(t, "1", state.CurrentTrack.ID)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/player/device/ended", "", map[string]string{"url": "/songs/1.mp3"}, &state))
	assert.Equal(t, "2", state.CurrentTrack.ID)
	assert.True(t, state.IsPlaying)
}

func TestAuth_JWT(t *testing.T) {
	h := newTestServer(t, Config{JWTSecret: testSecret})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	foreign, err := IssueToken([]byte("other-secret"), "mallory", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := IssueToken(testSecret, "alice", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var user userView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.ID)

	// the header is ignored once tokens are required
	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("X-User-Id", "alice")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	token, err := IssueToken(testSecret, "alice", -time.Minute)
	require.NoError(t, err)

	_, err = parseToken(testSecret, token)
	assert.Error(t, err)
}

func TestAuth_TokenQueryParam(t *testing.T) {
	token, err := IssueToken(testSecret, "alice", time.Hour)
	require.NoError(t, err)

	s := &Server{cfg: Config{JWTSecret: testSecret}}
	user, err := s.resolveUser(httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestAuth_NoDefaultUser(t *testing.T) {
	h := newTestServer(t, Config{})

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/user", "", nil, nil))
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/user?user=carol", "", nil, nil))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest", CORSOrigin: "http://localhost:5173"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/songs", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamDisabled(t *testing.T) {
	h := newTestServer(t, Config{DefaultUser: "guest"})

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/ws", "", nil, nil))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrPlaylistNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrInvalidVolume))
	assert.Equal(t, http.StatusUnauthorized, statusFor(domain.ErrUnauthenticated))
	assert.Equal(t, http.StatusConflict, statusFor(domain.ErrNoTrackLoaded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
