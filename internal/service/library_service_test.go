package service

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/logger"
)

func testCatalog() []domain.Track {
	return []domain.Track{
		{ID: "1", Title: "Tum Hi Ho", Artist: "Arijit Singh", Mood: "romantic", Cover: "/covers/1.jpg", URL: "/songs/1.mp3"},
		{ID: "2", Title: "Kala Chashma", Artist: "Badshah & Neha Kakkar", Mood: "party", URL: "/songs/2.mp3"},
		{ID: "3", Title: "Channa Mereya", Artist: "Arijit Singh", Mood: "sad", Cover: "/covers/3.jpg", URL: "/songs/3.mp3"},
		{ID: "4", Title: "Genda Phool", Artist: "Badshah", Mood: "party", Cover: "/covers/4.jpg", URL: "/songs/4.mp3"},
	}
}

// Helper to create a test library service loaded with testCatalog
func newTestLibraryService(t *testing.T) (*LibraryService, *staticSource, *eventRecorder) {
	t.Helper()
	env := newTestEnv(t)
	events := recordEvents(env.bus)
	source := &staticSource{tracks: testCatalog()}
	service := NewLibraryService(logger.NewTestLogger(), source, env.bus)
	require.NoError(t, service.Reload(context.Background()))
	return service, source, events
}

func TestLibraryService_Reload(t *testing.T) {
	service, _, events := newTestLibraryService(t)

	assert.Equal(t, 4, service.Count())
	assert.Equal(t, testCatalog(), service.Tracks())

	loaded := events.ofType(domain.EventCatalogLoaded)
	require.Len(t, loaded, 1)
	assert.Equal(t, 4, loaded[0].(domain.CatalogLoadedEvent).Count)
}

func TestLibraryService_ReloadFailureKeepsCatalog(t *testing.T) {
	service, source, events := newTestLibraryService(t)
	source.set(nil, errors.New("disk gone"))

	err := service.Reload(context.Background())

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "Reload", svcErr.Op)
	assert.Equal(t, 4, service.Count())
	assert.Len(t, events.ofType(domain.EventCatalogLoaded), 1)
}

func TestLibraryService_Track(t *testing.T) {
	service, _, _ := newTestLibraryService(t)

	track, err := service.Track("3")
	require.NoError(t, err)
	assert.Equal(t, "Channa Mereya", track.Title)

	_, err = service.Track("99")
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
	assert.True(t, domain.IsNotFound(err))
}

func TestLibraryService_TracksByIDs(t *testing.T) {
	service, _, _ := newTestLibraryService(t)

	tracks := service.TracksByIDs([]string{"4", "99", "1"})

	assert.Equal(t, []string{"4", "1"}, historyIDs(tracks))
	assert.Empty(t, service.TracksByIDs(nil))
}

func TestLibraryService_Search(t *testing.T) {
	service, _, _ := newTestLibraryService(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3", "4"}},
		{"arijit", []string{"1", "3"}},
		{"PARTY", []string{"2", "4"}},
		{"mereya", []string{"3"}},
		{"nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, historyIDs(service.Search(tt.query)))
		})
	}
}

func TestLibraryService_Artists(t *testing.T) {
	service, _, _ := newTestLibraryService(t)

	artists := service.Artists("")

	assert.Equal(t, []domain.Artist{
		{Name: "Arijit Singh", SongCount: 2, Cover: "/covers/1.jpg"},
		{Name: "Badshah", SongCount: 2, Cover: DefaultCover},
		{Name: "Neha Kakkar", SongCount: 1, Cover: DefaultCover},
	}, artists)

	filtered := service.Artists("kak")
	require.Len(t, filtered, 1)
	assert.Equal(t, "Neha Kakkar", filtered[0].Name)
}

func TestLibraryService_ArtistTracks(t *testing.T) {
	service, _, _ := newTestLibraryService(t)

	assert.Equal(t, []string{"2", "4"}, historyIDs(service.ArtistTracks("badshah")))
	assert.Equal(t, []string{"2"}, historyIDs(service.ArtistTracks("Neha Kakkar")))
	assert.Empty(t, service.ArtistTracks("Nobody"))
}
