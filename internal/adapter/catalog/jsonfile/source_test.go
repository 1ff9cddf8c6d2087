package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/logger"
)

const sample = `[
  {"id": 1, "title": "Tum Hi Ho", "artist": "Arijit Singh", "cover": "/covers/1.jpg", "url": "/songs/1.mp3", "mood": "romantic"},
  {"id": "2", "title": "Kala Chashma", "artist": "Badshah", "url": "/songs/2.mp3", "mood": "party"},
  {"id": 3, "title": "", "artist": "Nobody", "url": "/songs/3.mp3"},
  {"title": "No Id", "url": "/songs/4.mp3"},
  {"id": "2", "title": "Duplicate", "url": "/songs/5.mp3"},
  {"id": 6.5, "title": "Fractional", "url": "/songs/6.mp3"}
]`

func TestParse(t *testing.T) {
	source := New(Config{Path: "unused"}, logger.NewTestLogger())

	tracks, err := source.Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, tracks, 3)
	assert.Equal(t, domain.Track{
		ID:     "1",
		Title:  "Tum Hi Ho",
		Artist: "Arijit Singh",
		Cover:  "/covers/1.jpg",
		URL:    "/songs/1.mp3",
		Mood:   "romantic",
	}, tracks[0])
	assert.Equal(t, "2", tracks[1].ID)
	assert.Equal(t, "Kala Chashma", tracks[1].Title)
	assert.Equal(t, "6.5", tracks[2].ID)
}

func TestParse_Malformed(t *testing.T) {
	source := New(Config{Path: "unused"}, logger.NewTestLogger())

	_, err := source.Parse([]byte(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	source := New(Config{Path: path}, logger.NewTestLogger())
	tracks, err := source.Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, tracks, 3)
	assert.Equal(t, path, source.Path())
}

func TestLoad_MissingFile(t *testing.T) {
	source := New(Config{Path: filepath.Join(t.TempDir(), "missing.json")}, logger.NewTestLogger())

	_, err := source.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{Path: "unused"}, logger.NewTestLogger()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs.json")
	want := []domain.Track{
		{ID: "a1", Title: "One", Artist: "A", URL: "/songs/a1.mp3", Album: "First"},
		{ID: "b2", Title: "Two", Artist: "B", URL: "/songs/b2.mp3"},
	}

	require.NoError(t, Write(path, want))

	got, err := New(Config{Path: path}, logger.NewTestLogger()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
