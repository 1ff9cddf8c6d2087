package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/logger"
)

// Helper to create a test collection service with deterministic ids and clock
func newTestCollectionService(t *testing.T) (*CollectionService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	service := NewCollectionService(logger.NewTestLogger(), env.playlists, env.likes, env.follows, env.bus)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	next := 0
	service.newID = func() string {
		next++
		return fmt.Sprintf("pl-%d", next)
	}
	return service, env
}

func TestCollectionService_CreatePlaylist(t *testing.T) {
	ctx := context.Background()
	service, env := newTestCollectionService(t)
	events := recordEvents(env.bus)

	first, err := service.CreatePlaylist(ctx, "alice", "  Road Trip ")
	require.NoError(t, err)
	second, err := service.CreatePlaylist(ctx, "alice", "")
	require.NoError(t, err)
	third, err := service.CreatePlaylist(ctx, "alice", "   ")
	require.NoError(t, err)

	assert.Equal(t, "Road Trip", first.Name)
	assert.Equal(t, "pl-1", first.ID)
	assert.Equal(t, "My Playlist #2", second.Name)
	assert.Equal(t, "My Playlist #3", third.Name)
	assert.NotNil(t, first.Songs)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)

	all, err := service.Playlists(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	others, err := service.Playlists(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, others)

	created := events.ofType(domain.EventPlaylistChanged)
	require.Len(t, created, 3)
	assert.Equal(t, domain.PlaylistCreated, created[0].(domain.PlaylistChangedEvent).Action)
}

func TestCollectionService_AddSongIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestCollectionService(t)
	playlist, err := service.CreatePlaylist(ctx, "alice", "Mix")
	require.NoError(t, err)
	track := createTestTrack("a", "A", "X")

	added, err := service.AddSongToPlaylist(ctx, "alice", playlist.ID, track)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = service.AddSongToPlaylist(ctx, "alice", playlist.ID, track)
	require.NoError(t, err)
	assert.False(t, added)

	stored, err := service.Playlist(ctx, "alice", playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, historyIDs(stored.Songs))
	assert.True(t, stored.UpdatedAt.After(stored.CreatedAt))
}

func TestCollectionService_RemoveSong(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestCollectionService(t)
	playlist, err := service.CreatePlaylist(ctx, "alice", "Mix")
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		_, err := service.AddSongToPlaylist(ctx, "alice", playlist.ID, createTestTrack(id, id, "X"))
		require.NoError(t, err)
	}

	removed, err := service.RemoveSongFromPlaylist(ctx, "alice", playlist.ID, "b")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = service.RemoveSongFromPlaylist(ctx, "alice", playlist.ID, "b")
	require.NoError(t, err)
	assert.False(t, removed)

	stored, err := service.Playlist(ctx, "alice", playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, historyIDs(stored.Songs))
}

func TestCollectionService_UnknownPlaylist(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestCollectionService(t)

	_, err := service.Playlist(ctx, "alice", "missing")
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)

	_, err = service.AddSongToPlaylist(ctx, "alice", "missing", createTestTrack("a", "A", "X"))
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)

	_, err = service.RemoveSongFromPlaylist(ctx, "alice", "missing", "a")
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)

	_, err = service.RenamePlaylist(ctx, "alice", "missing", "New")
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)

	assert.ErrorIs(t, service.RemovePlaylist(ctx, "alice", "missing"), domain.ErrPlaylistNotFound)
}

func TestCollectionService_RenameAndRemovePlaylist(t *testing.T) {
	ctx := context.Background()
	service, env := newTestCollectionService(t)
	events := recordEvents(env.bus)
	keep, err := service.CreatePlaylist(ctx, "alice", "Keep")
	require.NoError(t, err)
	drop, err := service.CreatePlaylist(ctx, "alice", "Drop")
	require.NoError(t, err)

	_, err = service.RenamePlaylist(ctx, "alice", keep.ID, " ")
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	renamed, err := service.RenamePlaylist(ctx, "alice", keep.ID, "Kept")
	require.NoError(t, err)
	assert.Equal(t, "Kept", renamed.Name)

	require.NoError(t, service.RemovePlaylist(ctx, "alice", drop.ID))

	all, err := service.Playlists(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Kept", all[0].Name)

	changes := events.ofType(domain.EventPlaylistChanged)
	require.Len(t, changes, 4)
	assert.Equal(t, domain.PlaylistUpdated, changes[2].(domain.PlaylistChangedEvent).Action)
	assert.Equal(t, domain.PlaylistDeleted, changes[3].(domain.PlaylistChangedEvent).Action)
}

func TestCollectionService_ToggleLike(t *testing.T) {
	ctx := context.Background()
	service, env := newTestCollectionService(t)
	events := recordEvents(env.bus)

	liked, err := service.ToggleLike(ctx, "alice", "a")
	require.NoError(t, err)
	assert.True(t, liked)
	_, err = service.ToggleLike(ctx, "alice", "b")
	require.NoError(t, err)

	isLiked, err := service.IsLiked(ctx, "alice", "a")
	require.NoError(t, err)
	assert.True(t, isLiked)

	liked, err = service.ToggleLike(ctx, "alice", "a")
	require.NoError(t, err)
	assert.False(t, liked)

	likes, err := service.Likes(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, likes)

	toggles := events.ofType(domain.EventLikeToggled)
	require.Len(t, toggles, 3)
	assert.False(t, toggles[2].(domain.LikeToggledEvent).Liked)
}

func TestCollectionService_ToggleFollowArtist(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestCollectionService(t)

	followed, err := service.ToggleFollowArtist(ctx, "alice", "Arijit Singh")
	require.NoError(t, err)
	assert.True(t, followed)

	followed, err = service.ToggleFollowArtist(ctx, "alice", "arijit singh")
	require.NoError(t, err)
	assert.False(t, followed)

	_, err = service.ToggleFollowArtist(ctx, "alice", "")
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	artists, err := service.FollowedArtists(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, artists)
}

func TestCollectionService_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	service, env := newTestCollectionService(t)
	playlist, err := service.CreatePlaylist(ctx, "alice", "Mix")
	require.NoError(t, err)
	_, err = service.ToggleLike(ctx, "alice", "a")
	require.NoError(t, err)

	reopened := NewCollectionService(logger.NewTestLogger(), env.playlists, env.likes, env.follows, env.bus)

	stored, err := reopened.Playlist(ctx, "alice", playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mix", stored.Name)
	liked, err := reopened.IsLiked(ctx, "alice", "a")
	require.NoError(t, err)
	assert.True(t, liked)
}
