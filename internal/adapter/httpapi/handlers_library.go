package httpapi

import (
	"net/http"
)

type userView struct {
	ID              string   `json:"id"`
	Likes           []string `json:"likes"`
	FollowedArtists []string `json:"followedArtists"`
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Library.Search(r.URL.Query().Get("q")))
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	track, err := s.deps.Library.Track(pathParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Library.Artists(r.URL.Query().Get("q")))
}

func (s *Server) handleArtistSongs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Library.ArtistTracks(pathParam(r, "name")))
}

func (s *Server) handleToggleFollow(w http.ResponseWriter, r *http.Request) {
	ctx, user := r.Context(), UserID(r.Context())

	followed, err := s.deps.Collections.ToggleFollowArtist(ctx, user, pathParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	artists, err := s.deps.Collections.FollowedArtists(ctx, user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"followed":        followed,
		"followedArtists": artists,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx, user := r.Context(), UserID(r.Context())

	likes, err := s.deps.Collections.Likes(ctx, user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	artists, err := s.deps.Collections.FollowedArtists(ctx, user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userView{ID: user, Likes: likes, FollowedArtists: artists})
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx, user := r.Context(), UserID(r.Context())

	track, err := s.deps.Library.Track(pathParam(r, "songId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	liked, err := s.deps.Collections.ToggleLike(ctx, user, track.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	likes, err := s.deps.Collections.Likes(ctx, user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "likes": likes})
}

func (s *Server) handleLiked(w http.ResponseWriter, r *http.Request) {
	likes, err := s.deps.Collections.Likes(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Library.TracksByIDs(likes))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	recent, err := s.deps.Stats.Recent(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Stats.Stats(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
