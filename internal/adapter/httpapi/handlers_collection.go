package httpapi

import (
	"net/http"

	"github.com/tejashwikalptaru/gostream/internal/service"
)

type playlistRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.deps.Collections.Playlists(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var body playlistRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	playlist, err := s.deps.Collections.CreatePlaylist(r.Context(), UserID(r.Context()), body.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlist)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := s.deps.Collections.Playlist(r.Context(), UserID(r.Context()), pathParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (s *Server) handleRenamePlaylist(w http.ResponseWriter, r *http.Request) {
	var body playlistRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	playlist, err := s.deps.Collections.RenamePlaylist(r.Context(), UserID(r.Context()), pathParam(r, "id"), body.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Collections.RemovePlaylist(r.Context(), UserID(r.Context()), pathParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	track, err := s.deps.Library.Track(pathParam(r, "songId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	added, err := s.deps.Collections.AddSongToPlaylist(r.Context(), UserID(r.Context()), pathParam(r, "id"), track)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"added": added})
}

func (s *Server) handleRemoveFromPlaylist(w http.ResponseWriter, r *http.Request) {
	removed, err := s.deps.Collections.RemoveSongFromPlaylist(r.Context(), UserID(r.Context()), pathParam(r, "id"), pathParam(r, "songId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.deps.Preferences.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch service.PreferencesPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}

	prefs, err := s.deps.Preferences.Update(r.Context(), UserID(r.Context()), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.deps.Preferences.Reset(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
