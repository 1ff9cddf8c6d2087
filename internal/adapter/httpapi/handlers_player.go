package httpapi

import (
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/service"
)

type playerView struct {
	domain.PlayerState
	Status string  `json:"status"`
	Volume float64 `json:"volume"`
}

type playRequest struct {
	SongID string   `json:"songId"`
	Order  []string `json:"order,omitempty"`
	Index  *int     `json:"index,omitempty"`
}

type songRequest struct {
	SongID string `json:"songId"`
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

type seekRequest struct {
	Seconds float64 `json:"seconds"`
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

type progressRequest struct {
	Current  float64 `json:"current"`
	Duration float64 `json:"duration"`
}

type endedRequest struct {
	URL string `json:"url"`
}

// session resolves the caller's player session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*service.PlayerService, bool) {
	session, err := s.deps.Sessions.Session(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return session, true
}

func writeState(w http.ResponseWriter, session *service.PlayerService) {
	state := session.State()
	writeJSON(w, http.StatusOK, playerView{
		PlayerState: state,
		Status:      state.Status().String(),
		Volume:      session.Volume(),
	})
}

func (s *Server) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeState(w, session)
}

// handlePlay plays a song. With an order the play order is replaced; the
// index defaults to the song's position in it.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var body playRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	track, err := s.deps.Library.Track(body.SongID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	if body.Order == nil {
		session.Play(r.Context(), track)
		writeState(w, session)
		return
	}

	order := s.deps.Library.TracksByIDs(body.Order)
	if len(order) != len(body.Order) {
		s.fail(w, r, errors.Wrap(domain.ErrTrackNotFound, "order names unknown tracks"))
		return
	}
	index := slices.Index(body.Order, track.ID)
	if body.Index != nil {
		index = *body.Index
	}
	if err := session.PlayAt(r.Context(), track, order, index); err != nil {
		s.fail(w, r, err)
		return
	}
	writeState(w, session)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.Next(r.Context())
	writeState(w, session)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.Previous(r.Context())
	writeState(w, session)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.TogglePlayPause(r.Context())
	writeState(w, session)
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	s.handleMode(w, r, (*service.PlayerService).SetShuffle)
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	s.handleMode(w, r, (*service.PlayerService).SetRepeat)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request, set func(*service.PlayerService, bool) error) {
	var body toggleRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := set(session, body.Enabled); err != nil {
		s.fail(w, r, err)
		return
	}
	writeState(w, session)
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var body songRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	track, err := s.deps.Library.Track(body.SongID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.AddToQueue(track)
	writeState(w, session)
}

func (s *Server) handleDequeue(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.RemoveFromQueue(pathParam(r, "songId"))
	writeState(w, session)
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.ClearQueue()
	writeState(w, session)
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var body seekRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := session.Seek(r.Context(), seconds(body.Seconds)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeState(w, session)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var body volumeRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := session.SetVolume(r.Context(), body.Volume); err != nil {
		s.fail(w, r, err)
		return
	}
	writeState(w, session)
}

// handleDeviceProgress receives the browser's time updates.
func (s *Server) handleDeviceProgress(w http.ResponseWriter, r *http.Request) {
	var body progressRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.Reporter.ReportProgress(UserID(r.Context()), seconds(body.Current), seconds(body.Duration)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeviceEnded receives the browser's end-of-track notification.
func (s *Server) handleDeviceEnded(w http.ResponseWriter, r *http.Request) {
	var body endedRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	user := UserID(r.Context())
	session, ok := s.deps.Sessions.Lookup(user)
	if !ok {
		writeError(w, http.StatusConflict, "no active player session")
		return
	}

	s.deps.Reporter.ReportEnded(user, body.URL)
	writeState(w, session)
}

func seconds(v float64) time.Duration {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return -1
	}
	return time.Duration(v * float64(time.Second))
}
