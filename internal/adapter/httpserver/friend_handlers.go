package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AddFriendHandler befriends the named user on behalf of the caller.
func (s *Server) AddFriendHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Username string `json:"username" validate:"required,min=3,max=64"`
		}
		if err := decodeValidated(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		friend, err := s.Friends.Add(r.Context(), UserFromContext(r.Context()), req.Username)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"friend": toUserView(friend)})
	}
}

// RemoveFriendHandler ends the friendship with the named user.
func (s *Server) RemoveFriendHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Friends.Remove(r.Context(), UserFromContext(r.Context()), chi.URLParam(r, "username")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListFriendsHandler returns the caller's friends.
func (s *Server) ListFriendsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		friends, err := s.Friends.List(r.Context(), UserFromContext(r.Context()))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		views := make([]userView, 0, len(friends))
		for _, f := range friends {
			views = append(views, toUserView(f))
		}
		writeJSON(w, http.StatusOK, map[string]any{"friends": views})
	}
}
