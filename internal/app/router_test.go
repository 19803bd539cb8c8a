package app_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/essay-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/essay-evaluator/internal/app"
	"github.com/fairyhunter13/essay-evaluator/internal/config"
	"github.com/fairyhunter13/essay-evaluator/internal/domain"
	"github.com/fairyhunter13/essay-evaluator/internal/usecase"
)

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"*"}, app.ParseOrigins(""))
	assert.Equal(t, []string{"*"}, app.ParseOrigins("*"))
	assert.Equal(t, []string{"*"}, app.ParseOrigins(" , ,"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		app.ParseOrigins(" https://a.example, https://b.example "))
}

type memUsers struct{ users map[string]domain.User }

func (r *memUsers) Create(_ domain.Context, u domain.User) (string, error) {
	for _, ex := range r.users {
		if ex.Username == u.Username {
			return "", domain.ErrConflict
		}
	}
	id := fmt.Sprintf("user-%d", len(r.users)+1)
	u.ID = id
	r.users[id] = u
	return id, nil
}

func (r *memUsers) GetByUsername(_ domain.Context, username string) (domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *memUsers) Get(_ domain.Context, id string) (domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

type memFriends struct {
	users *memUsers
	edges map[string]map[string]bool
}

func (f *memFriends) linked(a, b string) bool { return f.edges[a][b] }

func (f *memFriends) Add(_ domain.Context, userID, friendID string) error {
	if f.edges[userID] == nil {
		f.edges[userID] = map[string]bool{}
	}
	if f.edges[friendID] == nil {
		f.edges[friendID] = map[string]bool{}
	}
	f.edges[userID][friendID] = true
	f.edges[friendID][userID] = true
	return nil
}

func (f *memFriends) Remove(_ domain.Context, userID, friendID string) error {
	if !f.linked(userID, friendID) {
		return domain.ErrNotFound
	}
	delete(f.edges[userID], friendID)
	delete(f.edges[friendID], userID)
	return nil
}

func (f *memFriends) List(_ domain.Context, userID string) ([]domain.User, error) {
	var out []domain.User
	for id := range f.edges[userID] {
		if u, ok := f.users.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type memEssays struct {
	essays  map[string]domain.Essay
	order   []string
	friends *memFriends
}

func (r *memEssays) Create(_ domain.Context, e domain.Essay) (string, error) {
	id := fmt.Sprintf("essay-%d", len(r.order)+1)
	e.ID = id
	r.essays[id] = e
	r.order = append(r.order, id)
	return id, nil
}

func (r *memEssays) Get(_ domain.Context, id string) (domain.Essay, error) {
	e, ok := r.essays[id]
	if !ok {
		return domain.Essay{}, domain.ErrNotFound
	}
	return e, nil
}

func (r *memEssays) Replace(_ domain.Context, e domain.Essay) (domain.Essay, error) {
	cur, ok := r.essays[e.ID]
	if !ok {
		return domain.Essay{}, domain.ErrNotFound
	}
	if cur.Version != e.Version {
		return domain.Essay{}, domain.ErrConflict
	}
	e.Version++
	r.essays[e.ID] = e
	return e, nil
}

func (r *memEssays) Delete(_ domain.Context, id string) error {
	if _, ok := r.essays[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.essays, id)
	return nil
}

func (r *memEssays) Feed(_ domain.Context, viewerID string, limit int) ([]domain.Essay, error) {
	var out []domain.Essay
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		e, ok := r.essays[r.order[i]]
		if !ok {
			continue
		}
		switch {
		case e.Visibility == domain.VisibilityPublic || e.AuthorID == viewerID:
			out = append(out, e)
		case e.Visibility == domain.VisibilityFriends && r.friends.linked(e.AuthorID, viewerID):
			out = append(out, e)
		}
	}
	return out, nil
}

type memSessions struct{ sessions map[string]domain.Session }

func (s *memSessions) Put(_ domain.Context, sess domain.Session) error {
	s.sessions[sess.Token] = sess
	return nil
}

func (s *memSessions) Get(_ domain.Context, token string) (domain.Session, error) {
	sess, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return sess, nil
}

func (s *memSessions) Delete(_ domain.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

func newTestRouter() http.Handler {
	cfg := config.Config{
		MaxUploadMB:      1,
		RateLimitPerMin:  1000,
		HTTPWriteTimeout: 10 * time.Second,
		SessionTTL:       time.Hour,
	}
	users := &memUsers{users: map[string]domain.User{}}
	friends := &memFriends{users: users, edges: map[string]map[string]bool{}}
	essays := &memEssays{essays: map[string]domain.Essay{}, friends: friends}
	sessions := &memSessions{sessions: map[string]domain.Session{}}

	essaySvc := usecase.NewEssayService(essays, users)
	friendSvc := usecase.NewFriendService(friends, users)
	authSvc := usecase.NewAuthService(users, sessions, cfg.SessionTTL)
	srv := httpserver.NewServer(cfg, usecase.EvaluateService{}, essaySvc, friendSvc, authSvc, nil, nil)
	return app.BuildRouter(cfg, srv)
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "password": "supersecret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": "supersecret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func essayPayload(content string) map[string]any {
	return map[string]any{
		"caption":    "my essay",
		"content":    content,
		"visibility": "public",
		"evaluation": map[string]any{
			"score":        90.0,
			"document_sha": usecase.Fingerprint(content),
		},
	}
}

func TestRouter_AuthAndEssayFlow(t *testing.T) {
	t.Parallel()
	h := newTestRouter()
	token := registerAndLogin(t, h, "alice")

	// Create
	content := "An essay about rivers."
	rec := doJSON(t, h, http.MethodPost, "/api/essays", token, essayPayload(content))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Essay struct {
			ID      string `json:"id"`
			Version int    `json:"version"`
		} `json:"essay"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Essay.ID)
	assert.Equal(t, 1, created.Essay.Version)

	// Read without auth: public essay is visible.
	rec = doJSON(t, h, http.MethodGet, "/api/essays/"+created.Essay.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Feed
	rec = doJSON(t, h, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed struct {
		Posts []json.RawMessage `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Len(t, feed.Posts, 1)

	// Edit
	rec = doJSON(t, h, http.MethodPatch, "/api/essays/"+created.Essay.ID, token, map[string]string{
		"caption": "renamed", "visibility": "private",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Private essay now hidden from anonymous readers.
	rec = doJSON(t, h, http.MethodGet, "/api/essays/"+created.Essay.ID, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Delete
	rec = doJSON(t, h, http.MethodDelete, "/api/essays/"+created.Essay.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/essays/"+created.Essay.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_StaleEvaluationRejected(t *testing.T) {
	t.Parallel()
	h := newTestRouter()
	token := registerAndLogin(t, h, "bob")

	payload := essayPayload("original content")
	payload["content"] = "edited after evaluation"
	rec := doJSON(t, h, http.MethodPost, "/api/essays", token, payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func feedLen(t *testing.T, h http.Handler, token string) int {
	t.Helper()
	rec := doJSON(t, h, http.MethodGet, "/api/posts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var feed struct {
		Posts []json.RawMessage `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	return len(feed.Posts)
}

func TestRouter_FriendsVisibility(t *testing.T) {
	t.Parallel()
	h := newTestRouter()
	doraTok := registerAndLogin(t, h, "dora")
	evanTok := registerAndLogin(t, h, "evan")
	fayTok := registerAndLogin(t, h, "fay")

	payload := essayPayload("Evan writes for friends only.")
	payload["visibility"] = "friends"
	rec := doJSON(t, h, http.MethodPost, "/api/essays", evanTok, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Not friends yet: hidden from everyone but the author.
	assert.Equal(t, 0, feedLen(t, h, doraTok))
	assert.Equal(t, 1, feedLen(t, h, evanTok))

	rec = doJSON(t, h, http.MethodPost, "/api/friends", doraTok, map[string]string{"username": "evan"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added struct {
		Friend struct {
			Username string `json:"username"`
		} `json:"friend"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.Equal(t, "evan", added.Friend.Username)

	// Friendship is mutual: dora now sees the essay, fay still does not.
	assert.Equal(t, 1, feedLen(t, h, doraTok))
	assert.Equal(t, 0, feedLen(t, h, fayTok))

	rec = doJSON(t, h, http.MethodGet, "/api/friends", doraTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Friends []struct {
			Username string `json:"username"`
		} `json:"friends"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Friends, 1)
	assert.Equal(t, "evan", listed.Friends[0].Username)

	rec = doJSON(t, h, http.MethodDelete, "/api/friends/evan", doraTok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, feedLen(t, h, doraTok))

	// Removing again: the friendship no longer exists.
	rec = doJSON(t, h, http.MethodDelete, "/api/friends/evan", doraTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_FriendValidation(t *testing.T) {
	t.Parallel()
	h := newTestRouter()
	token := registerAndLogin(t, h, "gwen")

	rec := doJSON(t, h, http.MethodPost, "/api/friends", token, map[string]string{"username": "gwen"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/friends", token, map[string]string{"username": "nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/friends", "", map[string]string{"username": "gwen"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_MutationsRequireAuth(t *testing.T) {
	t.Parallel()
	h := newTestRouter()
	rec := doJSON(t, h, http.MethodPost, "/api/essays", "", essayPayload("no auth"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/essays", "bogus-token", essayPayload("bad token"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RegisterValidation(t *testing.T) {
	t.Parallel()
	h := newTestRouter()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "x", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Logout(t *testing.T) {
	t.Parallel()
	h := newTestRouter()
	token := registerAndLogin(t, h, "carol")

	rec := doJSON(t, h, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/essays", token, essayPayload("after logout"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()
	h := newTestRouter()
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	t.Parallel()
	h := newTestRouter()
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Content-Type-Options"))
}
