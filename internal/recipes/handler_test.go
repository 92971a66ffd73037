package recipes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoran/recipe-keeper/internal/middleware"
	"github.com/lmoran/recipe-keeper/internal/models"
	"github.com/lmoran/recipe-keeper/internal/store"
)

// --- fakes ---

type fakeUserStore struct {
	mu   sync.Mutex
	byID map[string]*models.User
}

func (f *fakeUserStore) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeSessions struct {
	mu sync.Mutex
	m  map[string]string
}

func (f *fakeSessions) Create(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sid := fmt.Sprintf("tok-%d", len(f.m)+1)
	f.m[sid] = userID
	return sid, nil
}

func (f *fakeSessions) Get(_ context.Context, sessionID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[sessionID], nil
}

func (f *fakeSessions) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, sessionID)
	return nil
}

// fakeRecipeStore mirrors the Postgres store's contract: domain validation
// with rollback semantics and owner fields attached on return.
type fakeRecipeStore struct {
	mu              sync.Mutex
	recipes         []models.Recipe
	users           *fakeUserStore
	minInstructions int
	nextID          int
}

func (f *fakeRecipeStore) CreateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(r.Instructions) < f.minInstructions {
		return nil, &store.ValidationError{
			Field:   "instructions",
			Message: fmt.Sprintf("Instructions must be at least %d characters long.", f.minInstructions),
		}
	}
	f.nextID++
	r.ID = fmt.Sprintf("r-%d", f.nextID)
	owner, err := f.users.GetUserByID(ctx, r.UserID)
	if err != nil {
		return nil, err
	}
	r.Owner = *owner
	f.recipes = append(f.recipes, *r)
	return r, nil
}

func (f *fakeRecipeStore) ListRecipesByUser(_ context.Context, userID string) ([]models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Recipe
	for _, r := range f.recipes {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- harness ---

type harness struct {
	router   *chi.Mux
	users    *fakeUserStore
	sessions *fakeSessions
	recipes  *fakeRecipeStore
}

func newHarness(minInstructions int) *harness {
	users := &fakeUserStore{byID: map[string]*models.User{}}
	sessions := &fakeSessions{m: map[string]string{}}
	recs := &fakeRecipeStore{users: users, minInstructions: minInstructions}
	h := NewHandler(recs)

	r := chi.NewRouter()
	r.Route("/recipes", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions, users))
		r.Get("/", h.List)
		r.Post("/", h.Create)
	})
	return &harness{router: r, users: users, sessions: sessions, recipes: recs}
}

func (h *harness) signIn(t *testing.T, username string) *http.Cookie {
	t.Helper()
	u, err := h.users.CreateUser(context.Background(), &models.User{
		ID:       "u-" + username,
		Username: username,
		ImageURL: "http://img/" + username,
		Bio:      "bio of " + username,
	})
	require.NoError(t, err)
	sid, err := h.sessions.Create(context.Background(), u.ID)
	require.NoError(t, err)
	return &http.Cookie{Name: "session_id", Value: sid}
}

func (h *harness) do(t *testing.T, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// --- tests ---

func TestListRequiresAuth(t *testing.T) {
	h := newHarness(10)

	w := h.do(t, http.MethodGet, "/recipes", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestCreateRequiresAuth(t *testing.T) {
	h := newHarness(10)

	w := h.do(t, http.MethodPost, "/recipes", `{"title":"t","instructions":"x","minutes_to_complete":5}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndRoundTrip(t *testing.T) {
	h := newHarness(10)
	cookie := h.signIn(t, "alice")

	body := `{"title":"Shakshuka","instructions":"Simmer tomatoes, crack eggs on top, cover until set.","minutes_to_complete":25}`
	w := h.do(t, http.MethodPost, "/recipes", body, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.RecipeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Shakshuka", created.Title)
	assert.Equal(t, 25, created.MinutesToComplete)
	assert.Equal(t, "u-alice", created.User.ID)
	assert.Equal(t, "alice", created.User.Username)

	// every accepted field comes back unchanged from the listing
	list := h.do(t, http.MethodGet, "/recipes", "", cookie)
	require.Equal(t, http.StatusOK, list.Code)
	var got []models.RecipeView
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, created, got[0])
}

func TestCreateZeroMinutesIsValid(t *testing.T) {
	h := newHarness(5)
	cookie := h.signIn(t, "alice")

	w := h.do(t, http.MethodPost, "/recipes",
		`{"title":"Ice cubes","instructions":"Freeze water overnight.","minutes_to_complete":0}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.RecipeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 0, created.MinutesToComplete)
}

func TestCreateMissingMinutesRejected(t *testing.T) {
	h := newHarness(5)
	cookie := h.signIn(t, "alice")

	w := h.do(t, http.MethodPost, "/recipes",
		`{"title":"Ice cubes","instructions":"Freeze water overnight."}`, cookie)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":"Invalid data"}`, w.Body.String())
}

func TestCreateMissingTitleOrInstructionsRejected(t *testing.T) {
	h := newHarness(5)
	cookie := h.signIn(t, "alice")

	for _, body := range []string{
		`{"instructions":"Freeze water overnight.","minutes_to_complete":1}`,
		`{"title":"Ice cubes","minutes_to_complete":1}`,
	} {
		w := h.do(t, http.MethodPost, "/recipes", body, cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
		assert.JSONEq(t, `{"error":"Invalid data"}`, w.Body.String(), body)
	}
}

func TestCreateShortInstructionsIsFieldError(t *testing.T) {
	h := newHarness(50)
	cookie := h.signIn(t, "alice")

	w := h.do(t, http.MethodPost, "/recipes",
		`{"title":"Toast","instructions":"Toast bread.","minutes_to_complete":3}`, cookie)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors["instructions"], "at least 50 characters")

	// nothing persisted
	list := h.do(t, http.MethodGet, "/recipes", "", cookie)
	assert.JSONEq(t, `[]`, list.Body.String())
}

func TestListIsOwnerScoped(t *testing.T) {
	h := newHarness(5)
	alice := h.signIn(t, "alice")
	bob := h.signIn(t, "bob")

	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/recipes",
		`{"title":"Alice dish","instructions":"Stir thoroughly and serve.","minutes_to_complete":10}`, alice).Code)
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/recipes",
		`{"title":"Bob dish","instructions":"Bake at 200C for an hour.","minutes_to_complete":60}`, bob).Code)

	list := h.do(t, http.MethodGet, "/recipes", "", alice)
	require.Equal(t, http.StatusOK, list.Code)

	var got []models.RecipeView
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Alice dish", got[0].Title)
	assert.Equal(t, "u-alice", got[0].User.ID)
}

func TestCreateIgnoresClientSuppliedOwner(t *testing.T) {
	h := newHarness(5)
	cookie := h.signIn(t, "alice")
	h.signIn(t, "mallory")

	w := h.do(t, http.MethodPost, "/recipes",
		`{"title":"Spoof","instructions":"Attempt to write as someone else.","minutes_to_complete":1,"user_id":"u-mallory"}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.RecipeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "u-alice", created.User.ID)
}

func TestStaleSessionUserRejected(t *testing.T) {
	h := newHarness(5)

	// session exists but the user record does not
	sid, err := h.sessions.Create(context.Background(), "u-gone")
	require.NoError(t, err)

	w := h.do(t, http.MethodGet, "/recipes", "", &http.Cookie{Name: "session_id", Value: sid})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}
