package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

func newTestRouter(repo Repository) http.Handler {
	h := NewHandler(repo, logging.Default())
	r := chi.NewRouter()
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Get("/users/admin/{email}", h.IsAdmin)
	r.Put("/users/admin/{id}", h.PromoteAdmin)
	return r
}

func TestInMemoryCreateIsInsertIfAbsent(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, created, err := repo.Create(ctx, &CreateUserRequest{Email: " A@X.com ", Name: "Ann"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "a@x.com", first.Email)
	assert.Equal(t, RoleNone, first.Role)

	second, created, err := repo.Create(ctx, &CreateUserRequest{Email: "a@x.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestInMemoryPromote(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	user, _, err := repo.Create(ctx, &CreateUserRequest{Email: "b@x.com"})
	require.NoError(t, err)

	_, err = repo.PromoteToAdmin(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	promoted, err := repo.PromoteToAdmin(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())

	loaded, err := repo.GetByEmail(ctx, "B@x.com")
	require.NoError(t, err)
	assert.True(t, loaded.IsAdmin())
}

func TestCreateRejectsInvalidEmail(t *testing.T) {
	repo := NewInMemoryRepository()
	_, _, err := repo.Create(context.Background(), &CreateUserRequest{Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestHandlerCreateAndList(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	body, _ := json.Marshal(CreateUserRequest{Email: "c@x.com", Name: "Cat"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, true, result["acknowledged"])
	assert.NotEmpty(t, result["insertedId"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, false, result["acknowledged"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var users []User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 1)
}

func TestHandlerCreateBadBody(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"email":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerIsAdmin(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	user, _, err := repo.Create(ctx, &CreateUserRequest{Email: "admin@x.com"})
	require.NoError(t, err)
	_, err = repo.PromoteToAdmin(ctx, user.ID)
	require.NoError(t, err)
	router := newTestRouter(repo)

	cases := map[string]bool{
		"admin@x.com":  true,
		"nobody@x.com": false,
	}
	for email, want := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/admin/"+email, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]bool
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, want, resp["isAdmin"], email)
	}
}

func TestHandlerPromoteUnknownUser(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/users/admin/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingRepository struct{ InMemoryRepository }

func (*failingRepository) List(context.Context) ([]*User, error) {
	return nil, errors.New("boom")
}

func TestHandlerListStoreFailure(t *testing.T) {
	router := newTestRouter(&failingRepository{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPostgresRepository(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC()
	cols := []string{"id", "email", "name", "role", "created_at"}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "d@x.com", "Dee").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "d@x.com", "Dee", "", now))
	user, created, err := repo.Create(ctx, &CreateUserRequest{Email: "D@x.com", Name: "Dee"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, id.String(), user.ID)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "d@x.com", "").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM users").
		WithArgs("d@x.com").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "d@x.com", "Dee", "", now))
	user, created, err = repo.Create(ctx, &CreateUserRequest{Email: "d@x.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id.String(), user.ID)

	mock.ExpectQuery("UPDATE users SET role").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "d@x.com", "Dee", "admin", now))
	promoted, err := repo.PromoteToAdmin(ctx, id.String())
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())

	mock.ExpectQuery("FROM users").
		WithArgs("ghost@x.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.PromoteToAdmin(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

// queryOnlyDB exposes just the read/write-by-query surface of a pool.
type queryOnlyDB struct {
	inner DB
}

func (q queryOnlyDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return q.inner.Query(ctx, sql, args...)
}

func (q queryOnlyDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.inner.QueryRow(ctx, sql, args...)
}

func TestPostgresRepositoryNeedsOnlyQueries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(queryOnlyDB{inner: mock})
	id := uuid.New()
	mock.ExpectQuery("FROM users").
		WithArgs("e@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "role", "created_at"}).
			AddRow(id, "e@x.com", "Eve", "", time.Now().UTC()))

	user, err := repo.GetByEmail(context.Background(), "e@x.com")
	require.NoError(t, err)
	assert.Equal(t, id.String(), user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
