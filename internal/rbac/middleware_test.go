package rbac

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voyage-res/voyage-res/internal/shared"
)

func newMiddlewareFixture() (Middleware, *mockRepo) {
	repo := newMockRepo()
	repo.addRole(1, "agent", 50, true)
	repo.addPermission(10, "reservations.view")
	repo.bind(1, 10)
	grantAt(repo, 100, 1, nil)
	mw := Middleware{
		Resolver: NewResolver(repo, nil),
		Clock:    func() time.Time { return testNow },
	}
	return mw, repo
}

func doRequest(mw func(http.Handler) http.Handler, actor *shared.Actor) *httptest.ResponseRecorder {
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
	if actor != nil {
		req = req.WithContext(shared.ContextWithActor(req.Context(), actor))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAnyAllowsGrantedPermission(t *testing.T) {
	mw, _ := newMiddlewareFixture()

	rec := doRequest(mw.RequireAny("reservations.view"), &shared.Actor{UserID: 100})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyRejectsMissingPermission(t *testing.T) {
	mw, _ := newMiddlewareFixture()

	rec := doRequest(mw.RequireAny("reservations.edit"), &shared.Actor{UserID: 100})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAnyRejectsAnonymous(t *testing.T) {
	mw, _ := newMiddlewareFixture()

	rec := doRequest(mw.RequireAny("reservations.view"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAnyFailsClosedOnResolverError(t *testing.T) {
	mw, repo := newMiddlewareFixture()
	repo.listAssignmentsErr = errors.New("connection refused")

	rec := doRequest(mw.RequireAny("reservations.view"), &shared.Actor{UserID: 100})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireAllNeedsEveryPermission(t *testing.T) {
	mw, repo := newMiddlewareFixture()

	rec := doRequest(mw.RequireAll("reservations.view", "reservations.edit"), &shared.Actor{UserID: 100})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	repo.addPermission(11, "reservations.edit")
	repo.bind(1, 11)
	rec = doRequest(mw.RequireAll("reservations.view", "reservations.edit"), &shared.Actor{UserID: 100})
	assert.Equal(t, http.StatusOK, rec.Code)
}
