package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charlesng35/roadboard/internal/handlers/testutil"
	"github.com/charlesng35/roadboard/internal/middleware"
)

func newMemoryRateStore(t *testing.T) *middleware.MemoryRateStore {
	t.Helper()
	store := middleware.NewMemoryRateStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func serve(env *testutil.Env, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}
