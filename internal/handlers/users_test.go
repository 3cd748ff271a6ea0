package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/roadboard/internal/handlers/testutil"
	"github.com/charlesng35/roadboard/internal/models"
	"github.com/charlesng35/roadboard/pkg/errors"
)

func TestUserCreate(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/user", map[string]any{
		"id":       "client-chosen",
		"name":     "Alice",
		"username": "Alice_01",
		"email":    "Alice@Example.com",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &user)
	require.NotEqual(t, "client-chosen", user.ID)
	require.Equal(t, "alice_01", user.Username)
	require.Equal(t, "alice@example.com", user.Email)

	w = env.Request(http.MethodPost, "/api/user", map[string]any{
		"name":     "Alice again",
		"username": "alice_01",
		"email":    "other@example.com",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Request(http.MethodPost, "/api/user", map[string]any{
		"name":     "Bad",
		"username": "no spaces",
		"email":    "not-an-email",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, errors.CodeValidation, resp.Error.Code)
	require.Contains(t, resp.Error.Message, "username may only contain letters, digits and underscores")
	require.Contains(t, resp.Error.Message, "email must be a valid email address")
}

func TestUserReadsRequireSession(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Login("alice@example.com", "Alice")

	w := env.Request(http.MethodGet, "/api/user", nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodGet, "/api/user", nil, alice.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &users)
	require.Len(t, users, 1)

	w = env.Request(http.MethodGet, "/api/user/"+alice.User.ID, nil, alice.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodGet, "/api/user/missing", nil, alice.Token)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserUpdateAndDeleteSelfOnly(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Login("alice@example.com", "Alice")
	bob := env.Login("bob@example.com", "Bob")

	w := env.Request(http.MethodPatch, "/api/user/"+alice.User.ID, map[string]any{"name": "Mallory"}, bob.Token)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Request(http.MethodPatch, "/api/user/"+alice.User.ID, map[string]any{
		"id":        alice.User.ID,
		"name":      "Alice Liddell",
		"avatarUrl": "https://example.com/alice.png",
	}, alice.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.User
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.Equal(t, "Alice Liddell", updated.Name)
	require.NotNil(t, updated.AvatarURL)

	w = env.Request(http.MethodPatch, "/api/user/"+alice.User.ID, map[string]any{"avatarUrl": "nope"}, alice.Token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Request(http.MethodDelete, "/api/user/"+alice.User.ID, nil, bob.Token)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.Request(http.MethodDelete, "/api/user/"+alice.User.ID, nil, alice.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var deleted models.User
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &deleted)
	require.Equal(t, alice.User.ID, deleted.ID)

	w = env.Request(http.MethodGet, "/api/user/"+alice.User.ID, nil, bob.Token)
	require.Equal(t, http.StatusNotFound, w.Code)
}
