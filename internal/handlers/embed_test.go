package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/roadboard/internal/app"
	"github.com/charlesng35/roadboard/internal/embed"
	"github.com/charlesng35/roadboard/internal/handlers/testutil"
	"github.com/charlesng35/roadboard/internal/models"
)

type embedPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Features []struct {
		ID        string        `json:"id"`
		Title     string        `json:"title"`
		Status    models.Status `json:"status"`
		VoteCount int           `json:"voteCount"`
		Votes     any           `json:"votes"`
	} `json:"features"`
	EmbedStyles    models.EmbedStyles   `json:"embedStyles"`
	DefaultStyles  embed.ResolvedStyles `json:"defaultStyles"`
	ResolvedStyles embed.ResolvedStyles `json:"resolvedStyles"`
}

func TestEmbedVisibilityScenario(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Login("alice@example.com", "Alice")
	roadmap := createRoadmap(t, env, alice.Token, "Q1 Plan", false)
	feature := createFeature(t, env, alice.Token, roadmap.ID, "Login", models.StatusBacklog)

	path := "/api/roadmap/" + roadmap.ID + "/embed"

	w := env.Request(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Roadmap not found or not public", testutil.DecodeResponse(t, w).Error.Message)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = env.Request(http.MethodPatch, "/api/roadmap/"+roadmap.ID, map[string]any{"isPublic": true}, alice.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/api/feature/"+feature.ID+"/vote", map[string]string{"sessionId": "visitor"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var payload embedPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &payload)
	require.Equal(t, roadmap.ID, payload.ID)
	require.Equal(t, "Q1 Plan", payload.Name)
	require.Len(t, payload.Features, 1)
	require.Equal(t, "Login", payload.Features[0].Title)
	require.Equal(t, 1, payload.Features[0].VoteCount)
	require.Nil(t, payload.Features[0].Votes)
	require.Equal(t, models.EmbedStyles{}, payload.EmbedStyles)

	require.Equal(t, embed.Defaults(), payload.DefaultStyles)
	require.Equal(t, "#6b7280", payload.ResolvedStyles.StatusColors[models.StatusBacklog])
	require.Equal(t, "#3b82f6", payload.ResolvedStyles.StatusColors[models.StatusNextUp])
	require.Equal(t, "#f59e0b", payload.ResolvedStyles.StatusColors[models.StatusInProgress])
	require.Equal(t, "#10b981", payload.ResolvedStyles.StatusColors[models.StatusDone])
}

func TestEmbedPreflightAndFraming(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithConfig(func(cfg *app.Config) {
		cfg.Embed.FrameAncestors = []string{"https://blog.example.com"}
	}))
	alice := env.Login("alice@example.com", "Alice")
	roadmap := createRoadmap(t, env, alice.Token, "Public", true)

	w := env.Request(http.MethodOptions, "/api/roadmap/"+roadmap.ID+"/embed", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")

	w = env.Request(http.MethodGet, "/embed/roadmap/"+roadmap.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("X-Frame-Options"))
	require.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors https://blog.example.com")

	w = env.Request(http.MethodGet, "/api/roadmap", nil, alice.Token)
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestEmbedPage(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Login("alice@example.com", "Alice")
	roadmap := createRoadmap(t, env, alice.Token, "Launch", true)

	w := env.Request(http.MethodGet, "/embed/roadmap/"+roadmap.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	require.Contains(t, w.Body.String(), "Launch")
	require.Contains(t, w.Body.String(), "#3b82f6")

	w = env.Request(http.MethodPatch, "/api/roadmap/"+roadmap.ID, map[string]any{
		"embedStyles": map[string]any{
			"primaryColor": "#ff0000",
			"statusColors": map[string]string{"DONE": "#000000"},
		},
	}, alice.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	createFeature(t, env, alice.Token, roadmap.ID, "Shipped", models.StatusDone)

	w = env.Request(http.MethodGet, "/embed/roadmap/"+roadmap.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "#ff0000")
	require.Contains(t, w.Body.String(), "#000000")
	require.Contains(t, w.Body.String(), "Shipped")

	w = env.Request(http.MethodGet, "/embed/roadmap/missing", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
