package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/roadboard/internal/models"
)

func TestUpdateFeatureSendsBodyAndDecodesEnvelope(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/feature/f1", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"f1","title":"Login","status":"DONE","roadmapId":"r1"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithToken("tok"))
	feature, err := c.UpdateFeature(context.Background(), "f1", FeatureInput{Title: "Login", Status: models.StatusDone})
	require.NoError(t, err)

	require.Equal(t, "Bearer tok", gotAuth)
	require.Equal(t, "f1", gotBody["id"])
	require.Equal(t, "DONE", gotBody["status"])
	require.Contains(t, gotBody, "description")
	require.Nil(t, gotBody["description"])

	require.Equal(t, "f1", feature.ID)
	require.Equal(t, models.StatusDone, feature.Status)
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHORIZED","message":"You are not authorized to access this resource."}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).DeleteFeature(context.Background(), "f1")
	require.Error(t, err)
	require.True(t, IsStatus(err, http.StatusUnauthorized))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UNAUTHORIZED", apiErr.Code)
	require.Equal(t, "You are not authorized to access this resource.", apiErr.Message)
}

func TestNonJSONErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListRoadmaps(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, "bad gateway", apiErr.Message)
}

func TestGetRoadmapEncodesFeatureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/roadmap/r1", r.URL.Path)
		require.Equal(t, "IN_PROGRESS", r.URL.Query().Get("featureStatus"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"r1","name":"Q1 Plan","isPublic":false,"embedStyles":{},"users":[]}}`))
	}))
	defer srv.Close()

	roadmap, err := New(srv.URL).GetRoadmap(context.Background(), "r1", models.StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, "Q1 Plan", roadmap.Name)
}
