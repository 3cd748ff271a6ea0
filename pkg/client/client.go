// Package client is a Go client for the roadboard JSON API.
//
// Every call decodes the {success, data, error} envelope and returns the
// payload typed as the server's models. Failures carry the HTTP status and
// the server's error code as an [*APIError].
//
//	c := client.New("http://localhost:8000", client.WithToken(token))
//	roadmaps, err := c.ListRoadmaps(ctx)
//
// Client instances are safe for concurrent use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charlesng35/roadboard/internal/models"
)

const defaultTimeout = 30 * time.Second

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("roadboard api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("roadboard api: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client calls the roadboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option customises a Client.
type Option func(*Client)

// WithToken sends token as a Bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default 30 second timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for baseURL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RoadmapInput is the body for creating or updating a roadmap.
type RoadmapInput struct {
	Name        *string             `json:"name,omitempty"`
	IsPublic    *bool               `json:"isPublic,omitempty"`
	EmbedStyles *models.EmbedStyles `json:"embedStyles,omitempty"`
}

// FeatureInput is the body for creating a feature or replacing its fields.
type FeatureInput struct {
	ID          string        `json:"id,omitempty"`
	RoadmapID   string        `json:"roadmapId,omitempty"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      models.Status `json:"status"`
}

func (c *Client) CreateRoadmap(ctx context.Context, input RoadmapInput) (*models.Roadmap, error) {
	var out models.Roadmap
	if err := c.do(ctx, http.MethodPost, "/api/roadmap", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListRoadmaps(ctx context.Context) ([]models.Roadmap, error) {
	var out []models.Roadmap
	if err := c.do(ctx, http.MethodGet, "/api/roadmap", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRoadmap loads a roadmap board. featureStatus may be empty.
func (c *Client) GetRoadmap(ctx context.Context, id string, featureStatus models.Status) (*models.Roadmap, error) {
	path := "/api/roadmap/" + url.PathEscape(id)
	if featureStatus != "" {
		path += "?featureStatus=" + url.QueryEscape(string(featureStatus))
	}
	var out models.Roadmap
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRoadmap(ctx context.Context, id string, input RoadmapInput) (*models.Roadmap, error) {
	var out models.Roadmap
	if err := c.do(ctx, http.MethodPatch, "/api/roadmap/"+url.PathEscape(id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRoadmap(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/roadmap/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateFeature(ctx context.Context, input FeatureInput) (*models.Feature, error) {
	var out models.Feature
	if err := c.do(ctx, http.MethodPost, "/api/feature", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateFeature replaces the title, description and status of a feature.
func (c *Client) UpdateFeature(ctx context.Context, id string, input FeatureInput) (*models.Feature, error) {
	input.ID = id
	var out models.Feature
	if err := c.do(ctx, http.MethodPatch, "/api/feature/"+url.PathEscape(id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFeature soft deletes a feature and returns it as deleted.
func (c *Client) DeleteFeature(ctx context.Context, id string) (*models.Feature, error) {
	var out models.Feature
	if err := c.do(ctx, http.MethodDelete, "/api/feature/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RestoreFeature(ctx context.Context, id string) (*models.Feature, error) {
	var out models.Feature
	if err := c.do(ctx, http.MethodPost, "/api/feature/"+url.PathEscape(id)+"/restore", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("roadboard api: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("roadboard api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("roadboard api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return decode(resp, target)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(resp *http.Response, target any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("roadboard api: read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 400 {
			return fmt.Errorf("roadboard api: decode response: %w", err)
		}
	}

	if resp.StatusCode >= 400 || (len(raw) > 0 && !env.Success) {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if target == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("roadboard api: decode data: %w", err)
	}
	return nil
}
