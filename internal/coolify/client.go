// Package coolify is the outbound client for the Coolify REST API. The
// gateway treats Coolify as a black box: the client exposes exactly the
// calls the services need and hides transport details.
package coolify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Application is a Coolify application row. UUID is the identifier every
// other endpoint keys on.
type Application struct {
	UUID         string `json:"uuid"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	GitCommitSHA string `json:"git_commit_sha"`
}

// Env is one application environment variable, with the flags Coolify
// requires echoed back on bulk updates.
type Env struct {
	UUID        string `json:"uuid,omitempty"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	IsBuildTime bool   `json:"is_build_time"`
	IsPreview   bool   `json:"is_preview"`
	IsMultiline bool   `json:"is_multiline"`
	IsShowOnce  bool   `json:"is_show_once"`
}

// Deployment is one deployment record of an application.
type Deployment struct {
	Status    string    `json:"status"`
	CommitSHA string    `json:"commit_sha"`
	CreatedAt time.Time `json:"created_at"`
}

// Container is one running container of an application.
type Container struct {
	Image  string            `json:"image"`
	Labels map[string]string `json:"labels"`
}

// Client talks to one Coolify instance with a bearer API key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// New creates a client for the given base URL and API key.
func New(baseURL, apiKey string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// GetApplications lists every application visible to the API key.
func (c *Client) GetApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.getJSON(ctx, "/api/v1/applications", &apps); err != nil {
		return nil, fmt.Errorf("coolify: fetch applications: %w", err)
	}
	return apps, nil
}

// GetApplication returns one application. When Coolify reports the commit
// as the symbolic "HEAD" the client tries to resolve the real SHA from
// deployments, then container labels, then image tags; resolution failures
// leave the symbolic value in place.
func (c *Client) GetApplication(ctx context.Context, appID string) (*Application, error) {
	var app Application
	if err := c.getJSON(ctx, "/api/v1/applications/"+appID, &app); err != nil {
		return nil, fmt.Errorf("coolify: fetch application %s: %w", appID, err)
	}

	if app.GitCommitSHA == "HEAD" {
		if sha := c.resolveCommitSHA(ctx, appID); sha != "" {
			app.GitCommitSHA = sha
		}
	}

	return &app, nil
}

// Start starts the application.
func (c *Client) Start(ctx context.Context, appID string) error {
	return c.post(ctx, "/api/v1/applications/"+appID+"/start", nil, nil)
}

// Stop stops the application.
func (c *Client) Stop(ctx context.Context, appID string) error {
	return c.post(ctx, "/api/v1/applications/"+appID+"/stop", nil, nil)
}

// Restart restarts the application.
func (c *Client) Restart(ctx context.Context, appID string) error {
	return c.post(ctx, "/api/v1/applications/"+appID+"/restart", nil, nil)
}

// GetEnvs lists the application's environment variables. A failing envs
// endpoint degrades to an empty list rather than an error so env listing
// never breaks the management UI.
func (c *Client) GetEnvs(ctx context.Context, appID string) []Env {
	var envs []Env
	if err := c.getJSON(ctx, "/api/v1/applications/"+appID+"/envs", &envs); err != nil {
		c.log.Warn("coolify envs unavailable", zap.String("app", appID), zap.Error(err))
		return nil
	}
	return envs
}

// UpdateEnv sets one variable (addressed by its uuid) to value and pushes
// the whole set back through the bulk endpoint, preserving the flags of the
// untouched entries.
func (c *Client) UpdateEnv(ctx context.Context, appID, envUUID, value string) error {
	current := c.GetEnvs(ctx, appID)

	updated := make([]Env, 0, len(current)+1)
	found := false
	for _, env := range current {
		v := env.Value
		if env.UUID == envUUID {
			v = value
			found = true
		}
		updated = append(updated, Env{
			Key:         env.UUID,
			Value:       v,
			IsBuildTime: env.IsBuildTime,
			IsPreview:   env.IsPreview,
			IsMultiline: env.IsMultiline,
			IsShowOnce:  env.IsShowOnce,
		})
	}
	if !found {
		updated = append(updated, Env{Key: envUUID, Value: value})
	}

	payload := map[string]any{"data": updated}
	if err := c.patch(ctx, "/api/v1/applications/"+appID+"/envs/bulk", payload); err != nil {
		return fmt.Errorf("coolify: update envs for %s: %w", appID, err)
	}
	return nil
}

// GetLogs returns the application's recent log lines.
func (c *Client) GetLogs(ctx context.Context, appID string, lines int) ([]string, error) {
	var body struct {
		Logs []string `json:"logs"`
	}
	path := fmt.Sprintf("/api/v1/applications/%s/logs?lines=%d", appID, lines)
	if err := c.getJSON(ctx, path, &body); err != nil {
		return nil, fmt.Errorf("coolify: fetch logs for %s: %w", appID, err)
	}
	return body.Logs, nil
}

// GetDeployments lists the application's deployments.
func (c *Client) GetDeployments(ctx context.Context, appID string) ([]Deployment, error) {
	var deployments []Deployment
	if err := c.getJSON(ctx, "/api/v1/applications/"+appID+"/deployments", &deployments); err != nil {
		return nil, fmt.Errorf("coolify: fetch deployments for %s: %w", appID, err)
	}
	return deployments, nil
}

// GetContainers lists the application's containers.
func (c *Client) GetContainers(ctx context.Context, appID string) ([]Container, error) {
	var containers []Container
	if err := c.getJSON(ctx, "/api/v1/applications/"+appID+"/containers", &containers); err != nil {
		return nil, fmt.Errorf("coolify: fetch containers for %s: %w", appID, err)
	}
	return containers, nil
}

var shaPattern = regexp.MustCompile(`^[a-f0-9]{40}$|^[a-f0-9]{7,8}$`)

// resolveCommitSHA tries each strategy in order and returns "" when none
// yields a usable SHA.
func (c *Client) resolveCommitSHA(ctx context.Context, appID string) string {
	if deployments, err := c.GetDeployments(ctx, appID); err == nil {
		finished := deployments[:0:0]
		for _, d := range deployments {
			if d.Status == "success" || d.Status == "finished" {
				finished = append(finished, d)
			}
		}
		sort.Slice(finished, func(i, j int) bool {
			return finished[i].CreatedAt.After(finished[j].CreatedAt)
		})
		if len(finished) > 0 && finished[0].CommitSHA != "" && finished[0].CommitSHA != "HEAD" {
			return finished[0].CommitSHA
		}
	}

	containers, err := c.GetContainers(ctx, appID)
	if err != nil {
		return ""
	}
	for _, container := range containers {
		if sha := container.Labels["coolify.commit"]; sha != "" {
			return sha
		}
	}
	for _, container := range containers {
		if idx := strings.LastIndexByte(container.Image, ':'); idx >= 0 {
			if tag := container.Image[idx+1:]; shaPattern.MatchString(tag) {
				return tag
			}
		}
	}

	return ""
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) patch(ctx context.Context, path string, body any) error {
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else if method != http.MethodGet {
		reader = strings.NewReader("{}")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
