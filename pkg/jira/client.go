// Package jira provides a minimal client for the Jira REST API, covering
// the issue reads needed to pull ticket context into an analysis.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// defaultRequestsPerSecond keeps issue fetches under Jira Cloud's
// per-user rate limits.
const defaultRequestsPerSecond = 5

// Client defines the Jira operations used for source collection.
type Client interface {
	// GetIssue fetches a single issue with its comments.
	GetIssue(ctx context.Context, key string) (*Issue, error)
}

// Issue is the subset of a Jira issue used in analysis context.
type Issue struct {
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

// Fields holds the issue fields requested from the API.
type Fields struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Status      NamedField `json:"status"`
	Priority    NamedField `json:"priority"`
	Created     string     `json:"created"`
	Updated     string     `json:"updated"`
	Comment     CommentBag `json:"comment"`
}

// NamedField is a Jira object referenced only by display name.
type NamedField struct {
	Name string `json:"name"`
}

// CommentBag wraps the comment list as Jira nests it.
type CommentBag struct {
	Comments []Comment `json:"comments"`
}

// Author identifies a comment author by display name.
type Author struct {
	DisplayName string `json:"displayName"`
}

// Comment is a single issue comment.
type Comment struct {
	Author  Author `json:"author"`
	Created string `json:"created"`
	Body    string `json:"body"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Jira client for one instance. baseURL is the
// instance root, e.g. https://example.atlassian.net. Authentication is
// basic auth with an API token.
func NewClient(baseURL, email, token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		token:   token,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GetIssue(ctx context.Context, key string) (*Issue, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "jira: rate limit wait")
	}

	reqURL := fmt.Sprintf("%s/rest/api/2/issue/%s?fields=summary,description,status,priority,created,updated,comment", c.baseURL, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "jira: create request")
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "jira: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "jira: read response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, eris.Errorf("jira: issue %s not found", key)
	default:
		return nil, eris.Errorf("jira: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, eris.Wrap(err, "jira: unmarshal issue")
	}
	return &issue, nil
}

// Render formats an issue as readable text for inclusion in analysis
// source data.
func (i *Issue) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", i.Key, i.Fields.Summary)
	if i.Fields.Status.Name != "" {
		fmt.Fprintf(&b, "Status: %s", i.Fields.Status.Name)
		if i.Fields.Priority.Name != "" {
			fmt.Fprintf(&b, " | Priority: %s", i.Fields.Priority.Name)
		}
		b.WriteString("\n")
	}
	if i.Fields.Created != "" {
		fmt.Fprintf(&b, "Created: %s | Updated: %s\n", i.Fields.Created, i.Fields.Updated)
	}
	if i.Fields.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", i.Fields.Description)
	}
	if len(i.Fields.Comment.Comments) > 0 {
		b.WriteString("\nComments:\n")
		for _, cm := range i.Fields.Comment.Comments {
			fmt.Fprintf(&b, "- %s (%s): %s\n", cm.Author.DisplayName, cm.Created, cm.Body)
		}
	}
	return b.String()
}
