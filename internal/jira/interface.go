package jira

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tuannvm/jira-story-agent/internal/models"
)

// ErrMissingCredentials is returned when a client is built from credentials
// that are absent or cannot possibly work.
var ErrMissingCredentials = errors.New("jira credentials are missing or malformed")

// Credentials identify the Jira site and account issues are created with
type Credentials struct {
	BaseURL  string
	Username string
	APIToken string
}

// Validate reports, wrapping ErrMissingCredentials, what is wrong with c
func (c Credentials) Validate() error {
	if c.BaseURL == "" || c.Username == "" || c.APIToken == "" {
		return fmt.Errorf("%w: url, email and API token are all required", ErrMissingCredentials)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %v", ErrMissingCredentials, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) address", ErrMissingCredentials)
	}
	return nil
}

// IsZero reports whether no credential field is set
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// BrowseURL returns the link a user can open for the given issue key
func (c Credentials) BrowseURL(key string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/browse/" + key
}

// RequestError is a failed call to Jira. StatusCode is zero when no HTTP
// response was received.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("jira request failed: %v", e.Err)
	}
	return fmt.Sprintf("jira request failed with status %d: %v", e.StatusCode, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IssueCreator defines the Jira operations the agent needs
type IssueCreator interface {
	CreateIssue(ctx context.Context, req models.IssueRequest) (*models.CreatedIssue, error)
}

// ClientFactory builds an IssueCreator for a set of credentials. It must fail
// with an error wrapping ErrMissingCredentials when the credentials are unusable.
type ClientFactory func(creds Credentials) (IssueCreator, error)
