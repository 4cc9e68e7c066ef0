package jira

import (
	"context"
	"fmt"
	"net/http"
	"time"

	v2 "github.com/ctreminiom/go-atlassian/v2/jira/v2"
	atlassian "github.com/ctreminiom/go-atlassian/v2/pkg/infra/models"

	log "github.com/tuannvm/jira-story-agent/internal/logging"
	"github.com/tuannvm/jira-story-agent/internal/models"
)

// Client creates Jira issues through the go-atlassian REST v2 client
type Client struct {
	creds    Credentials
	instance *v2.Client
}

// NewAtlassianClient creates a new Jira client based on go-atlassian
func NewAtlassianClient(creds Credentials, httpClient *http.Client) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	instance, err := v2.New(httpClient, creds.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	}
	instance.Auth.SetBasicAuth(creds.Username, creds.APIToken)

	return &Client{creds: creds, instance: instance}, nil
}

// NewClientFactory returns a ClientFactory producing go-atlassian clients whose
// HTTP calls are bounded by timeout
func NewClientFactory(timeout time.Duration) ClientFactory {
	return func(creds Credentials) (IssueCreator, error) {
		return NewAtlassianClient(creds, &http.Client{Timeout: timeout})
	}
}

// CreateIssue creates one issue. It never retries.
func (c *Client) CreateIssue(ctx context.Context, req models.IssueRequest) (*models.CreatedIssue, error) {
	payload := &atlassian.IssueSchemeV2{
		Fields: &atlassian.IssueFieldsSchemeV2{
			Project:     &atlassian.ProjectScheme{Key: req.ProjectKey},
			Summary:     req.Summary,
			Description: req.Description,
			IssueType:   &atlassian.IssueTypeScheme{Name: req.IssueType},
		},
	}

	log.Debugf("Creating %s in project %s", req.IssueType, req.ProjectKey)
	created, resp, err := c.instance.Issue.Create(ctx, payload, nil)
	if err != nil {
		return nil, &RequestError{StatusCode: statusCode(resp), Err: err}
	}
	if created == nil || created.Key == "" {
		return nil, &RequestError{StatusCode: statusCode(resp), Err: fmt.Errorf("response did not contain an issue key")}
	}

	return &models.CreatedIssue{
		ID:   created.ID,
		Key:  created.Key,
		Link: c.creds.BrowseURL(created.Key),
	}, nil
}

func statusCode(resp *atlassian.ResponseScheme) int {
	if resp == nil {
		return 0
	}
	if resp.Response != nil {
		return resp.Response.StatusCode
	}
	return resp.Code
}
