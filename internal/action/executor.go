package action

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tuannvm/jira-story-agent/internal/jira"
	log "github.com/tuannvm/jira-story-agent/internal/logging"
	"github.com/tuannvm/jira-story-agent/internal/models"
)

// Result is the outcome of one action invocation
type Result struct {
	Action   string
	Issue    *models.CreatedIssue
	Category models.ErrorCategory // empty on success
	Message  string
	Missing  []string
	// Duplicate is set when an identical, already successful invocation was
	// answered from history instead of being executed again.
	Duplicate bool
}

// OK reports whether the action succeeded
func (r Result) OK() bool { return r.Category == "" }

// Content is the result as reported back to the decision backend
func (r Result) Content() map[string]any {
	if r.OK() {
		content := map[string]any{"status": "created"}
		if r.Issue != nil {
			content["id"] = r.Issue.ID
			content["key"] = r.Issue.Key
			content["link"] = r.Issue.Link
		}
		if r.Duplicate {
			content["duplicate"] = true
			content["message"] = "This issue was already created earlier in this turn; it was not created again."
		}
		return content
	}
	content := map[string]any{
		"status":   "error",
		"category": string(r.Category),
		"message":  r.Message,
	}
	if len(r.Missing) > 0 {
		content["missing"] = r.Missing
	}
	return content
}

// Failed builds an error result for category with its standard message
func Failed(name string, category models.ErrorCategory) Result {
	return Result{Action: name, Category: category, Message: category.UserMessage()}
}

// Invalid builds the result reported when validation rejects the arguments
func Invalid(name string, err *ValidationError) Result {
	return Result{
		Action:   name,
		Category: models.ValidationFailed,
		Message:  err.Error() + ". " + err.Instruction(),
		Missing:  err.Missing,
	}
}

// Executor creates Jira issues from validated arguments
type Executor struct {
	factory jira.ClientFactory
	timeout time.Duration
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithTimeout bounds each create-issue call
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

// NewExecutor creates an Executor that builds its Jira clients with factory
func NewExecutor(factory jira.ClientFactory, opts ...ExecutorOption) *Executor {
	e := &Executor{factory: factory, timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute creates one issue with creds. Failures are classified; the backend's
// own error text is only logged.
func (e *Executor) Execute(ctx context.Context, creds jira.Credentials, args IssueArguments) Result {
	client, err := e.factory(creds)
	if err != nil {
		log.Warnf("Cannot build Jira client: %v", err)
		return Failed(CreateIssueName, Classify(err))
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	issue, err := client.CreateIssue(ctx, args.Request())
	if err != nil {
		category := Classify(err)
		log.Errorf("Failed to create %s in project %s (%s): %v", args.IssueType, args.Project, category, err)
		return Failed(CreateIssueName, category)
	}

	log.Infof("Created Jira issue %s (%s)", issue.Key, issue.Link)
	return Result{Action: CreateIssueName, Issue: issue}
}

// Classify maps a Jira failure to an error category
func Classify(err error) models.ErrorCategory {
	if errors.Is(err, jira.ErrMissingCredentials) {
		return models.MissingCredentials
	}

	var reqErr *jira.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.StatusCode == http.StatusUnauthorized:
			return models.MissingCredentials
		case reqErr.StatusCode >= 400 && reqErr.StatusCode < 500:
			return models.BackendRejected
		}
	}
	return models.BackendUnavailable
}
