package models

// ErrorCategory classifies why an action or a loop pass did not succeed.
// Categories are stable values: they are fed back to the decision backend
// and reported in metrics, so never rename them.
type ErrorCategory string

const (
	// MissingCredentials: Jira credentials were never configured, are
	// malformed, or were rejected as unauthenticated.
	MissingCredentials ErrorCategory = "missing_credentials"
	// BackendRejected: Jira was reached but refused the request.
	BackendRejected ErrorCategory = "backend_rejected"
	// BackendUnavailable: Jira could not be reached or failed server-side.
	BackendUnavailable ErrorCategory = "backend_unavailable"
	// ValidationFailed: the arguments did not match the action definition.
	ValidationFailed ErrorCategory = "validation_failed"
	// ProtocolError: the decision backend replied with something the loop
	// cannot act on.
	ProtocolError ErrorCategory = "protocol_error"
	// IterationBoundExceeded: the per-turn invocation cap was hit.
	IterationBoundExceeded ErrorCategory = "iteration_bound_exceeded"
	// DecisionBackendFailed: the decision backend call itself failed.
	DecisionBackendFailed ErrorCategory = "decision_backend_failed"
)

// UserMessage returns the user-readable explanation for the category.
func (c ErrorCategory) UserMessage() string {
	switch c {
	case MissingCredentials:
		return "Jira credentials are not configured or were not accepted. Please configure your Jira URL, email and API token and try again."
	case BackendRejected:
		return "Jira rejected the request. Please check that the project key exists and that your account is allowed to create issues of this type in it."
	case BackendUnavailable:
		return "Jira could not be reached right now. Please try again later."
	case ValidationFailed:
		return "The issue details are incomplete or invalid."
	case ProtocolError:
		return "Sorry, I could not understand the assistant backend's reply. Please rephrase your request."
	case IterationBoundExceeded:
		return "Sorry, I stopped after too many actions in a single turn. Please review what was done and tell me how to continue."
	case DecisionBackendFailed:
		return "Sorry, the assistant backend is unavailable right now. Please try again later."
	default:
		return "Something went wrong."
	}
}

// IssueRequest is the backend-neutral create-issue request.
type IssueRequest struct {
	ProjectKey  string `json:"projectKey"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	IssueType   string `json:"issueType"`
}

// CreatedIssue is what Jira assigned to a newly created issue.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Link string `json:"link"`
}
