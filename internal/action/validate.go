package action

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tuannvm/jira-story-agent/internal/models"
)

// Problem is one reason an argument was rejected
type Problem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every argument that failed validation
type ValidationError struct {
	Action   string
	Missing  []string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Reason)
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Action, strings.Join(parts, "; "))
}

// Category always returns models.ValidationFailed
func (e *ValidationError) Category() models.ErrorCategory { return models.ValidationFailed }

// MissingField reports whether name was missing
func (e *ValidationError) MissingField(name string) bool {
	return slices.Contains(e.Missing, name)
}

// Instruction tells the decision backend how to recover. A missing project is
// never something to fill in: the user has to name it.
func (e *ValidationError) Instruction() string {
	if e.MissingField(ArgProject) {
		return "The Jira project was not provided. Do not guess it: ask the user which Jira project the issue should be created in, then try again."
	}
	return "Ask the user for the missing or invalid information, then try again."
}

// Values are arguments that passed validation, keyed by field name
type Values map[string]string

// Validate checks raw arguments against def. Required fields must be present,
// be strings and not be blank; enumerated fields must match one of their
// values exactly. Values are returned unchanged and undeclared fields dropped.
func Validate(def Definition, raw map[string]any) (Values, error) {
	verr := &ValidationError{Action: def.Name}
	values := make(Values, len(def.Fields))

	for _, f := range def.Fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			if f.Required {
				verr.Missing = append(verr.Missing, f.Name)
			}
			continue
		}

		s, ok := v.(string)
		if !ok {
			verr.Problems = append(verr.Problems, Problem{Field: f.Name, Reason: fmt.Sprintf("must be a %s, got %T", f.Type, v)})
			continue
		}
		if strings.TrimSpace(s) == "" {
			if f.Required {
				verr.Missing = append(verr.Missing, f.Name)
			}
			continue
		}
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
			verr.Problems = append(verr.Problems, Problem{Field: f.Name, Reason: fmt.Sprintf("must be one of %s, got %q", strings.Join(f.Enum, ", "), s)})
			continue
		}
		values[f.Name] = s
	}

	if len(verr.Missing) > 0 || len(verr.Problems) > 0 {
		return nil, verr
	}
	return values, nil
}

// IssueArguments are validated CreateIssue arguments
type IssueArguments struct {
	Project     string
	Title       string
	Description string
	IssueType   string
}

// Request converts the arguments into a create-issue request
func (a IssueArguments) Request() models.IssueRequest {
	return models.IssueRequest{
		ProjectKey:  a.Project,
		Summary:     a.Title,
		Description: a.Description,
		IssueType:   a.IssueType,
	}
}

// ValidateIssue validates raw arguments against CreateIssue
func ValidateIssue(raw map[string]any) (IssueArguments, error) {
	values, err := Validate(CreateIssue, raw)
	if err != nil {
		return IssueArguments{}, err
	}
	return IssueArguments{
		Project:     values[ArgProject],
		Title:       values[ArgTitle],
		Description: values[ArgDescription],
		IssueType:   values[ArgIssueType],
	}, nil
}
