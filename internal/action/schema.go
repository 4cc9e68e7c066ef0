// Package action declares the actions the decision backend may invoke, validates
// their arguments and executes them against Jira.
package action

import (
	"github.com/invopop/jsonschema"
)

// FieldType is the primitive JSON type of an argument
type FieldType string

// String is the only argument type the current actions need
const String FieldType = "string"

// Field describes one argument of an action
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Enum        []string
	Required    bool
}

// Definition describes a callable action. Definitions are built once at
// start-up and shared read-only between the decision adapter, which
// advertises them, and Validate, which enforces them.
type Definition struct {
	Name        string
	Description string
	Fields      []Field
}

// Schema renders the definition's arguments as a JSON schema object
func (d Definition) Schema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	var required []string
	for _, f := range d.Fields {
		prop := &jsonschema.Schema{
			Type:        string(f.Type),
			Description: f.Description,
		}
		for _, e := range f.Enum {
			prop.Enum = append(prop.Enum, e)
		}
		props.Set(f.Name, prop)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// Argument names of CreateIssue
const (
	ArgProject     = "project"
	ArgTitle       = "title"
	ArgDescription = "description"
	ArgIssueType   = "issuetype"
)

// Issue types accepted by CreateIssue
var IssueTypes = []string{"Task", "Story", "Epic"}

// CreateIssueName is the name the decision backend uses to request issue creation
const CreateIssueName = "create_jira_issue"

// CreateIssue creates an issue in Jira
var CreateIssue = Definition{
	Name: CreateIssueName,
	Description: "Create an issue in Jira. Call this only when the user asks to send " +
		"documentation (usually a story) to Jira and has named the Jira project.",
	Fields: []Field{
		{
			Name:        ArgProject,
			Type:        String,
			Description: "Key of the Jira project the issue is created in. Only use a project the user named; never guess it.",
			Required:    true,
		},
		{
			Name:        ArgTitle,
			Type:        String,
			Description: "Issue title: a short summary phrase of up to four words.",
			Required:    true,
		},
		{
			Name:        ArgDescription,
			Type:        String,
			Description: "Issue description. For stories, markdown in BDD format with scenarios and acceptance criteria.",
			Required:    true,
		},
		{
			Name:        ArgIssueType,
			Type:        String,
			Description: "Type of the issue to create.",
			Enum:        IssueTypes,
			Required:    true,
		},
	},
}
