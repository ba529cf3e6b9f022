/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The plan package's
  document types already are the wire format (they mirror the persisted
  documents field for field), so most responses return them directly;
  the types here cover everything else: package listings, rule writes,
  task updates and error envelopes.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and in plan.ValidateRule, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - plan/types.go: Document types returned directly
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/craftdesk/plan-engine/plan"
)

// PackageDTO represents one subscription package key.
type PackageDTO struct {
	Key   plan.PackageKey `json:"key"`
	Label string          `json:"label"`
}

// SaveRuleRequest is the request to create or update a rule. An empty id
// on create means "generate one".
type SaveRuleRequest struct {
	Rule plan.PlanTaskRule `json:"rule"`
}

// SaveSectionsRequest replaces a rule set's section ordering.
type SaveSectionsRequest struct {
	Sections []string `json:"sections"`
}

// UpdateTaskRequest is a partial write to one task's customer-owned
// fields. Absent fields are left alone.
type UpdateTaskRequest struct {
	Progress            *plan.Progress         `json:"progress,omitempty"`
	CompletedDate       *string                `json:"completedDate,omitempty"`
	Current             *decimal.Decimal       `json:"current,omitempty"`
	Notes               *string                `json:"notes,omitempty"`
	AssignedTeamMembers *[]string              `json:"assignedTeamMembers,omitempty"`
	Files               *[]plan.FileRef        `json:"files,omitempty"`
	SubTasks            []SubTaskUpdateRequest `json:"subTasks,omitempty"`
}

// SubTaskUpdateRequest toggles completion for one subtask id.
type SubTaskUpdateRequest struct {
	ID            string `json:"id"`
	IsCompleted   bool   `json:"isCompleted"`
	CompletedDate string `json:"completedDate,omitempty"`
}

// AddTaskRequest appends an ad-hoc task to a customer's plan.
type AddTaskRequest struct {
	Section string `json:"section"`
	Name    string `json:"name"`
}

// CustomerDTO represents a customer in selection views.
type CustomerDTO struct {
	ID          plan.CustomerID   `json:"id"`
	Email       string            `json:"email"`
	Type        plan.CustomerType `json:"customer_type"`
	PackageType plan.PackageKey   `json:"package_type"`
	IsActive    bool              `json:"isActive"`
	DateJoined  string            `json:"date_joined,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
