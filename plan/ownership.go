/*
ownership.go - Declarative preserve-vs-overwrite policy for merges

PURPOSE:
  Every field on a task instance is owned by exactly one side: the rule
  template (rewritten on every merge) or the customer (never touched by
  reconciliation). The policy lives here as data, consulted by the merge,
  instead of being scattered across per-field conditionals.

SPECIAL FIELDS:
  A few fields fit neither bucket and are handled explicitly in merge.go:
  - ID:        identity, pinned to the rule id
  - Goal:      template-owned only when the rule supplies a defaultGoal
  - SubTasks:  rebuilt from the template, completion carried forward per id
  - UpdatedAt, UpdatedBy: audit stamp of the current merge
*/
package plan

import "reflect"

type FieldOwner string

const (
	OwnerTemplate FieldOwner = "template" // overwritten from the rule on every merge
	OwnerCustomer FieldOwner = "customer" // sticky, reconciliation never writes it
	OwnerSpecial  FieldOwner = "special"  // handled explicitly by the merge
)

// TaskFieldOwners classifies every PlanTask field. Completeness over the
// struct is enforced by a test that iterates the type's fields.
var TaskFieldOwners = map[string]FieldOwner{
	"ID":            OwnerSpecial,
	"Name":          OwnerTemplate,
	"Section":       OwnerTemplate,
	"Order":         OwnerTemplate,
	"Frequency":     OwnerTemplate,
	"DaysAfterJoin": OwnerTemplate,
	"IsActive":      OwnerTemplate,

	"Progress":            OwnerCustomer,
	"DueDate":             OwnerTemplate, // recomputed fresh, never trusted from storage
	"CompletedDate":       OwnerCustomer,
	"Current":             OwnerCustomer,
	"Goal":                OwnerSpecial,
	"Notes":               OwnerCustomer,
	"AssignedTeamMembers": OwnerCustomer,
	"Files":               OwnerCustomer,
	"SubTasks":            OwnerSpecial,

	"UpdatedAt": OwnerSpecial,
	"UpdatedBy": OwnerSpecial,
}

// copyTemplateOwned overwrites every template-owned field on dst with the
// value from src, leaving customer-owned and special fields alone.
func copyTemplateOwned(dst *PlanTask, src PlanTask) {
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src)
	for name, owner := range TaskFieldOwners {
		if owner != OwnerTemplate {
			continue
		}
		dv.FieldByName(name).Set(sv.FieldByName(name))
	}
}
