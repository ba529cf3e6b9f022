/*
Package plan provides the core task-plan reconciliation engine.

PURPOSE:
  This package contains the domain types and algorithms that keep every
  customer's task checklist (their "Plan") synchronized with centrally
  edited task rules, grouped by subscription package, without ever
  discarding customer progress.

KEY CONCEPTS IN THIS FILE (types.go):
  - PlanTaskRule: A template describing one task for a package
  - RuleSet: All rules + section ordering for one package
  - PlanTask: One customer-owned, mutable task instance derived from a rule
  - Plan: A customer's materialized checklist, organized into sections
  - Customer: Read-only selection input owned by customer management

DESIGN PRINCIPLES:
  1. Templates are authoritative: rule-derived fields are always rewritten
  2. Progress is sticky: customer state survives every reconciliation
  3. Precision: goal tracking uses decimal.Decimal, never float64
  4. Dates in documents are plain ISO strings; empty string means "none"

USAGE:
  due := plan.DueDate(cust.DateJoined, rule, time.Now())
  task := plan.Merge(existing, rule, due, time.Now(), "ops@example.com")

SEE ALSO:
  - duedate.go: Frequency policy -> concrete due date
  - merge.go: Create/merge of task instances
  - resync.go: Whole-plan reconciliation against a rule set
  - store.go: Persistence interfaces
*/
package plan

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RuleID string
type CustomerID string

// =============================================================================
// PACKAGE KEYS - Fixed set of subscription packages
// =============================================================================

// PackageKey identifies a subscription package. Each package owns exactly
// one rule-set document. PackageDefault is the cloning source for new
// packages and carries no customers of its own.
type PackageKey string

const (
	PackageAcceleratorBasic    PackageKey = "acceleratorBasic"
	PackageAcceleratorStandard PackageKey = "acceleratorStandard"
	PackageAcceleratorPro      PackageKey = "acceleratorPro"
	PackageExtendedMaintenance PackageKey = "extendedMaintenance"
	PackageRegularMaintenance  PackageKey = "regularMaintenance"
	PackageSocial              PackageKey = "social"
	PackageDefault             PackageKey = "default"
)

var packageLabels = map[PackageKey]string{
	PackageAcceleratorBasic:    "Accelerator Basic",
	PackageAcceleratorStandard: "Accelerator Standard",
	PackageAcceleratorPro:      "Accelerator Pro",
	PackageExtendedMaintenance: "Extended Maintenance",
	PackageRegularMaintenance:  "Regular Maintenance",
	PackageSocial:              "Social",
	PackageDefault:             "Default",
}

// Label returns the human-readable display label. Used only at the
// presentation boundary; the engine keys everything on PackageKey.
func (k PackageKey) Label() string {
	if label, ok := packageLabels[k]; ok {
		return label
	}
	return string(k)
}

// Valid reports whether k is one of the fixed package keys.
func (k PackageKey) Valid() bool {
	_, ok := packageLabels[k]
	return ok
}

// Packages returns all package keys in display order.
func Packages() []PackageKey {
	return []PackageKey{
		PackageAcceleratorBasic,
		PackageAcceleratorStandard,
		PackageAcceleratorPro,
		PackageExtendedMaintenance,
		PackageRegularMaintenance,
		PackageSocial,
		PackageDefault,
	}
}

// =============================================================================
// FREQUENCY - How often a task recurs, drives due-date derivation
// =============================================================================

type Frequency string

const (
	FreqOneTime  Frequency = "oneTime"  // Due daysAfterJoin days after the customer joined
	FreqMonthly  Frequency = "monthly"  // Due on monthlyDueDate of the current month, rolls forward
	FreqAsNeeded Frequency = "asNeeded" // Never carries a due date
)

func (f Frequency) Valid() bool {
	switch f {
	case FreqOneTime, FreqMonthly, FreqAsNeeded:
		return true
	}
	return false
}

// =============================================================================
// PROGRESS - Customer-owned task state
// =============================================================================

type Progress string

const (
	ProgressToDo  Progress = "toDo"
	ProgressDoing Progress = "doing"
	ProgressDone  Progress = "done"
)

// =============================================================================
// RULE (TEMPLATE) SIDE
// =============================================================================

// SubTaskTemplate is one checklist item on a rule. The id is stable across
// text edits; completion state lives on the instance side only.
type SubTaskTemplate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PlanTaskRule is a template describing one recurring or one-time task for
// a subscription package. Rule ids are unique within their RuleSet.
type PlanTaskRule struct {
	ID      RuleID `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section"`
	Order   int    `json:"order"`

	Frequency     Frequency `json:"frequency"`
	DaysAfterJoin int       `json:"daysAfterJoin,omitempty"`
	MonthlyDueDay int       `json:"monthlyDueDate,omitempty"`

	IsActive bool `json:"isActive"`

	RequiresGoal   bool             `json:"requiresGoal,omitempty"`
	DefaultGoal    *decimal.Decimal `json:"defaultGoal,omitempty"`
	DefaultCurrent *decimal.Decimal `json:"defaultCurrent,omitempty"`

	SubTasks []SubTaskTemplate `json:"subTasks,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
}

// RuleSet is the full collection of rules plus section ordering for one
// package. Invariant: rule ids are unique within the set.
type RuleSet struct {
	Sections []string       `json:"sections"`
	Tasks    []PlanTaskRule `json:"tasks"`

	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
}

// =============================================================================
// INSTANCE SIDE
// =============================================================================

// SubTask is one checklist item on a task instance. Text comes from the
// rule; completion state belongs to the customer.
type SubTask struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	IsCompleted   bool   `json:"isCompleted"`
	CompletedDate string `json:"completedDate,omitempty"`
	CompletedBy   string `json:"completedBy,omitempty"`
}

// FileRef points at an uploaded attachment. Upload and storage are owned
// by an external subsystem; the engine only preserves the references.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PlanTask is one customer-owned task instance. Its id is the rule id it
// originated from, or a generated id for ad-hoc tasks.
type PlanTask struct {
	ID            RuleID    `json:"id"`
	Name          string    `json:"name"`
	Section       string    `json:"section"`
	Order         int       `json:"order"`
	Frequency     Frequency `json:"frequency"`
	DaysAfterJoin int       `json:"daysAfterJoin,omitempty"`
	IsActive      bool      `json:"isActive"`

	Progress      Progress `json:"progress"`
	DueDate       string   `json:"dueDate,omitempty"`
	CompletedDate string   `json:"completedDate,omitempty"`

	Current decimal.Decimal `json:"current"`
	Goal    decimal.Decimal `json:"goal"`

	Notes               string    `json:"notes,omitempty"`
	AssignedTeamMembers []string  `json:"assignedTeamMembers,omitempty"`
	Files               []FileRef `json:"files,omitempty"`
	SubTasks            []SubTask `json:"subTasks,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
}

// Section groups ordered tasks under a title. Titles are unique within
// a Plan.
type Section struct {
	Title string     `json:"title"`
	Tasks []PlanTask `json:"tasks"`
}

// Plan is one customer's materialized checklist. Created lazily from the
// customer's package rule set on first access.
type Plan struct {
	Sections  []Section `json:"sections"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// =============================================================================
// CUSTOMER - Read-only selection input
// =============================================================================

// CustomerType distinguishes paying customers from trials. Only paid
// customers are ever touched by rule propagation.
type CustomerType string

const (
	CustomerPaid  CustomerType = "paid"
	CustomerTrial CustomerType = "trial"
)

// Customer is the slice of the customer document this engine reads. The
// collection is owned by customer management; the engine never writes it.
type Customer struct {
	ID          CustomerID   `json:"id"`
	Email       string       `json:"email"`
	Type        CustomerType `json:"customer_type"`
	PackageType PackageKey   `json:"package_type"`
	IsActive    bool         `json:"isActive"`
	DateJoined  *time.Time   `json:"date_joined,omitempty"`
}

// =============================================================================
// DOCUMENT DATE FORMAT
// =============================================================================

// DateLayout is the wire format for dueDate/completedDate fields.
const DateLayout = "2006-01-02"

// FormatDate renders t in the document date format.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// ParseDate parses a document date. Empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
