/*
plans.go - Customer-facing plan access

PURPOSE:
  The "view my plan" path and the customer-owned task writes. This is the
  only place plans are created: a customer's plan is materialized lazily
  from their package's rule set on first access. Bulk propagation never
  creates plans.

  Task updates here touch exactly the customer-owned fields (progress,
  notes, completion, goal tracking, assignments, files, subtask
  completion). Template-owned fields are only ever written by
  reconciliation.
*/
package propagate

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/craftdesk/plan-engine/plan"
)

// ViewPlan returns a customer's plan, materializing and persisting it
// from the package rule set on first access. Only paid, active customers
// are eligible; anything else is ErrCustomerNotEligible.
func (e *Engine) ViewPlan(ctx context.Context, id plan.CustomerID, actor string) (*plan.Plan, error) {
	c, err := e.Store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Type != plan.CustomerPaid || !c.IsActive {
		return nil, fmt.Errorf("customer %s: %w", id, plan.ErrCustomerNotEligible)
	}

	p, err := e.Store.GetPlan(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, plan.ErrPlanNotFound) {
		return nil, err
	}

	rs, err := e.Store.GetRuleSet(ctx, c.PackageType)
	if err != nil {
		return nil, fmt.Errorf("loading rule set %s: %w", c.PackageType, err)
	}

	fresh := plan.Materialize(*rs, c.DateJoined, e.now(), actor)
	if err := e.Store.PutPlan(ctx, id, fresh); err != nil {
		return nil, fmt.Errorf("saving plan for %s: %w", id, err)
	}
	return &fresh, nil
}

// TaskUpdate is a partial write to the customer-owned fields of one task.
// Nil fields are left alone.
type TaskUpdate struct {
	Progress            *plan.Progress
	CompletedDate       *string
	Current             *decimal.Decimal
	Notes               *string
	AssignedTeamMembers *[]string
	Files               *[]plan.FileRef
	SubTasks            []SubTaskUpdate
}

// SubTaskUpdate toggles completion state for one subtask id.
type SubTaskUpdate struct {
	ID            string
	IsCompleted   bool
	CompletedDate string
}

// UpdateTask applies a customer edit to one task on a stored plan and
// returns the updated task.
func (e *Engine) UpdateTask(ctx context.Context, id plan.CustomerID, taskID plan.RuleID, upd TaskUpdate, actor string) (*plan.PlanTask, error) {
	p, err := e.Store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var updated *plan.PlanTask
	for si := range p.Sections {
		for ti := range p.Sections[si].Tasks {
			task := &p.Sections[si].Tasks[ti]
			if task.ID != taskID {
				continue
			}
			applyTaskUpdate(task, upd, actor)
			task.UpdatedAt = now
			task.UpdatedBy = actor
			updated = task
			break
		}
		if updated != nil {
			break
		}
	}
	if updated == nil {
		return nil, fmt.Errorf("task %s on plan %s: %w", taskID, id, plan.ErrTaskNotFound)
	}

	p.UpdatedAt = now
	if err := e.Store.PutPlan(ctx, id, *p); err != nil {
		return nil, fmt.Errorf("saving plan for %s: %w", id, err)
	}
	out := *updated
	return &out, nil
}

func applyTaskUpdate(task *plan.PlanTask, upd TaskUpdate, actor string) {
	if upd.Progress != nil {
		task.Progress = *upd.Progress
	}
	if upd.CompletedDate != nil {
		task.CompletedDate = *upd.CompletedDate
	}
	if upd.Current != nil {
		task.Current = *upd.Current
	}
	if upd.Notes != nil {
		task.Notes = *upd.Notes
	}
	if upd.AssignedTeamMembers != nil {
		task.AssignedTeamMembers = *upd.AssignedTeamMembers
	}
	if upd.Files != nil {
		task.Files = *upd.Files
	}
	for _, su := range upd.SubTasks {
		for i := range task.SubTasks {
			if task.SubTasks[i].ID != su.ID {
				continue
			}
			task.SubTasks[i].IsCompleted = su.IsCompleted
			if su.IsCompleted {
				task.SubTasks[i].CompletedDate = su.CompletedDate
				task.SubTasks[i].CompletedBy = actor
			} else {
				task.SubTasks[i].CompletedDate = ""
				task.SubTasks[i].CompletedBy = ""
			}
			break
		}
	}
}

// AddAdHocTask appends a customer-created task to a section of a stored
// plan. Ad-hoc tasks get generated ids and live outside rule governance:
// reconciliation passes them through untouched.
func (e *Engine) AddAdHocTask(ctx context.Context, id plan.CustomerID, sectionTitle, name string, actor string) (*plan.PlanTask, error) {
	if name == "" {
		return nil, &plan.RuleValidationError{Field: "name", Reason: "must not be empty"}
	}

	p, err := e.Store.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	task := plan.PlanTask{
		ID:        plan.NewAdHocTaskID(),
		Name:      name,
		Section:   sectionTitle,
		Frequency: plan.FreqAsNeeded,
		IsActive:  true,
		Progress:  plan.ProgressToDo,
		UpdatedAt: now,
		UpdatedBy: actor,
	}

	placed := false
	for i := range p.Sections {
		if p.Sections[i].Title == sectionTitle {
			task.Order = len(p.Sections[i].Tasks) + 1
			p.Sections[i].Tasks = append(p.Sections[i].Tasks, task)
			placed = true
			break
		}
	}
	if !placed {
		task.Order = 1
		p.Sections = append(p.Sections, plan.Section{Title: sectionTitle, Tasks: []plan.PlanTask{task}})
	}

	p.UpdatedAt = now
	if err := e.Store.PutPlan(ctx, id, *p); err != nil {
		return nil, fmt.Errorf("saving plan for %s: %w", id, err)
	}
	return &task, nil
}
