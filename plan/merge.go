/*
merge.go - Create and merge of task instances

PURPOSE:
  Produces an updated task instance from (existing instance, rule, computed
  due date). This is the central invariant of the engine: template fields
  are authoritative, customer-progress fields are sticky.

MERGE SEMANTICS:
  - No existing instance: a brand-new task is built from the rule with
    progress=toDo, zeroed/defaulted goal tracking, and all subtasks
    uncompleted.
  - Existing instance: template-owned fields (see ownership.go) are
    rewritten from the rule; progress, notes, completion, assignments and
    files are untouched. Goal is refreshed only when the rule supplies a
    defaultGoal. The subtask list is rebuilt from the rule's current
    templates so text edits propagate, while completion state is carried
    forward per subtask id.

IDEMPOTENCE:
  Merging the same rule into an already-merged instance yields an identical
  task aside from updatedAt/updatedBy, which makes operator-initiated
  re-runs safe after partial write failures.
*/
package plan

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewTask constructs a fresh task instance from a rule. Used when a plan
// is first materialized and when propagation finds no matching instance.
func NewTask(rule PlanTaskRule, dueDate string, now time.Time, actor string) PlanTask {
	current := decimal.Zero
	if rule.DefaultCurrent != nil {
		current = *rule.DefaultCurrent
	}
	goal := decimal.Zero
	if rule.DefaultGoal != nil {
		goal = *rule.DefaultGoal
	}

	return PlanTask{
		ID:            rule.ID,
		Name:          rule.Name,
		Section:       rule.Section,
		Order:         rule.Order,
		Frequency:     rule.Frequency,
		DaysAfterJoin: rule.DaysAfterJoin,
		IsActive:      rule.IsActive,

		Progress: ProgressToDo,
		DueDate:  dueDate,

		Current: current,
		Goal:    goal,

		SubTasks: newSubTasks(rule.SubTasks),

		UpdatedAt: now,
		UpdatedBy: actor,
	}
}

// Merge rewrites the template-owned fields of an existing instance from
// the rule while preserving all customer state.
func Merge(existing PlanTask, rule PlanTaskRule, dueDate string, now time.Time, actor string) PlanTask {
	fresh := NewTask(rule, dueDate, now, actor)

	out := existing
	copyTemplateOwned(&out, fresh)

	out.ID = rule.ID
	if rule.DefaultGoal != nil {
		out.Goal = *rule.DefaultGoal
	}
	out.SubTasks = mergeSubTasks(rule.SubTasks, existing.SubTasks)

	out.UpdatedAt = now
	out.UpdatedBy = actor
	return out
}

func newSubTasks(templates []SubTaskTemplate) []SubTask {
	if len(templates) == 0 {
		return nil
	}
	subs := make([]SubTask, len(templates))
	for i, t := range templates {
		subs[i] = SubTask{ID: t.ID, Text: t.Text}
	}
	return subs
}

// mergeSubTasks rebuilds the subtask list from the rule's templates.
// Ids present on the existing instance keep their completion state; new
// ids start uncompleted; ids dropped from the rule disappear.
func mergeSubTasks(templates []SubTaskTemplate, existing []SubTask) []SubTask {
	if len(templates) == 0 {
		return nil
	}

	prior := make(map[string]SubTask, len(existing))
	for _, s := range existing {
		prior[s.ID] = s
	}

	subs := make([]SubTask, len(templates))
	for i, t := range templates {
		sub := SubTask{ID: t.ID, Text: t.Text}
		if p, ok := prior[t.ID]; ok {
			sub.IsCompleted = p.IsCompleted
			sub.CompletedDate = p.CompletedDate
			sub.CompletedBy = p.CompletedBy
		}
		subs[i] = sub
	}
	return subs
}
