/*
resync.go - Full-plan reconciliation against the current rule set

PURPOSE:
  Implements "apply the whole rule set to a customer's entire plan", as
  opposed to propagating one edited rule. Every task already present in
  the plan is matched against the current rule set (by id, then by
  name+section); matched tasks are rewritten through the merge, unmatched
  tasks pass through exactly as stored.

GUARANTEES:
  - Never deletes a section or a task. Sections absent from the rule set
    and ad-hoc/legacy tasks outside rule governance are preserved
    unchanged, value for value.
  - Due dates are recomputed fresh for every matched task.
*/
package plan

import "time"

// Resync rewrites every rule-governed task in the plan from the current
// rule set. Returns the new plan and the number of tasks rewritten.
func Resync(p Plan, rs RuleSet, joined *time.Time, now time.Time, actor string) (Plan, int) {
	out := Plan{
		Sections:  make([]Section, len(p.Sections)),
		UpdatedAt: now,
	}

	updated := 0
	for i, section := range p.Sections {
		tasks := make([]PlanTask, len(section.Tasks))
		for j, task := range section.Tasks {
			rule := FindRule(task, rs.Tasks, ResyncStrategies)
			if rule == nil {
				tasks[j] = task
				continue
			}
			due := DueDate(joined, *rule, now)
			tasks[j] = Merge(task, *rule, due, now, actor)
			updated++
		}
		out.Sections[i] = Section{Title: section.Title, Tasks: tasks}
	}

	return out, updated
}

// ApplyRule merges one rule into the plan. The matched instance is
// rewritten in place; with no match the task is appended to the rule's
// section, which is created at the end of the plan if missing.
func ApplyRule(p Plan, rule PlanTaskRule, joined *time.Time, now time.Time, actor string) Plan {
	due := DueDate(joined, rule, now)

	out := Plan{
		Sections:  make([]Section, len(p.Sections)),
		UpdatedAt: now,
	}
	for i, section := range p.Sections {
		out.Sections[i] = Section{Title: section.Title, Tasks: append([]PlanTask(nil), section.Tasks...)}
	}

	for i, section := range out.Sections {
		if idx := FindTask(rule, section.Tasks, ApplyStrategies); idx >= 0 {
			out.Sections[i].Tasks[idx] = Merge(section.Tasks[idx], rule, due, now, actor)
			return out
		}
	}

	// No matching instance anywhere: insert as a new task.
	task := NewTask(rule, due, now, actor)
	for i, section := range out.Sections {
		if section.Title == rule.Section {
			out.Sections[i].Tasks = append(out.Sections[i].Tasks, task)
			return out
		}
	}
	out.Sections = append(out.Sections, Section{Title: rule.Section, Tasks: []PlanTask{task}})
	return out
}

// Materialize builds a brand-new plan from a rule set, sections in rule
// set order, every task a fresh instance. Used by the customer-facing
// "view my plan" path on first access; bulk propagation never creates
// plans.
func Materialize(rs RuleSet, joined *time.Time, now time.Time, actor string) Plan {
	p := Plan{UpdatedAt: now}

	bySection := make(map[string][]PlanTask)
	var order []string
	for _, title := range rs.Sections {
		bySection[title] = nil
		order = append(order, title)
	}

	for _, rule := range rs.Tasks {
		due := DueDate(joined, rule, now)
		task := NewTask(rule, due, now, actor)
		if _, known := bySection[rule.Section]; !known {
			order = append(order, rule.Section)
		}
		bySection[rule.Section] = append(bySection[rule.Section], task)
	}

	for _, title := range order {
		p.Sections = append(p.Sections, Section{Title: title, Tasks: bySection[title]})
	}
	return p
}
