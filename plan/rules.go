/*
rules.go - Rule-set editing operations

PURPOSE:
  In-memory editing of a package's rule set: upsert/delete of individual
  rules, section management, cloning, and write-time validation. The
  orchestration around persistence lives in the propagate package; these
  are pure document transforms.

DELETION ASYMMETRY (documented invariant):
  Deleting a rule only removes it from the rule set. Task instances
  already materialized on customer plans are never retroactively deleted;
  they simply fall outside rule governance from then on.
*/
package plan

import (
	"fmt"
	"time"
)

// FindRule returns the rule with the given id, or nil.
func (rs *RuleSet) FindRule(id RuleID) *PlanTaskRule {
	for i := range rs.Tasks {
		if rs.Tasks[i].ID == id {
			return &rs.Tasks[i]
		}
	}
	return nil
}

// UpsertRule replaces the rule with a matching id, or appends the rule
// when no id matches. The rule's section is registered if new.
func (rs *RuleSet) UpsertRule(rule PlanTaskRule, now time.Time, actor string) {
	rule.UpdatedAt = now
	rule.UpdatedBy = actor

	replaced := false
	for i := range rs.Tasks {
		if rs.Tasks[i].ID == rule.ID {
			rs.Tasks[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		rs.Tasks = append(rs.Tasks, rule)
	}

	rs.EnsureSection(rule.Section)
	rs.UpdatedAt = now
	rs.UpdatedBy = actor
}

// DeleteRule removes the rule with the given id. Returns false when the
// id is unknown. Customer task instances are untouched.
func (rs *RuleSet) DeleteRule(id RuleID, now time.Time, actor string) bool {
	for i := range rs.Tasks {
		if rs.Tasks[i].ID == id {
			rs.Tasks = append(rs.Tasks[:i], rs.Tasks[i+1:]...)
			rs.UpdatedAt = now
			rs.UpdatedBy = actor
			return true
		}
	}
	return false
}

// EnsureSection registers a section title if not already present.
func (rs *RuleSet) EnsureSection(title string) {
	if title == "" {
		return
	}
	for _, s := range rs.Sections {
		if s == title {
			return
		}
	}
	rs.Sections = append(rs.Sections, title)
}

// Clone returns a deep copy of the rule set. Used when initializing a
// package from the default rule set.
func (rs RuleSet) Clone() RuleSet {
	out := RuleSet{
		Sections:  append([]string(nil), rs.Sections...),
		Tasks:     make([]PlanTaskRule, len(rs.Tasks)),
		UpdatedAt: rs.UpdatedAt,
		UpdatedBy: rs.UpdatedBy,
	}
	for i, rule := range rs.Tasks {
		out.Tasks[i] = rule
		out.Tasks[i].SubTasks = append([]SubTaskTemplate(nil), rule.SubTasks...)
		if rule.DefaultGoal != nil {
			g := *rule.DefaultGoal
			out.Tasks[i].DefaultGoal = &g
		}
		if rule.DefaultCurrent != nil {
			c := *rule.DefaultCurrent
			out.Tasks[i].DefaultCurrent = &c
		}
	}
	return out
}

// RuleIDs returns the set of ids currently taken in the rule set.
func (rs RuleSet) RuleIDs() map[RuleID]bool {
	ids := make(map[RuleID]bool, len(rs.Tasks))
	for _, rule := range rs.Tasks {
		ids[rule.ID] = true
	}
	return ids
}

// ValidateRule checks a rule before it is written into a rule set.
func ValidateRule(rule PlanTaskRule) error {
	if rule.Name == "" {
		return &RuleValidationError{Field: "name", Reason: "must not be empty"}
	}
	if rule.Section == "" {
		return &RuleValidationError{Field: "section", Reason: "must not be empty"}
	}
	if !rule.Frequency.Valid() {
		return &RuleValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", rule.Frequency)}
	}
	if rule.Frequency == FreqMonthly && (rule.MonthlyDueDay < 1 || rule.MonthlyDueDay > 28) {
		return &RuleValidationError{Field: "monthlyDueDate", Reason: "must be a day of month between 1 and 28"}
	}
	if rule.DaysAfterJoin < 0 {
		return &RuleValidationError{Field: "daysAfterJoin", Reason: "must not be negative"}
	}
	if !rule.RequiresGoal && (rule.DefaultGoal != nil || rule.DefaultCurrent != nil) {
		return &RuleValidationError{Field: "requiresGoal", Reason: "goal defaults set but requiresGoal is false"}
	}
	seen := make(map[string]bool, len(rule.SubTasks))
	for _, st := range rule.SubTasks {
		if st.ID == "" {
			return &RuleValidationError{Field: "subTasks", Reason: "subtask id must not be empty"}
		}
		if seen[st.ID] {
			return &RuleValidationError{Field: "subTasks", Reason: fmt.Sprintf("duplicate subtask id %q", st.ID)}
		}
		seen[st.ID] = true
	}
	return nil
}
