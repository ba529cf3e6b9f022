/*
match.go - Two-tier matching between rules and task instances

PURPOSE:
  Finds the task instance that corresponds to a rule (or vice versa for
  the resync direction). Matching is a ranked strategy list evaluated in
  order; a lower tier is only consulted when every higher tier misses
  across the whole candidate list.

TIERS:
  MatchByID:       instance id equals the rule id. Always used.
  MatchByIdentity: (task name, section name) pair equality. Used only by
                   the full-resync path, which must survive a rule whose
                   id was regenerated but whose identity is unchanged.
                   The single-rule apply path never uses it: an unmatched
                   rule there means "insert a new task".
*/
package plan

type MatchStrategy int

const (
	MatchByID MatchStrategy = iota
	MatchByIdentity
)

// ApplyStrategies is the ranked list for single-rule propagation.
var ApplyStrategies = []MatchStrategy{MatchByID}

// ResyncStrategies is the ranked list for full-plan resync.
var ResyncStrategies = []MatchStrategy{MatchByID, MatchByIdentity}

func (s MatchStrategy) matches(rule PlanTaskRule, task PlanTask) bool {
	switch s {
	case MatchByID:
		return task.ID == rule.ID
	case MatchByIdentity:
		return task.Name == rule.Name && task.Section == rule.Section
	}
	return false
}

// FindTask locates the instance a rule governs within a flat task list.
// Returns the index of the match, or -1 when every strategy misses.
func FindTask(rule PlanTaskRule, tasks []PlanTask, strategies []MatchStrategy) int {
	for _, s := range strategies {
		for i, task := range tasks {
			if s.matches(rule, task) {
				return i
			}
		}
	}
	return -1
}

// FindRule locates the live rule governing a task instance. Returns nil
// when the task is ad-hoc or legacy, i.e. outside rule governance.
func FindRule(task PlanTask, rules []PlanTaskRule, strategies []MatchStrategy) *PlanTaskRule {
	for _, s := range strategies {
		for i := range rules {
			if s.matches(rules[i], task) {
				return &rules[i]
			}
		}
	}
	return nil
}
