package plan_test

import (
	"testing"

	"github.com/craftdesk/plan-engine/plan"
)

// =============================================================================
// TWO-TIER MATCHING
// =============================================================================

func TestFindTask_IDTierWinsOverIdentity(t *testing.T) {
	// GIVEN: Two instances, one sharing the rule's id, a later one sharing
	//        the rule's name+section
	// WHEN: Matching with the resync strategy list
	// THEN: The id match wins even though it appears after the identity
	//       match in the list

	rule := baseRule()

	byIdentity := plan.NewTask(rule, "", march20(), "admin")
	byIdentity.ID = "task-999999"

	byID := plan.NewTask(rule, "", march20(), "admin")
	byID.Name = "Renamed long ago"

	tasks := []plan.PlanTask{byIdentity, byID}

	if idx := plan.FindTask(rule, tasks, plan.ResyncStrategies); idx != 1 {
		t.Errorf("expected id match at index 1, got %d", idx)
	}
}

func TestFindTask_IdentityTierOnlyInResync(t *testing.T) {
	// GIVEN: An instance whose id differs from the rule but whose
	//        name+section match (a regenerated rule id)
	rule := baseRule()
	task := plan.NewTask(rule, "", march20(), "admin")
	task.ID = "task-999999"
	tasks := []plan.PlanTask{task}

	// WHEN: Matching with the apply strategy list
	// THEN: No match; single-rule apply treats this as a new task
	if idx := plan.FindTask(rule, tasks, plan.ApplyStrategies); idx != -1 {
		t.Errorf("apply strategies should not identity-match, got index %d", idx)
	}

	// WHEN: Matching with the resync strategy list
	// THEN: The identity tier recovers the instance
	if idx := plan.FindTask(rule, tasks, plan.ResyncStrategies); idx != 0 {
		t.Errorf("resync strategies should identity-match, got index %d", idx)
	}
}

func TestFindTask_SameNameDifferentSection_NoIdentityMatch(t *testing.T) {
	rule := baseRule()
	task := plan.NewTask(rule, "", march20(), "admin")
	task.ID = "task-999999"
	task.Section = "Marketing"

	if idx := plan.FindTask(rule, []plan.PlanTask{task}, plan.ResyncStrategies); idx != -1 {
		t.Errorf("identity requires name AND section, got index %d", idx)
	}
}

func TestFindRule_AdHocTaskIsUngoverned(t *testing.T) {
	// GIVEN: A plan task created ad hoc, outside any rule
	// WHEN: Looking up its governing rule
	// THEN: There is none

	task := plan.PlanTask{ID: "adhoc-abc", Name: "Call the customer", Section: "Marketing"}
	rules := []plan.PlanTaskRule{baseRule()}

	if r := plan.FindRule(task, rules, plan.ResyncStrategies); r != nil {
		t.Errorf("expected no governing rule, got %+v", r)
	}
}

func TestFindRule_ByID(t *testing.T) {
	rule := baseRule()
	task := plan.NewTask(rule, "", march20(), "admin")
	task.Name = "Renamed by a coach"

	got := plan.FindRule(task, []plan.PlanTaskRule{rule}, plan.ApplyStrategies)
	if got == nil || got.ID != rule.ID {
		t.Errorf("expected rule %s, got %+v", rule.ID, got)
	}
}
