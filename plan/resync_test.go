package plan_test

import (
	"reflect"
	"testing"

	"github.com/craftdesk/plan-engine/plan"
)

// =============================================================================
// FULL-PLAN RESYNC
// =============================================================================

func TestResync_UnmatchedTasksPassThroughUnchanged(t *testing.T) {
	// GIVEN: A plan holding an ad-hoc task and a legacy section absent
	//        from the rule set
	// WHEN: Resyncing against the current rule set
	// THEN: The ungoverned task and the legacy section survive value for
	//       value; only the governed task is rewritten

	rule := baseRule()
	governed := plan.NewTask(rule, "2024-01-11", march20(), "admin")

	adHoc := plan.PlanTask{
		ID:       "adhoc-abc",
		Name:     "Call the customer",
		Section:  "Listing Optimization",
		Progress: plan.ProgressDoing,
		Notes:    "left a voicemail",
	}
	legacy := plan.PlanTask{ID: "task-777777", Name: "Old program step", Section: "Retired"}

	p := plan.Plan{Sections: []plan.Section{
		{Title: "Listing Optimization", Tasks: []plan.PlanTask{governed, adHoc}},
		{Title: "Retired", Tasks: []plan.PlanTask{legacy}},
	}}

	rule.Name = "Optimize all listings"
	rs := plan.RuleSet{
		Sections: []string{"Listing Optimization"},
		Tasks:    []plan.PlanTaskRule{rule},
	}

	out, updated := plan.Resync(p, rs, joined(), march20(), "coach@craftdesk.io")

	if updated != 1 {
		t.Fatalf("expected 1 task rewritten, got %d", updated)
	}
	if len(out.Sections) != 2 {
		t.Fatalf("resync must never drop sections, got %d", len(out.Sections))
	}
	if out.Sections[0].Tasks[0].Name != "Optimize all listings" {
		t.Errorf("governed task not rewritten: %+v", out.Sections[0].Tasks[0])
	}
	if !reflect.DeepEqual(out.Sections[0].Tasks[1], adHoc) {
		t.Errorf("ad-hoc task changed:\nwant %+v\n got %+v", adHoc, out.Sections[0].Tasks[1])
	}
	if !reflect.DeepEqual(out.Sections[1].Tasks[0], legacy) {
		t.Errorf("legacy task changed:\nwant %+v\n got %+v", legacy, out.Sections[1].Tasks[0])
	}
}

func TestResync_RecoversRegeneratedRuleID(t *testing.T) {
	// GIVEN: A rule whose id was regenerated since the instance was built
	rule := baseRule()
	instance := plan.NewTask(rule, "", march20(), "admin")
	instance.Progress = plan.ProgressDone

	rule.ID = "task-555555"
	p := plan.Plan{Sections: []plan.Section{
		{Title: rule.Section, Tasks: []plan.PlanTask{instance}},
	}}
	rs := plan.RuleSet{Sections: []string{rule.Section}, Tasks: []plan.PlanTaskRule{rule}}

	// WHEN: Resyncing
	out, updated := plan.Resync(p, rs, joined(), march20(), "admin")

	// THEN: The identity tier matches; the instance re-pins to the new id
	//       and keeps its progress
	if updated != 1 {
		t.Fatalf("expected 1 task rewritten, got %d", updated)
	}
	got := out.Sections[0].Tasks[0]
	if got.ID != "task-555555" {
		t.Errorf("expected instance re-pinned to %s, got %s", rule.ID, got.ID)
	}
	if got.Progress != plan.ProgressDone {
		t.Errorf("progress lost on re-pin: %s", got.Progress)
	}
}

// =============================================================================
// SINGLE-RULE APPLY
// =============================================================================

func TestApplyRule_RewritesMatchInPlace(t *testing.T) {
	rule := baseRule()
	instance := plan.NewTask(rule, "", march20(), "admin")
	instance.Notes = "sticky"

	p := plan.Plan{Sections: []plan.Section{
		{Title: rule.Section, Tasks: []plan.PlanTask{instance}},
	}}

	rule.Name = "Optimize all listings"
	out := plan.ApplyRule(p, rule, joined(), march20(), "admin")

	if len(out.Sections) != 1 || len(out.Sections[0].Tasks) != 1 {
		t.Fatalf("apply must not add or drop tasks on a match: %+v", out)
	}
	got := out.Sections[0].Tasks[0]
	if got.Name != "Optimize all listings" || got.Notes != "sticky" {
		t.Errorf("in-place rewrite wrong: %+v", got)
	}
}

func TestApplyRule_InsertsIntoExistingSection(t *testing.T) {
	p := plan.Plan{Sections: []plan.Section{
		{Title: "Listing Optimization"},
		{Title: "Marketing"},
	}}

	rule := baseRule()
	out := plan.ApplyRule(p, rule, joined(), march20(), "admin")

	if len(out.Sections) != 2 {
		t.Fatalf("expected no new section, got %d", len(out.Sections))
	}
	if len(out.Sections[0].Tasks) != 1 || out.Sections[0].Tasks[0].ID != rule.ID {
		t.Errorf("task not appended to its section: %+v", out.Sections[0])
	}
	if out.Sections[0].Tasks[0].DueDate != "2024-01-11" {
		t.Errorf("new instance should carry the derived due date, got %q", out.Sections[0].Tasks[0].DueDate)
	}
}

func TestApplyRule_CreatesMissingSectionAtEnd(t *testing.T) {
	p := plan.Plan{Sections: []plan.Section{{Title: "Marketing"}}}

	rule := baseRule()
	out := plan.ApplyRule(p, rule, joined(), march20(), "admin")

	if len(out.Sections) != 2 {
		t.Fatalf("expected section created, got %d sections", len(out.Sections))
	}
	last := out.Sections[1]
	if last.Title != rule.Section || len(last.Tasks) != 1 {
		t.Errorf("missing section not created at end: %+v", last)
	}
}

func TestApplyRule_DoesNotMutateInput(t *testing.T) {
	rule := baseRule()
	instance := plan.NewTask(rule, "", march20(), "admin")
	p := plan.Plan{Sections: []plan.Section{
		{Title: rule.Section, Tasks: []plan.PlanTask{instance}},
	}}

	rule.Name = "Changed"
	plan.ApplyRule(p, rule, joined(), march20(), "admin")

	if p.Sections[0].Tasks[0].Name != "Optimize listings" {
		t.Errorf("input plan mutated: %+v", p.Sections[0].Tasks[0])
	}
}

// =============================================================================
// MATERIALIZATION
// =============================================================================

func TestMaterialize_SectionsInRuleSetOrder(t *testing.T) {
	// GIVEN: A rule set with an explicit section order, one empty section,
	//        and one rule naming a section outside the list
	rs := plan.RuleSet{
		Sections: []string{"Getting Started", "Marketing"},
		Tasks: []plan.PlanTaskRule{
			{ID: "task-000001", Name: "Welcome call", Section: "Marketing", Frequency: plan.FreqOneTime, DaysAfterJoin: 3},
			{ID: "task-000002", Name: "Stray", Section: "Unlisted", Frequency: plan.FreqAsNeeded},
		},
	}

	// WHEN: Materializing a fresh plan
	p := plan.Materialize(rs, joined(), march20(), "system")

	// THEN: Listed sections come first in order (empty ones included),
	//       unknown sections append after
	titles := make([]string, len(p.Sections))
	for i, s := range p.Sections {
		titles[i] = s.Title
	}
	want := []string{"Getting Started", "Marketing", "Unlisted"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("section order wrong: want %v, got %v", want, titles)
	}
	if len(p.Sections[0].Tasks) != 0 {
		t.Errorf("empty section should materialize empty")
	}
	if got := p.Sections[1].Tasks[0].DueDate; got != "2024-01-04" {
		t.Errorf("expected due date 2024-01-04, got %q", got)
	}
}
