package propagate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftdesk/plan-engine/plan"
	"github.com/craftdesk/plan-engine/plan/store"
	"github.com/craftdesk/plan-engine/propagate"
)

// =============================================================================
// FIXTURES
// =============================================================================

func fixedNow() time.Time {
	return time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
}

func joinDate() *time.Time {
	d := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

func testRule() plan.PlanTaskRule {
	return plan.PlanTaskRule{
		ID:            "task-000123",
		Name:          "Optimize listings",
		Section:       "Listing Optimization",
		Order:         1,
		Frequency:     plan.FreqOneTime,
		DaysAfterJoin: 10,
		IsActive:      true,
	}
}

func testRuleSet() plan.RuleSet {
	return plan.RuleSet{
		Sections: []string{"Listing Optimization"},
		Tasks:    []plan.PlanTaskRule{testRule()},
	}
}

func customer(id string, typ plan.CustomerType, pkg plan.PackageKey, active bool) plan.Customer {
	return plan.Customer{
		ID:          plan.CustomerID(id),
		Email:       id + "@shop.com",
		Type:        typ,
		PackageType: pkg,
		IsActive:    active,
		DateJoined:  joinDate(),
	}
}

// newTestEngine seeds the basic-package rule set plus a mixed customer
// population and returns an engine on a fixed clock.
func newTestEngine(t *testing.T) (*propagate.Engine, *store.Memory) {
	t.Helper()
	ctx := context.Background()

	mem := store.NewMemory()
	require.NoError(t, mem.PutRuleSet(ctx, plan.PackageAcceleratorBasic, testRuleSet()))

	mem.SaveCustomer(customer("cust-paid-1", plan.CustomerPaid, plan.PackageAcceleratorBasic, true))
	mem.SaveCustomer(customer("cust-paid-2", plan.CustomerPaid, plan.PackageAcceleratorBasic, false))
	mem.SaveCustomer(customer("cust-trial", plan.CustomerTrial, plan.PackageAcceleratorBasic, true))
	mem.SaveCustomer(customer("cust-other-pkg", plan.CustomerPaid, plan.PackageSocial, true))

	eng := propagate.New(mem)
	eng.Clock = fixedNow
	return eng, mem
}

func seedPlan(t *testing.T, mem *store.Memory, id plan.CustomerID) {
	t.Helper()
	p := plan.Materialize(testRuleSet(), joinDate(), fixedNow(), "system")
	require.NoError(t, mem.PutPlan(context.Background(), id, p))
}

// =============================================================================
// SINGLE-RULE PROPAGATION
// =============================================================================

func TestApplyRule_TouchesOnlyPaidCustomersOnPackage(t *testing.T) {
	// GIVEN: Paid, trial and other-package customers, all with plans
	eng, mem := newTestEngine(t)
	ctx := context.Background()
	for _, id := range []plan.CustomerID{"cust-paid-1", "cust-paid-2", "cust-trial", "cust-other-pkg"} {
		seedPlan(t, mem, id)
	}
	trialBefore, err := mem.GetPlan(ctx, "cust-trial")
	require.NoError(t, err)

	// WHEN: Propagating a renamed rule to the basic package
	rs := testRuleSet()
	rs.Tasks[0].Name = "Optimize all listings"
	require.NoError(t, mem.PutRuleSet(ctx, plan.PackageAcceleratorBasic, rs))

	res, err := eng.ApplyRule(ctx, plan.PackageAcceleratorBasic, "task-000123", "coach@craftdesk.io")
	require.NoError(t, err)

	// THEN: Both paid customers update (deactivated included), trial and
	//       other-package plans stay untouched
	assert.Equal(t, 2, res.Selected)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 1, res.Commits)

	for _, id := range []plan.CustomerID{"cust-paid-1", "cust-paid-2"} {
		p, err := mem.GetPlan(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Optimize all listings", p.Sections[0].Tasks[0].Name, "customer %s", id)
	}
	trialAfter, err := mem.GetPlan(ctx, "cust-trial")
	require.NoError(t, err)
	assert.Equal(t, trialBefore, trialAfter, "trial plan must never be mutated")
}

func TestApplyRule_SkipsCustomersWithoutPlans(t *testing.T) {
	// GIVEN: One paid customer with a plan, one without
	eng, mem := newTestEngine(t)
	ctx := context.Background()
	seedPlan(t, mem, "cust-paid-1")

	// WHEN: Propagating
	res, err := eng.ApplyRule(ctx, plan.PackageAcceleratorBasic, "task-000123", "admin")
	require.NoError(t, err)

	// THEN: The plan-less customer is skipped, not materialized
	assert.Equal(t, 2, res.Selected)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Skipped)

	_, err = mem.GetPlan(ctx, "cust-paid-2")
	assert.ErrorIs(t, err, plan.ErrPlanNotFound, "propagation must never create plans")
}

func TestApplyRule_UnknownRuleAbortsBeforeAnyWrite(t *testing.T) {
	eng, mem := newTestEngine(t)
	ctx := context.Background()
	seedPlan(t, mem, "cust-paid-1")

	_, err := eng.ApplyRule(ctx, plan.PackageAcceleratorBasic, "task-999999", "admin")
	assert.ErrorIs(t, err, plan.ErrRuleNotFound)
	assert.Empty(t, mem.CommitSizes(), "no chunk may be committed")
}

func TestApplyRule_UnknownPackage(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.ApplyRule(context.Background(), plan.PackageAcceleratorPro, "task-000123", "admin")
	assert.ErrorIs(t, err, plan.ErrRuleSetNotFound)
}

func TestApplyRule_EmptySelectionIsNoOpWithNotice(t *testing.T) {
	// GIVEN: A package with a rule set but no paid customers
	eng, mem := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, mem.PutRuleSet(ctx, plan.PackageExtendedMaintenance, testRuleSet()))

	res, err := eng.ApplyRule(ctx, plan.PackageExtendedMaintenance, "task-000123", "admin")
	require.NoError(t, err)

	assert.Equal(t, 0, res.Selected)
	assert.NotEmpty(t, res.Notice)
	assert.Empty(t, mem.CommitSizes())
}

func TestApplyRule_RerunYieldsIdenticalPlans(t *testing.T) {
	// GIVEN: A completed propagation
	eng, mem := newTestEngine(t)
	ctx := context.Background()
	seedPlan(t, mem, "cust-paid-1")

	_, err := eng.ApplyRule(ctx, plan.PackageAcceleratorBasic, "task-000123", "admin")
	require.NoError(t, err)
	first, err := mem.GetPlan(ctx, "cust-paid-1")
	require.NoError(t, err)

	// WHEN: Re-running the same propagation (the partial-failure recovery
	//       path)
	_, err = eng.ApplyRule(ctx, plan.PackageAcceleratorBasic, "task-000123", "admin")
	require.NoError(t, err)
	second, err := mem.GetPlan(ctx, "cust-paid-1")
	require.NoError(t, err)

	// THEN: The plan is unchanged
	assert.Equal(t, first, second)
}

func TestApplyRule_CommitFailureSurfacesWriteError(t *testing.T) {
	eng, mem := newTestEngine(t)
	ctx := context.Background()
	seedPlan(t, mem, "cust-paid-1")
	mem.FailNextCommits(errors.New("backend unavailable"))

	_, err := eng.ApplyRule(ctx, plan.PackageAcceleratorBasic, "task-000123", "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, plan.ErrWriteFailed)

	var werr *plan.WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, 0, werr.Chunk)
}

// =============================================================================
// FULL RESYNC
// =============================================================================

func TestResyncAll_RewritesGovernedTasksAndCountsThem(t *testing.T) {
	// GIVEN: Two paid plans, one holding an extra ad-hoc task
	eng, mem := newTestEngine(t)
	ctx := context.Background()
	seedPlan(t, mem, "cust-paid-1")
	seedPlan(t, mem, "cust-paid-2")

	p, err := mem.GetPlan(ctx, "cust-paid-1")
	require.NoError(t, err)
	adHoc := plan.PlanTask{ID: "adhoc-abc", Name: "Call the customer", Section: "Listing Optimization", Notes: "manual"}
	p.Sections[0].Tasks = append(p.Sections[0].Tasks, adHoc)
	require.NoError(t, mem.PutPlan(ctx, "cust-paid-1", *p))

	// WHEN: Resyncing the package
	res, err := eng.ResyncAll(ctx, plan.PackageAcceleratorBasic, "coach@craftdesk.io")
	require.NoError(t, err)

	// THEN: One governed task per plan is rewritten; the ad-hoc task
	//       survives untouched
	assert.Equal(t, 2, res.Selected)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 2, res.Tasks)

	after, err := mem.GetPlan(ctx, "cust-paid-1")
	require.NoError(t, err)
	require.Len(t, after.Sections[0].Tasks, 2)
	assert.Equal(t, adHoc, after.Sections[0].Tasks[1])
}

func TestSelectCustomers_ActiveOnly(t *testing.T) {
	eng, _ := newTestEngine(t)

	all, err := eng.SelectCustomers(context.Background(), plan.PackageAcceleratorBasic, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := eng.SelectCustomers(context.Background(), plan.PackageAcceleratorBasic, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, plan.CustomerID("cust-paid-1"), active[0].ID)
}
