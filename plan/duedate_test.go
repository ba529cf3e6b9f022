package plan_test

import (
	"testing"
	"time"

	"github.com/craftdesk/plan-engine/plan"
)

// =============================================================================
// DUE DATE LAWS
// =============================================================================

func TestDueDate_OneTime_JoinPlusDays(t *testing.T) {
	// GIVEN: Customer joined 2024-01-01, rule due 10 days after join
	// WHEN: Deriving the due date
	// THEN: Due date is 2024-01-11

	rule := baseRule()
	rule.Frequency = plan.FreqOneTime
	rule.DaysAfterJoin = 10

	due := plan.DueDate(joined(), rule, march20())
	if due != "2024-01-11" {
		t.Errorf("expected 2024-01-11, got %q", due)
	}
}

func TestDueDate_OneTime_ZeroDays_NoDueDate(t *testing.T) {
	// GIVEN: A one-time rule with daysAfterJoin unset (zero)
	// WHEN: Deriving the due date
	// THEN: No due date

	rule := baseRule()
	rule.Frequency = plan.FreqOneTime
	rule.DaysAfterJoin = 0

	if due := plan.DueDate(joined(), rule, march20()); due != "" {
		t.Errorf("expected no due date, got %q", due)
	}
}

func TestDueDate_Monthly_CurrentMonth(t *testing.T) {
	// GIVEN: A monthly rule due on the 15th
	// WHEN: Deriving the due date at several "today"s
	// THEN: Due date is always the 15th of the month containing today,
	//       independent of the join date

	rule := baseRule()
	rule.Frequency = plan.FreqMonthly
	rule.MonthlyDueDay = 15

	cases := map[time.Time]string{
		march20(): "2024-03-15",
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC):     "2024-03-15",
		time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC): "2024-12-15",
		time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC):      "2025-07-15",
	}
	for now, want := range cases {
		if due := plan.DueDate(joined(), rule, now); due != want {
			t.Errorf("at %s: expected %s, got %q", now.Format("2006-01-02"), want, due)
		}
	}
}

func TestDueDate_AsNeeded_NeverDue(t *testing.T) {
	// GIVEN: An as-needed rule with stray daysAfterJoin and monthlyDueDate
	// WHEN: Deriving the due date
	// THEN: No due date, regardless of the stray fields

	rule := baseRule()
	rule.Frequency = plan.FreqAsNeeded
	rule.DaysAfterJoin = 10
	rule.MonthlyDueDay = 15

	if due := plan.DueDate(joined(), rule, march20()); due != "" {
		t.Errorf("expected no due date, got %q", due)
	}
}

func TestDueDate_NoJoinDate_NoDueDate(t *testing.T) {
	// GIVEN: A customer with no join date on record
	// WHEN: Deriving any due date
	// THEN: No due date can be computed

	for _, freq := range []plan.Frequency{plan.FreqOneTime, plan.FreqMonthly, plan.FreqAsNeeded} {
		rule := baseRule()
		rule.Frequency = freq
		rule.DaysAfterJoin = 10
		rule.MonthlyDueDay = 15

		if due := plan.DueDate(nil, rule, march20()); due != "" {
			t.Errorf("%s: expected no due date, got %q", freq, due)
		}
	}
}

func TestDueDate_UnknownFrequency_NoDueDate(t *testing.T) {
	rule := baseRule()
	rule.Frequency = plan.Frequency("weekly")
	rule.DaysAfterJoin = 10

	if due := plan.DueDate(joined(), rule, march20()); due != "" {
		t.Errorf("expected no due date, got %q", due)
	}
}
