/*
duedate.go - Frequency policy to concrete due date

PURPOSE:
  Maps a rule's frequency policy plus a customer's join date to a concrete
  due date string, or "" when no due date applies. Both the single-rule
  apply path and the full resync call this fresh on every merge: stored
  due dates are never trusted as authoritative.

RULES:
  - No join date            -> "" (cannot compute)
  - Monthly + day set       -> day N of the month containing `now` (rolls
                               forward as time passes, independent of join)
  - AsNeeded                -> "" always, even if other fields are populated
  - OneTime + days > 0      -> join date + daysAfterJoin days
  - OneTime + days 0/unset  -> ""
  - Anything else           -> ""

The function is deterministic given (joined, rule, now) and side-effect
free. Callers inject `now` so monthly derivation stays testable.
*/
package plan

import "time"

// DueDate derives the concrete due date for a rule. Returns "" when the
// rule carries no due date for this customer.
func DueDate(joined *time.Time, rule PlanTaskRule, now time.Time) string {
	if joined == nil {
		return ""
	}

	switch rule.Frequency {
	case FreqMonthly:
		if rule.MonthlyDueDay <= 0 {
			return ""
		}
		due := time.Date(now.Year(), now.Month(), rule.MonthlyDueDay, 0, 0, 0, 0, time.UTC)
		return FormatDate(due)

	case FreqOneTime:
		if rule.DaysAfterJoin <= 0 {
			return ""
		}
		return FormatDate(joined.AddDate(0, 0, rule.DaysAfterJoin))

	case FreqAsNeeded:
		return ""
	}

	return ""
}
