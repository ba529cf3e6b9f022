/*
ids.go - Identifier generation

PURPOSE:
  Rule ids carry a random fixed-width numeric suffix and are retried until
  unique within the target rule set, so a freshly created rule can never
  silently overwrite an existing one. Ad-hoc tasks and subtask templates,
  which live outside any rule set, use uuids.
*/
package plan

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

const ruleIDPrefix = "task-"

// NewRuleID generates a rule id unique within the given taken set.
func NewRuleID(taken map[RuleID]bool) RuleID {
	for {
		id := RuleID(fmt.Sprintf("%s%06d", ruleIDPrefix, rand.Intn(1000000)))
		if !taken[id] {
			return id
		}
	}
}

// NewAdHocTaskID generates an id for a customer-created task that has no
// originating rule.
func NewAdHocTaskID() RuleID {
	return RuleID("adhoc-" + uuid.NewString())
}

// NewSubTaskID generates an id for a subtask template.
func NewSubTaskID() string {
	return uuid.NewString()
}
