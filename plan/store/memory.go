// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/craftdesk/plan-engine/plan"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	ruleSets  map[plan.PackageKey]plan.RuleSet
	plans     map[plan.CustomerID]plan.Plan
	customers map[plan.CustomerID]plan.Customer

	commitSizes []int
	failCommit  error
}

func NewMemory() *Memory {
	return &Memory{
		ruleSets:  make(map[plan.PackageKey]plan.RuleSet),
		plans:     make(map[plan.CustomerID]plan.Plan),
		customers: make(map[plan.CustomerID]plan.Customer),
	}
}

// Compile-time check that Memory implements the combined store.
var _ plan.Store = (*Memory)(nil)

// -----------------------------------------------------------------------------
// RuleSetStore
// -----------------------------------------------------------------------------

func (m *Memory) GetRuleSet(_ context.Context, pkg plan.PackageKey) (*plan.RuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rs, ok := m.ruleSets[pkg]
	if !ok {
		return nil, plan.ErrRuleSetNotFound
	}
	clone := rs.Clone()
	return &clone, nil
}

func (m *Memory) PutRuleSet(_ context.Context, pkg plan.PackageKey, rs plan.RuleSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ruleSets[pkg] = rs.Clone()
	return nil
}

// -----------------------------------------------------------------------------
// PlanStore
// -----------------------------------------------------------------------------

func (m *Memory) GetPlan(_ context.Context, id plan.CustomerID) (*plan.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	clone := clonePlan(p)
	return &clone, nil
}

func (m *Memory) PutPlan(_ context.Context, id plan.CustomerID, p plan.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plans[id] = clonePlan(p)
	return nil
}

// -----------------------------------------------------------------------------
// CustomerStore
// -----------------------------------------------------------------------------

func (m *Memory) GetCustomer(_ context.Context, id plan.CustomerID) (*plan.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return nil, plan.ErrCustomerNotFound
	}
	return &c, nil
}

func (m *Memory) ListCustomers(_ context.Context, f plan.CustomerFilter) ([]plan.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []plan.Customer
	for _, c := range m.customers {
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if f.PackageType != "" && c.PackageType != f.PackageType {
			continue
		}
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveCustomer seeds a customer record. Test/dev convenience; production
// customer documents are owned by customer management.
func (m *Memory) SaveCustomer(c plan.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.customers[c.ID] = c
}

// -----------------------------------------------------------------------------
// BatchWriter
// -----------------------------------------------------------------------------

func (m *Memory) CommitPlans(_ context.Context, muts []plan.PlanMutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCommit != nil {
		return m.failCommit
	}

	for _, mut := range muts {
		m.plans[mut.CustomerID] = clonePlan(mut.Plan)
	}
	m.commitSizes = append(m.commitSizes, len(muts))
	return nil
}

// CommitSizes returns the size of every committed batch, in order. Used by
// chunking tests.
func (m *Memory) CommitSizes() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]int(nil), m.commitSizes...)
}

// FailNextCommits makes every subsequent commit return err. Pass nil to
// restore normal behavior.
func (m *Memory) FailNextCommits(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failCommit = err
}

// -----------------------------------------------------------------------------
// Deep copies - callers must never share slices with the store
// -----------------------------------------------------------------------------

func clonePlan(p plan.Plan) plan.Plan {
	out := plan.Plan{
		Sections:  make([]plan.Section, len(p.Sections)),
		UpdatedAt: p.UpdatedAt,
	}
	for i, s := range p.Sections {
		tasks := make([]plan.PlanTask, len(s.Tasks))
		for j, t := range s.Tasks {
			tasks[j] = cloneTask(t)
		}
		out.Sections[i] = plan.Section{Title: s.Title, Tasks: tasks}
	}
	return out
}

func cloneTask(t plan.PlanTask) plan.PlanTask {
	out := t
	out.AssignedTeamMembers = append([]string(nil), t.AssignedTeamMembers...)
	out.Files = append([]plan.FileRef(nil), t.Files...)
	out.SubTasks = append([]plan.SubTask(nil), t.SubTasks...)
	return out
}
