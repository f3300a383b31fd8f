package sync

import (
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// BudgetState
// ---------------------------------------------------------------------------

// BudgetState represents the budget manager's position in its lifecycle
type BudgetState string

const (
	// BudgetStateFresh means no strategy has been admitted yet
	BudgetStateFresh BudgetState = "FRESH"
	// BudgetStateAdmitting means at least one strategy has been admitted
	BudgetStateAdmitting BudgetState = "ADMITTING"
	// BudgetStateExhausted means an admission was rejected for lack of credits
	BudgetStateExhausted BudgetState = "EXHAUSTED"
	// BudgetStateCompleted means the session finished with credits to spare
	BudgetStateCompleted BudgetState = "COMPLETED"
)

// ---------------------------------------------------------------------------
// CreditBudget
// ---------------------------------------------------------------------------

// CreditBudget tracks a consumable, resettable credit budget for one
// tenant's sync sessions. Admission deducts the strategy's cost before
// the fetch begins (pessimistic reservation); a failed fetch is not
// refunded, mirroring real metered APIs. The budget resets only via an
// explicit Reset, never implicitly between sessions.
type CreditBudget struct {
	mu        sync.Mutex
	initial   int
	remaining int
	state     BudgetState

	// rejected records that an admission was refused for lack of credits.
	// Once set, the budget reports EXHAUSTED regardless of later
	// admissions (a cheaper required strategy may still run) until an
	// explicit Reset.
	rejected bool
}

// NewCreditBudget creates a budget with the given number of credits
func NewCreditBudget(credits int) *CreditBudget {
	if credits < 0 {
		credits = 0
	}
	return &CreditBudget{
		initial:   credits,
		remaining: credits,
		state:     BudgetStateFresh,
	}
}

// TryAdmit admits the strategy if its cost fits the remaining budget,
// deducting the cost immediately. A rejection moves the budget to
// EXHAUSTED; required strategies surface ErrBudgetInsufficientForRequired
// so the caller fails the whole session instead of skipping them.
func (b *CreditBudget) TryAdmit(s Strategy) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.Cost > b.remaining {
		b.rejected = true
		b.state = BudgetStateExhausted
		if s.Required {
			return fmt.Errorf("%w: strategy %q costs %d, %d remaining",
				ErrBudgetInsufficientForRequired, s.Name, s.Cost, b.remaining)
		}
		return fmt.Errorf("%w: strategy %q costs %d, %d remaining",
			ErrInsufficientCredits, s.Name, s.Cost, b.remaining)
	}

	b.remaining -= s.Cost
	// A prior rejection keeps the exhaustion fact: admitting a cheaper
	// strategy afterwards must not relabel the budget as healthy.
	if !b.rejected {
		b.state = BudgetStateAdmitting
	}
	return nil
}

// ObserveRemaining folds upstream credit telemetry into the budget. The
// observed value only ever lowers the remaining budget; a higher upstream
// figure is ignored so the static catalog estimates stay the floor.
func (b *CreditBudget) ObserveRemaining(observed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if observed >= 0 && observed < b.remaining {
		b.remaining = observed
	}
}

// Finish marks the budget COMPLETED unless an admission was already
// rejected, in which case EXHAUSTED stands.
func (b *CreditBudget) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.rejected {
		b.state = BudgetStateCompleted
	}
}

// Reset restores the budget to the given number of credits. This is the
// only way an exhausted budget becomes usable again.
func (b *CreditBudget) Reset(credits int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if credits < 0 {
		credits = 0
	}
	b.initial = credits
	b.remaining = credits
	b.state = BudgetStateFresh
	b.rejected = false
}

// Remaining returns the credits left
func (b *CreditBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Initial returns the budget the session started with
func (b *CreditBudget) Initial() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initial
}

// State returns the current budget state
func (b *CreditBudget) State() BudgetState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
