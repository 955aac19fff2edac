// Package strategy defines the Strategy contract for quantitative trading
// strategies and provides a Registry for name-based lookup.
package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Eddieaero/Quickfix/internal/domain"
	"github.com/Eddieaero/Quickfix/internal/indicator"
)

// Strategy is the contract every trading strategy must implement.
type Strategy interface {
	// Name returns the display name of the strategy.
	Name() string

	// Description returns a human-readable summary of the strategy logic.
	Description() string

	// MinimumBars returns the number of bars required before the strategy
	// can produce a real signal.
	MinimumBars() int

	// RequiredIndicators returns the indicator keys (e.g. "SMA_50") the
	// engine must compute for each window.
	RequiredIndicators() []string

	// Validate reports whether the strategy is properly configured. A
	// non-nil error wraps domain.ErrConfiguration and the engine refuses
	// to run the strategy.
	Validate() error

	// GenerateSignal produces a recommendation for the last bar of the
	// window. The window is the causal price history up to and including
	// the current bar; indicators are aligned index-for-index with it.
	// When the window or the indicators are not yet sufficient, the
	// strategy returns Hold with a diagnostic reason.
	GenerateSignal(window []domain.Bar, indicators map[string]indicator.Series) domain.Signal
}

// Registry holds a named collection of strategies for lookup and
// enumeration. Lookup is insensitive to case and to space/underscore/
// hyphen formatting, so "SMA Crossover" and "sma_crossover" resolve to
// the same strategy.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its normalized
// Name(). Registering two strategies whose names normalize to the same
// key is a configuration error.
func (r *Registry) Register(s Strategy) error {
	key := normalize(s.Name())
	if _, exists := r.strategies[key]; exists {
		return fmt.Errorf("%w: strategy %q already registered", domain.ErrConfiguration, s.Name())
	}
	r.strategies[key] = s
	return nil
}

// Lookup retrieves a strategy by name. The second return value indicates
// whether the strategy was found.
func (r *Registry) Lookup(name string) (Strategy, bool) {
	s, ok := r.strategies[normalize(name)]
	return s, ok
}

// List returns the display names of all registered strategies, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name())
	}
	sort.Strings(names)
	return names
}

// normalize lowercases a strategy name and strips spaces, underscores,
// and hyphens.
func normalize(name string) string {
	name = strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, name)
}

// ValidateDescriptors checks the descriptive fields every strategy must
// carry. Concrete strategies call this from Validate.
func ValidateDescriptors(s Strategy) error {
	if s.Name() == "" {
		return fmt.Errorf("%w: empty name", domain.ErrConfiguration)
	}
	if s.Description() == "" {
		return fmt.Errorf("%w: %s has no description", domain.ErrConfiguration, s.Name())
	}
	if s.MinimumBars() <= 0 {
		return fmt.Errorf("%w: %s has non-positive minimum bars", domain.ErrConfiguration, s.Name())
	}
	if len(s.RequiredIndicators()) == 0 {
		return fmt.Errorf("%w: %s requires no indicators", domain.ErrConfiguration, s.Name())
	}
	return nil
}

// CrossedAbove reports whether series a crossed above series b on the
// last bar: previously a ≤ b, now a > b. Both series need defined values
// at their last two indices.
func CrossedAbove(a, b indicator.Series) bool {
	prevA, ok1 := a.Prev(2)
	currA, ok2 := a.Last()
	prevB, ok3 := b.Prev(2)
	currB, ok4 := b.Last()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return prevA <= prevB && currA > currB
}

// CrossedBelow reports whether series a crossed below series b on the
// last bar: previously a ≥ b, now a < b.
func CrossedBelow(a, b indicator.Series) bool {
	prevA, ok1 := a.Prev(2)
	currA, ok2 := a.Last()
	prevB, ok3 := b.Prev(2)
	currB, ok4 := b.Last()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return prevA >= prevB && currA < currB
}
