package eventstore

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/vanderheijden86/chronarc/pkg/debug"
	"github.com/vanderheijden86/chronarc/pkg/model"
)

// ErrNotAttackable is returned when an attack targets an event that is not safe.
var ErrNotAttackable = errors.New("event is not in safe state")

// StateLookup resolves the current game state of an event.
type StateLookup interface {
	State(id string) (model.EventState, bool)
}

// StateLookupFunc adapts a function to StateLookup.
type StateLookupFunc func(id string) (model.EventState, bool)

// State implements StateLookup.
func (f StateLookupFunc) State(id string) (model.EventState, bool) {
	return f(id)
}

// StateBook is the mutable game-state side of the store. It is seeded from
// the stored states and updated by defense outcomes; the Store itself stays
// immutable.
type StateBook struct {
	mu     sync.RWMutex
	store  *Store
	states map[string]model.EventState
}

// NewStateBook seeds a book with every event's stored state.
func NewStateBook(store *Store) *StateBook {
	b := &StateBook{
		store:  store,
		states: make(map[string]model.EventState, store.Len()),
	}
	for _, e := range store.events {
		b.states[e.ID] = e.State
	}
	return b
}

// State implements StateLookup.
func (b *StateBook) State(id string) (model.EventState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st, ok := b.states[id]
	return st, ok
}

// Set overwrites an event's state.
func (b *StateBook) Set(id string, st model.EventState) error {
	if !st.IsValid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownState, st)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.states[id]; !ok {
		return fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	b.states[id] = st
	debug.Log("event %s state -> %s", id, st)
	return nil
}

// Adopt copies prev's states onto the events this book shares with it and
// returns how many differ from the stored state. Ids missing from this book
// are dropped.
func (b *StateBook) Adopt(prev *StateBook) int {
	if prev == nil || prev == b {
		return 0
	}
	prev.mu.RLock()
	defer prev.mu.RUnlock()
	b.mu.Lock()
	defer b.mu.Unlock()
	changed := 0
	for id, st := range prev.states {
		cur, ok := b.states[id]
		if !ok || cur == st {
			continue
		}
		b.states[id] = st
		changed++
	}
	return changed
}

// HandleDefenseOutcome marks the event defended on success and corrupted otherwise.
func (b *StateBook) HandleDefenseOutcome(id string, success bool) error {
	if success {
		return b.Set(id, model.StateDefended)
	}
	return b.Set(id, model.StateCorrupted)
}

// CanDefend reports whether the event is currently under attack.
func (b *StateBook) CanDefend(id string) bool {
	st, ok := b.State(id)
	return ok && st == model.StateAttacked
}

// SimulateAttack moves a safe event to attacked.
func (b *StateBook) SimulateAttack(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	if st != model.StateSafe {
		return fmt.Errorf("%w: %s is %s", ErrNotAttackable, id, st)
	}
	b.states[id] = model.StateAttacked
	debug.Log("event %s is now under attack", id)
	return nil
}

// Events returns the store snapshot with this book's states applied.
func (b *StateBook) Events() []model.Event {
	return b.store.Snapshot(b)
}

// AttackRandom attacks each safe event with probability chance, visiting
// events in store order so a seeded rng gives a repeatable wave. It returns
// the ids that came under attack.
func (b *StateBook) AttackRandom(rng *rand.Rand, chance float64) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var hit []string
	for _, e := range b.store.events {
		if b.states[e.ID] != model.StateSafe {
			continue
		}
		if rng.Float64() < chance {
			b.states[e.ID] = model.StateAttacked
			hit = append(hit, e.ID)
		}
	}
	debug.Log("attack wave: %d events under attack", len(hit))
	return hit
}

// Counts tallies the current states.
func (b *StateBook) Counts() map[model.EventState]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[model.EventState]int, len(model.AllStates))
	for _, st := range b.states {
		out[st]++
	}
	return out
}
