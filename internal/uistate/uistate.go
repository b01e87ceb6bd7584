// Package uistate holds the transient view state of an open board.
package uistate

import "sync"

// State is the view state shared by the board screens.
type State struct {
	ActiveCardID string
	ModalOpen    bool
}

// Container is an injectable holder for State. The zero value is not usable;
// create one with New.
type Container struct {
	mu      sync.RWMutex
	initial State
	state   State
}

// New creates a container whose Reset returns to initial.
func New(initial State) *Container {
	return &Container{initial: initial, state: initial}
}

// Get returns a copy of the current state.
func (c *Container) Get() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Set replaces the state.
func (c *Container) Set(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Update applies fn to the current state atomically and returns the result.
func (c *Container) Update(fn func(State) State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	return c.state
}

// Reset restores the initial state.
func (c *Container) Reset() {
	c.mu.Lock()
	c.state = c.initial
	c.mu.Unlock()
}

// OpenCard marks cardID active and opens its modal.
func (c *Container) OpenCard(cardID string) {
	c.Set(State{ActiveCardID: cardID, ModalOpen: true})
}

// CloseModal closes the modal and clears the active card.
func (c *Container) CloseModal() {
	c.Update(func(s State) State {
		s.ModalOpen = false
		s.ActiveCardID = ""
		return s
	})
}
