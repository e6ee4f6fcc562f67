package flashpool

import "sync"

// PauseSet is a mutable set of halted operations satisfying the
// common.PauseView interface. The daemon wires one instance into the engine
// and flips switches through the privileged RPC surface.
type PauseSet struct {
	mu     sync.RWMutex
	halted map[string]bool
}

func NewPauseSet() *PauseSet {
	return &PauseSet{halted: make(map[string]bool)}
}

// IsPaused implements common.PauseView.
func (p *PauseSet) IsPaused(operation string) bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.halted[operation]
}

// Set halts or resumes the named operation.
func (p *PauseSet) Set(operation string, paused bool) {
	if p == nil || operation == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if paused {
		p.halted[operation] = true
	} else {
		delete(p.halted, operation)
	}
}
