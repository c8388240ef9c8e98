package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry tracks the single active session. Starting a new session
// supersedes the previous one; superseded sessions keep their files
// but no longer match IsActive, which is how stale worker events get
// dropped.
type Registry struct {
	mu      sync.Mutex
	root    string
	current *Session
}

func NewRegistry(root string) *Registry {
	return &Registry{root: root}
}

// Begin allocates a fresh session directory and marks it current.
func (r *Registry) Begin() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	name := fmt.Sprintf("%s-%s", now.Format("20060102-150405"), uuid.NewString()[:8])
	dir := filepath.Join(r.root, name)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	r.current = &Session{Dir: dir, CreatedAt: now}
	return r.current, nil
}

// Current returns the active session, or nil when none has begun.
func (r *Registry) Current() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// IsActive reports whether the given session handle is still the
// current one.
func (r *Registry) IsActive(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil && r.current.Dir == dir
}

// Invalidate clears the current session without starting a new one.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
}
