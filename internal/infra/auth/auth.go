// Package auth provides permission checking implementations for the scan
// services. Checks are injected as capabilities; nothing here reads ambient
// session globals.
package auth

import (
	"context"
	"sync"

	"github.com/attewell/loadlist/internal/domain/logistics"
)

var (
	_ logistics.PermissionChecker = AllowAll{}
	_ logistics.PermissionChecker = (*StaticChecker)(nil)
)

// AllowAll grants every action to every subject. Development use only.
type AllowAll struct{}

// HasPermission always reports true.
func (AllowAll) HasPermission(context.Context, string, string) bool { return true }

// StaticChecker holds an explicit grant table. Absent grants deny.
type StaticChecker struct {
	mu     sync.Mutex
	grants map[string]map[string]bool
}

// NewStaticChecker creates an empty, default-deny checker.
func NewStaticChecker() *StaticChecker {
	return &StaticChecker{grants: make(map[string]map[string]bool)}
}

// Grant allows a subject to perform an action.
func (c *StaticChecker) Grant(subject, action string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.grants[subject] == nil {
		c.grants[subject] = make(map[string]bool)
	}
	c.grants[subject][action] = true
}

// HasPermission reports whether the subject was granted the action.
func (c *StaticChecker) HasPermission(ctx context.Context, subject, action string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grants[subject][action]
}
