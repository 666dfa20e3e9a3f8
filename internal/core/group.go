package core

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Group is a named set of usernames with a stable id.
// Membership is guarded by the group's own lock so different groups never contend.
type Group struct {
	Name string
	ID   int

	mu      sync.Mutex
	members map[string]struct{}
}

func newGroup(name string, id int, owner string) *Group {
	return &Group{
		Name:    name,
		ID:      id,
		members: map[string]struct{}{owner: {}},
	}
}

// Members returns a sorted snapshot of the member set.
func (g *Group) Members() []string {
	g.mu.Lock()
	members := lo.Keys(g.members)
	g.mu.Unlock()

	slices.Sort(members)
	return members
}

// Groups is the registry of all groups. Groups are never deleted.
type Groups struct {
	mu     sync.RWMutex
	byName map[string]*Group
	nextID int
}

// NewGroups creates an empty registry.
func NewGroups() *Groups {
	return &Groups{byName: make(map[string]*Group)}
}

// Create adds a group owned by owner unless the name is taken.
func (r *Groups) Create(name, owner string) (*Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return nil, ErrGroupExists
	}
	g := newGroup(name, r.nextID, owner)
	r.nextID++
	r.byName[name] = g
	return g, nil
}

// Get looks a group up by name.
func (r *Groups) Get(name string) (*Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byName[name]
	return g, ok
}

// Join adds user to the named group. Joining twice is a no-op.
func (r *Groups) Join(name, user string) error {
	g, ok := r.Get(name)
	if !ok {
		return ErrGroupNotFound
	}

	g.mu.Lock()
	g.members[user] = struct{}{}
	g.mu.Unlock()
	return nil
}

// Leave removes user from the named group.
func (r *Groups) Leave(name, user string) error {
	g, ok := r.Get(name)
	if !ok {
		return ErrGroupNotFound
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, member := g.members[user]; !member {
		return ErrNotMember
	}
	delete(g.members, user)
	return nil
}

// FanOut calls fn with the current members while the group lock is held,
// so no join or leave can interleave with the fan-out.
func (r *Groups) FanOut(name string, fn func(members []string)) error {
	g, ok := r.Get(name)
	if !ok {
		return ErrGroupNotFound
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	fn(lo.Keys(g.members))
	return nil
}

// All returns the groups ordered by id.
func (r *Groups) All() []*Group {
	r.mu.RLock()
	groups := lo.Values(r.byName)
	r.mu.RUnlock()

	slices.SortFunc(groups, func(a, b *Group) int { return a.ID - b.ID })
	return groups
}
