package core

import "github.com/samber/lo"

// GroupInfo is a point-in-time view of a group.
type GroupInfo struct {
	Name    string
	ID      int
	Members []string
}

// Stats is a point-in-time view of the hub used by the admin API.
type Stats struct {
	Online  []string
	Groups  []GroupInfo
	Backlog int
}

// Stats snapshots sessions, groups and the backlog. The parts are read
// independently and may be mutually inconsistent under concurrent activity.
func (h *Hub) Stats() Stats {
	return Stats{
		Online: h.sessions.Online(),
		Groups: lo.Map(h.groups.All(), func(g *Group, _ int) GroupInfo {
			return GroupInfo{Name: g.Name, ID: g.ID, Members: g.Members()}
		}),
		Backlog: h.backlog.Len(),
	}
}
