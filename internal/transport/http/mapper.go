package http

import (
	"github.com/samber/lo"

	"github.com/vovakirdan/chatd/internal/core"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GroupResponse describes one group.
type GroupResponse struct {
	Name    string   `json:"name"`
	ID      int      `json:"id"`
	Members []string `json:"members"`
}

// StatsResponse summarises the hub.
type StatsResponse struct {
	Online  int `json:"online"`
	Groups  int `json:"groups"`
	Backlog int `json:"backlog"`
}

// SessionsResponse lists online users.
type SessionsResponse struct {
	Users []string `json:"users"`
}

// GroupsResponse lists groups ordered by id.
type GroupsResponse struct {
	Groups []GroupResponse `json:"groups"`
}

func statsFromCore(s core.Stats) StatsResponse {
	return StatsResponse{
		Online:  len(s.Online),
		Groups:  len(s.Groups),
		Backlog: s.Backlog,
	}
}

func groupsFromCore(groups []core.GroupInfo) GroupsResponse {
	return GroupsResponse{
		Groups: lo.Map(groups, func(g core.GroupInfo, _ int) GroupResponse {
			return GroupResponse{Name: g.Name, ID: g.ID, Members: lo.Ternary(g.Members == nil, []string{}, g.Members)}
		}),
	}
}
