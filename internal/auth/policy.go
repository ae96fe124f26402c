package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrForbidden = errors.New("forbidden")

const (
	RouteModerator        = "moderator"
	RouteAdmin            = "admin"
	RouteModerationAction = "moderation.action"
	RouteAudit            = "audit"
)

// Policy maps a route name to the set of roles allowed to reach it. Routes
// absent from the table only need a valid token.
type Policy struct {
	Enabled bool
	routes  map[string]map[Role]struct{}
}

func NewPolicy(enabled bool, table map[string][]Role) *Policy {
	p := &Policy{Enabled: enabled, routes: make(map[string]map[Role]struct{}, len(table))}
	for route, roles := range table {
		set := make(map[Role]struct{}, len(roles))
		for _, r := range roles {
			set[r] = struct{}{}
		}
		p.routes[route] = set
	}
	return p
}

func DefaultPolicy(enabled bool) *Policy {
	return NewPolicy(enabled, map[string][]Role{
		RouteModerator:        {RoleModerator, RoleAdmin},
		RouteModerationAction: {RoleModerator, RoleAdmin},
		RouteAdmin:            {RoleAdmin},
		RouteAudit:            {RoleAdmin},
	})
}

func (p *Policy) Gated(route string) bool {
	_, ok := p.routes[route]
	return ok
}

func (p *Policy) Authorize(c *Claims, route string) error {
	if !p.Enabled {
		return nil
	}
	allowed, ok := p.routes[route]
	if !ok {
		return nil
	}
	if c != nil {
		if _, ok := allowed[c.Role]; ok {
			return nil
		}
	}
	return fmt.Errorf("%w: requires one of [%s]", ErrForbidden, strings.Join(p.rolesFor(route), ", "))
}

func (p *Policy) rolesFor(route string) []string {
	out := make([]string, 0, len(p.routes[route]))
	for r := range p.routes[route] {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}
