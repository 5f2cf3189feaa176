package iam

import (
	"fmt"
	"log"
	"sort"

	"github.com/casbin/casbin/v2"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/models"
)

// AccessMap is the immutable procedure → permitted roles table of one Api.
// Procedure existence is answered by the map, role permission by a
// read-only Casbin enforcer built from the same data.
type AccessMap struct {
	procedures map[string][]string
	enforcer   *casbin.SyncedEnforcer
}

// NewAccessMap builds an AccessMap from a procedure → roles table. Empty
// role names are ignored; a procedure listed with no roles exists but
// permits only root.
func NewAccessMap(table map[string][]string) (*AccessMap, error) {
	procedures := make(map[string][]string, len(table))
	for procedure, roles := range table {
		seen := make(map[string]bool, len(roles))
		kept := make([]string, 0, len(roles))
		for _, role := range roles {
			if role != "" && !seen[role] {
				seen[role] = true
				kept = append(kept, role)
			}
		}
		sort.Strings(kept)
		procedures[procedure] = kept
	}

	enforcer, err := auth.InitEnforcer(procedures)
	if err != nil {
		return nil, fmt.Errorf("build access map: %w", err)
	}
	return &AccessMap{procedures: procedures, enforcer: enforcer}, nil
}

// AccessTableFromRows folds repository rows into a procedure → roles table.
func AccessTableFromRows(rows []models.ProcedureAccess) map[string][]string {
	table := make(map[string][]string)
	for _, row := range rows {
		roles := table[row.Procedure]
		if row.Role != "" {
			roles = append(roles, row.Role)
		}
		table[row.Procedure] = roles
	}
	for _, roles := range table {
		sort.Strings(roles)
	}
	return table
}

// Known reports whether the procedure is in the map.
func (m *AccessMap) Known(procedure string) bool {
	_, ok := m.procedures[procedure]
	return ok
}

// Permits reports whether role may call procedure. It is the only place role
// names are compared. Comparison is exact and case-sensitive. The root role
// is permitted everything.
func (m *AccessMap) Permits(role, procedure string) error {
	if auth.IsRootName(role) {
		return nil
	}
	if !m.Known(procedure) {
		return fmt.Errorf("%w: %s", ErrUnknownProcedure, procedure)
	}
	allowed, err := m.enforcer.Enforce(role, procedure)
	if err != nil {
		log.Printf("access map enforcement error (role=%s, procedure=%s): %v", role, procedure, err)
		return fmt.Errorf("%w: %s", ErrRoleNotPermitted, procedure)
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrRoleNotPermitted, procedure)
	}
	return nil
}

// Table returns a copy of the procedure → roles table.
func (m *AccessMap) Table() map[string][]string {
	out := make(map[string][]string, len(m.procedures))
	for procedure, roles := range m.procedures {
		out[procedure] = append([]string(nil), roles...)
	}
	return out
}
