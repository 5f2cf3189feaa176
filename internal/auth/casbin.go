package auth

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var casbinModelContent string

// InitEnforcer creates a Casbin enforcer with the embedded role/procedure
// model and loads one "p, role, procedure" policy per permitted pair.
// The enforcer has no adapter; policies live only in memory and are never
// mutated after this call.
func InitEnforcer(policies map[string][]string) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	var rules [][]string
	for procedure, roles := range policies {
		for _, role := range roles {
			rules = append(rules, []string{role, procedure})
		}
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPoliciesEx(rules); err != nil {
			return nil, fmt.Errorf("load casbin policies: %w", err)
		}
	}
	return enforcer, nil
}
