package rbac

import (
	"context"
	"sync"

	"uhmwpe-mdm/core/store"
	"uhmwpe-mdm/core/utils"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Policy wraps an in-memory casbin enforcer loaded from the
// role_permissions table. Refresh replaces the whole policy set, so
// permission edits take effect without a restart.
type Policy struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	logger   *utils.Logger
}

func NewPolicy(logger *utils.Logger) (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	return &Policy{enforcer: e, logger: logger}, nil
}

// Allowed reports whether role may perform action on module. Unknown
// roles and modules simply have no matching policy rows and are denied.
func (p *Policy) Allowed(role, module, action string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ok, err := p.enforcer.Enforce(role, module, action)
	if err != nil {
		if p.logger != nil {
			p.logger.Errorf("rbac enforce failed: %v", err)
		}
		return false
	}
	return ok
}

// RefreshFromStore rebuilds the policy from the permission matrix.
func (p *Policy) RefreshFromStore(ctx context.Context, ms store.ModulesStore) error {
	perms, err := ms.ListPermissions(ctx)
	if err != nil {
		return err
	}
	rules := make([][]string, 0, len(perms)*3)
	for _, perm := range perms {
		for action, allowed := range map[string]bool{
			ActionRead:   perm.CanRead,
			ActionWrite:  perm.CanWrite,
			ActionDelete: perm.CanDelete,
			ActionImport: perm.CanImport,
			ActionExport: perm.CanExport,
		} {
			if allowed {
				rules = append(rules, []string{perm.RoleName, perm.Module, action})
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.enforcer.ClearPolicy()
	if len(rules) > 0 {
		if _, err := p.enforcer.AddPolicies(rules); err != nil {
			return err
		}
	}
	if p.logger != nil {
		p.logger.Printf("rbac policy refreshed rules=%d", len(rules))
	}
	return nil
}
