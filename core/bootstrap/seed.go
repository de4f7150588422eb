package bootstrap

import (
	"context"
	"fmt"

	"uhmwpe-mdm/config"
	"uhmwpe-mdm/core/auth"
	"uhmwpe-mdm/core/store"
	"uhmwpe-mdm/core/utils"
)

// ModuleResinSpinning is the permission key of the resin & spinning
// process data module. Handlers and the seeded matrix agree on it.
const ModuleResinSpinning = "resin_spinning"

type seedModule struct {
	name  string
	route string
}

var seedModules = []seedModule{
	{"user_management", "/admin/users"},
	{"role_management", "/admin/roles"},
	{"fiber_data", "/data/fibers"},
	{"fabric_data", "/data/fabrics"},
	{"laminate_data", "/data/laminates"},
	{"ballistic_data", "/data/ballistic"},
	{"experiment_records", "/data/experiments"},
	{ModuleResinSpinning, "/data/resin-spinning"},
	{"public_query", "/public/query"},
	{"about", "/public/about"},
}

type seedGrant struct {
	role    string
	module  string
	read    bool
	write   bool
	del     bool
	imports bool
	exports bool
}

func adminGrants() []seedGrant {
	out := make([]seedGrant, 0, len(seedModules))
	for _, m := range seedModules {
		out = append(out, seedGrant{"Admin", m.name, true, true, true, true, true})
	}
	return out
}

var roleGrants = []seedGrant{
	{"Researcher", "fiber_data", true, false, false, false, false},
	{"Researcher", "fabric_data", true, false, false, false, false},
	{"Researcher", "laminate_data", true, false, false, false, false},
	{"Researcher", "ballistic_data", true, false, false, false, false},
	{"Researcher", "experiment_records", true, true, false, true, true},
	{"Researcher", ModuleResinSpinning, true, true, false, true, true},
	{"Guest", ModuleResinSpinning, true, false, false, false, false},
	{"Guest", "public_query", true, false, false, false, false},
	{"Guest", "about", true, false, false, false, false},
}

// EnsureDefaults seeds roles, nav modules, the permission matrix and the
// initial admin account. All steps are idempotent, so it runs on every
// startup.
func EnsureDefaults(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger,
	users store.UsersStore, modules store.ModulesStore) error {

	roleIDs := map[string]int64{}
	for _, r := range []struct{ name, desc string }{
		{"Admin", "Full access to all modules"},
		{"Researcher", "Read/write access to experimental data"},
		{"Guest", "Read-only public access"},
	} {
		id, err := modules.EnsureRole(ctx, r.name, r.desc)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", r.name, err)
		}
		roleIDs[r.name] = id
	}

	moduleIDs := map[string]int64{}
	for _, m := range seedModules {
		id, err := modules.EnsureModule(ctx, m.name, m.route)
		if err != nil {
			return fmt.Errorf("seed module %s: %w", m.name, err)
		}
		moduleIDs[m.name] = id
	}

	grants := append(adminGrants(), roleGrants...)
	for _, g := range grants {
		if err := modules.UpsertPermission(ctx, store.ModulePermission{
			RoleID:    roleIDs[g.role],
			ModuleID:  moduleIDs[g.module],
			CanRead:   g.read,
			CanWrite:  g.write,
			CanDelete: g.del,
			CanImport: g.imports,
			CanExport: g.exports,
		}); err != nil {
			return fmt.Errorf("seed permission %s/%s: %w", g.role, g.module, err)
		}
	}

	return ensureAdminUser(ctx, cfg, logger, users, roleIDs["Admin"])
}

func ensureAdminUser(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger,
	users store.UsersStore, adminRoleID int64) error {

	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	password := cfg.Admin.Password
	if password == "" {
		if !cfg.IsDev() {
			return fmt.Errorf("MDM_ADMIN_PASSWORD is required to create the first admin")
		}
		password = "admin"
		if logger != nil {
			logger.Warnf("seeding dev admin with default password; change it")
		}
	}
	ph, err := auth.HashPassword(password, cfg.Pepper)
	if err != nil {
		return err
	}
	u := &store.User{
		Username:     cfg.Admin.Username,
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
		RoleID:       adminRoleID,
		Active:       true,
	}
	if err := users.Create(ctx, u); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("seeded initial admin user=%s id=%d", u.Username, u.ID)
	}
	return nil
}
