package rbac

// Actions of the role/module permission matrix. Every protected endpoint
// checks exactly one of these against the caller's role.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
	ActionImport = "import"
	ActionExport = "export"
)

// modelText is a flat RBAC model: role, module, action triples with an
// allow-only effect. Role inheritance is not used; the permission matrix
// in the store is already fully expanded per role.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`
