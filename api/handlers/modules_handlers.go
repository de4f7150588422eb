package handlers

import (
	"net/http"

	"uhmwpe-mdm/core/store"
	"uhmwpe-mdm/core/utils"
)

type ModulesHandler struct {
	logger  *utils.Logger
	modules store.ModulesStore
}

func NewModulesHandler(logger *utils.Logger, modules store.ModulesStore) *ModulesHandler {
	return &ModulesHandler{logger: logger, modules: modules}
}

// UserModules returns the nav modules the caller's role can read.
func (h *ModulesHandler) UserModules(w http.ResponseWriter, r *http.Request) {
	user := SessionUserFromContext(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, false, "Authentication required")
		return
	}
	mods, err := h.modules.ListModulesForRole(r.Context(), user.Role.Name)
	if err != nil {
		h.logger.Errorf("module list failed role=%s: %v", user.Role.Name, err)
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load modules")
		return
	}
	if mods == nil {
		mods = []store.NavModule{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"modules": mods,
	})
}
