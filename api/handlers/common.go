package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"uhmwpe-mdm/core/auth"
)

const SessionCookieName = "mdm_session"

type ctxKey int

const sessionUserKey ctxKey = iota

func WithSessionUser(ctx context.Context, u *auth.SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserKey, u)
}

func SessionUserFromContext(ctx context.Context) *auth.SessionUser {
	u, _ := ctx.Value(sessionUserKey).(*auth.SessionUser)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMessage is the {success, message} envelope used by every
// mutation endpoint.
func writeMessage(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, map[string]interface{}{"success": success, "message": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
