package handlers

import (
	"net/http"
	"strings"
	"time"

	"uhmwpe-mdm/config"
	"uhmwpe-mdm/core/auth"
	"uhmwpe-mdm/core/store"
	"uhmwpe-mdm/core/utils"

	"github.com/gofrs/uuid/v5"
)

type AuthHandler struct {
	cfg      *config.AppConfig
	logger   *utils.Logger
	users    store.UsersStore
	sessions store.SessionStore
}

func NewAuthHandler(cfg *config.AppConfig, logger *utils.Logger,
	users store.UsersStore, sessions store.SessionStore) *AuthHandler {
	return &AuthHandler{cfg: cfg, logger: logger, users: users, sessions: sessions}
}

func sessionUserOf(u *store.User) *auth.SessionUser {
	su := &auth.SessionUser{
		ID:       u.ID,
		Username: u.Username,
		Role:     auth.RoleInfo{ID: u.RoleID, Name: u.RoleName},
	}
	if u.FullName != nil {
		su.FullName = *u.FullName
	}
	if u.Email != nil {
		su.Email = *u.Email
	}
	return su
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		writeMessage(w, http.StatusBadRequest, false, "Username and password are required")
		return
	}

	user, err := h.users.FindByUsername(r.Context(), creds.Username)
	if err != nil {
		h.logger.Errorf("login lookup failed user=%s: %v", creds.Username, err)
		writeMessage(w, http.StatusInternalServerError, false, "Login failed")
		return
	}
	if user == nil || !user.Active {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid username or password")
		return
	}
	stored, err := auth.ParsePasswordHash(user.PasswordHash, user.Salt)
	if err != nil {
		h.logger.Errorf("login hash parse failed user=%s: %v", creds.Username, err)
		writeMessage(w, http.StatusInternalServerError, false, "Login failed")
		return
	}
	ok, err := auth.VerifyPassword(creds.Password, h.cfg.Pepper, stored)
	if err != nil || !ok {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid username or password")
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		h.logger.Errorf("session id generation failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Login failed")
		return
	}
	now := time.Now().UTC()
	sess := &store.SessionRecord{
		ID:         id.String(),
		UserID:     user.ID,
		Username:   user.Username,
		RoleName:   user.RoleName,
		IP:         remoteIP(r),
		UserAgent:  r.UserAgent(),
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(h.cfg.SessionTTL),
	}
	if err := h.sessions.SaveSession(r.Context(), sess); err != nil {
		h.logger.Errorf("session save failed user=%s: %v", user.Username, err)
		writeMessage(w, http.StatusInternalServerError, false, "Login failed")
		return
	}
	if err := h.users.UpdateLastLogin(r.Context(), user.ID, now); err != nil {
		h.logger.Warnf("last login update failed user=%s: %v", user.Username, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !h.cfg.IsDev(),
		Expires:  sess.ExpiresAt,
	})
	h.logger.Printf("login ok user=%s role=%s", user.Username, user.RoleName)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"user":    sessionUserOf(user),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		if err := h.sessions.DeleteSession(r.Context(), c.Value); err != nil {
			h.logger.Warnf("session delete failed: %v", err)
		}
	}
	clearSessionCookie(w)
	writeMessage(w, http.StatusOK, true, "Logged out")
}

// Status resolves the cookie without requiring auth: anonymous callers
// get 200 logged_in=false, a cookie whose user row vanished gets 404 so
// the client drops its cached identity.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"logged_in": false})
		return
	}
	sess, err := h.sessions.GetSession(r.Context(), c.Value)
	if err != nil {
		h.logger.Errorf("status session lookup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Status check failed")
		return
	}
	if sess == nil {
		clearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]interface{}{"logged_in": false})
		return
	}
	user, err := h.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		h.logger.Errorf("status user lookup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Status check failed")
		return
	}
	if user == nil || !user.Active {
		_ = h.sessions.DeleteSession(r.Context(), sess.ID)
		clearSessionCookie(w)
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"logged_in": false,
			"message":   "Session user no longer exists",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logged_in": true,
		"user":      sessionUserOf(user),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}
