package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"uhmwpe-mdm/core/auth"
	"uhmwpe-mdm/core/store"
)

const (
	LoginPageURL = "login.html"
	MainPageURL  = "index.html"

	StorageKeyRole     = "userRoleName"
	StorageKeyUsername = "username"

	loginRedirectDelay  = 1500 * time.Millisecond
	logoutRedirectDelay = 1500 * time.Millisecond

	requestTimeout = 10 * time.Second
	uploadTimeout  = 60 * time.Second
)

// ErrValidation marks client-side validation failures that never reach
// the network.
var ErrValidation = errors.New("validation failed")

// Client wraps the auth and nav endpoints and carries the shared UI
// dependencies for the record controllers.
type Client struct {
	baseURL  string
	http     *http.Client
	upload   *http.Client
	store    Store
	notifier Notifier
	nav      Navigator
	loading  *Loading
	sleep    func(time.Duration)
}

// Deps are the injectable collaborators. Nil fields get inert defaults
// so tests can supply only what they observe.
type Deps struct {
	HTTP     *http.Client
	Upload   *http.Client
	Store    Store
	Notifier Notifier
	Nav      Navigator
	Loading  *Loading
	Sleep    func(time.Duration)
}

type noopNotifier struct{}

func (noopNotifier) Notify(Level, string) {}

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}

func New(baseURL string, deps Deps) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     deps.HTTP,
		upload:   deps.Upload,
		store:    deps.Store,
		notifier: deps.Notifier,
		nav:      deps.Nav,
		loading:  deps.Loading,
		sleep:    deps.Sleep,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: requestTimeout}
	}
	if c.upload == nil {
		c.upload = &http.Client{Timeout: uploadTimeout}
	}
	if c.store == nil {
		c.store = NewMemoryStore()
	}
	if c.notifier == nil {
		c.notifier = noopNotifier{}
	}
	if c.nav == nil {
		c.nav = noopNavigator{}
	}
	if c.loading == nil {
		c.loading = NewLoading(nil)
	}
	if c.sleep == nil {
		c.sleep = time.Sleep
	}
	return c
}

func (c *Client) Loading() *Loading { return c.loading }

type statusResponse struct {
	LoggedIn bool              `json:"logged_in"`
	User     *auth.SessionUser `json:"user"`
	Message  string            `json:"message"`
}

// CheckStatus resolves the current session. 401 and 404 mean "not
// logged in" and stay silent; any other failure notifies and still
// yields nil so callers can fall through to the anonymous path.
func (c *Client) CheckStatus(ctx context.Context) (*auth.SessionUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.notifier.Notify(LevelError, "Could not reach the server: "+err.Error())
		return nil, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		msg := messageFromBody(resp.Body, resp.StatusCode)
		c.notifier.Notify(LevelError, msg)
		return nil, errors.New(msg)
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		c.notifier.Notify(LevelError, "Unexpected response from the server")
		return nil, err
	}
	if !status.LoggedIn || status.User == nil {
		return nil, nil
	}
	return status.User, nil
}

type loginResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	User    *auth.SessionUser `json:"user"`
}

// Login posts credentials, caches the derived identity and navigates to
// the main page after a short delay so the success toast is readable.
func (c *Client) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		c.notifier.Notify(LevelError, "Username and password are required")
		return ErrValidation
	}

	c.loading.Show("Signing in...")
	defer c.loading.Hide()

	body, _ := json.Marshal(auth.Credentials{Username: username, Password: password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.notifier.Notify(LevelError, "Login failed: "+err.Error())
		return err
	}
	defer resp.Body.Close()

	var lr loginResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&lr)
	if resp.StatusCode != http.StatusOK || decodeErr != nil || !lr.Success || lr.User == nil {
		msg := lr.Message
		if msg == "" {
			msg = fmt.Sprintf("Login failed (status %d)", resp.StatusCode)
		}
		c.notifier.Notify(LevelError, msg)
		return errors.New(msg)
	}

	c.store.Set(StorageKeyRole, lr.User.Role.Name)
	c.store.Set(StorageKeyUsername, lr.User.Username)
	c.notifier.Notify(LevelSuccess, "Login successful")
	c.sleep(loginRedirectDelay)
	c.nav.Navigate(MainPageURL)
	return nil
}

// Logout posts the logout and navigates to the login page on success
// only; a failed logout leaves the user where they are.
func (c *Client) Logout(ctx context.Context) error {
	c.loading.Show("Signing out...")
	defer c.loading.Hide()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.notifier.Notify(LevelError, "Logout failed: "+err.Error())
		return err
	}
	defer resp.Body.Close()

	var lr loginResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&lr)
	if resp.StatusCode != http.StatusOK || decodeErr != nil || !lr.Success {
		msg := lr.Message
		if msg == "" {
			msg = fmt.Sprintf("Logout failed (status %d)", resp.StatusCode)
		}
		c.notifier.Notify(LevelError, msg)
		return errors.New(msg)
	}

	c.store.Delete(StorageKeyRole)
	c.store.Delete(StorageKeyUsername)
	c.notifier.Notify(LevelSuccess, "Signed out")
	c.sleep(logoutRedirectDelay)
	c.nav.Navigate(LoginPageURL)
	return nil
}

type modulesResponse struct {
	Success bool              `json:"success"`
	Modules []store.NavModule `json:"modules"`
	Message string            `json:"message"`
}

// FetchModules loads the nav modules the current role can read.
func (c *Client) FetchModules(ctx context.Context) ([]store.NavModule, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/user/modules", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.notifier.Notify(LevelError, "Could not load modules: "+err.Error())
		return nil, err
	}
	defer resp.Body.Close()
	var mr modulesResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&mr)
	if resp.StatusCode != http.StatusOK || decodeErr != nil || !mr.Success {
		msg := mr.Message
		if msg == "" {
			msg = fmt.Sprintf("Could not load modules (status %d)", resp.StatusCode)
		}
		c.notifier.Notify(LevelError, msg)
		return nil, errors.New(msg)
	}
	return mr.Modules, nil
}

// messageFromBody pulls a server-supplied message out of an error body,
// falling back to a templated status message.
func messageFromBody(r io.Reader, status int) string {
	var payload struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("Request failed (status %d)", status)
}
