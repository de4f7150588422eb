package client

import (
	"context"
	"time"
)

const anonymousRedirectDelay = 2 * time.Second

// App runs the once-per-page bootstrap: session gate, module fetch, nav
// build with first-module auto-activation.
type App struct {
	client *Client
	nav    *NavView
}

func NewApp(c *Client, nav *NavView) *App {
	return &App{client: c, nav: nav}
}

// RunLoginPage redirects already-authenticated visitors to the main
// page; anonymous visitors stay on the form.
func (a *App) RunLoginPage(ctx context.Context) error {
	user, err := a.client.CheckStatus(ctx)
	if err != nil {
		return err
	}
	if user != nil {
		a.client.nav.Navigate(MainPageURL)
	}
	return nil
}

// Run gates a protected page on the session, then builds the nav from
// the role's permitted modules.
func (a *App) Run(ctx context.Context) error {
	user, err := a.client.CheckStatus(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		a.client.notifier.Notify(LevelInfo, "Please sign in")
		a.client.sleep(anonymousRedirectDelay)
		a.client.nav.Navigate(LoginPageURL)
		return nil
	}
	a.client.store.Set(StorageKeyRole, user.Role.Name)
	a.client.store.Set(StorageKeyUsername, user.Username)

	modules, err := a.client.FetchModules(ctx)
	if err != nil {
		a.nav.Build(nil)
		return err
	}
	a.nav.Build(modules)
	return nil
}
