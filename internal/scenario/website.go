package scenario

import (
	"context"
	"net/url"
	"time"
)

// Website user defaults.
const (
	IndexWeight    = 4
	WebsiteMinWait = 5000 * time.Millisecond
	WebsiteMaxWait = 9000 * time.Millisecond
)

// Credentials are submitted as form fields on login and logout.
type Credentials struct {
	Username string
	Password string
}

// Website returns the website user: it logs in on start, repeatedly fetches
// the site root, and logs out on stop.
//
// Login and logout only send requests when creds is non-nil; otherwise they
// are no-ops.
func Website(creds *Credentials) *UserScenario {
	w := &website{creds: creds}

	return &UserScenario{
		Name: "website",
		Tasks: []Task{
			{Name: "index", Weight: IndexWeight, Fn: w.index},
		},
		MinWait: WebsiteMinWait,
		MaxWait: WebsiteMaxWait,
		OnStart: w.login,
		OnStop:  w.logout,
	}
}

type website struct {
	creds *Credentials
}

func (w *website) login(ctx context.Context, u *User) error {
	if w.creds == nil {
		return nil
	}
	_, err := u.Session().PostForm(ctx, "/login", w.form())
	return err
}

func (w *website) logout(ctx context.Context, u *User) error {
	if w.creds == nil {
		return nil
	}
	_, err := u.Session().PostForm(ctx, "/logout", w.form())
	return err
}

// index fetches "/". The outcome is already recorded by the session.
func (w *website) index(ctx context.Context, u *User) error {
	_, _ = u.Session().Get(ctx, "/")
	return nil
}

func (w *website) form() url.Values {
	return url.Values{
		"username": {w.creds.Username},
		"password": {w.creds.Password},
	}
}
