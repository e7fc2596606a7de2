package cli

import (
	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/backend/local"
	"github.com/idilsaglam/tada-sync/internal/backend/remote"
	"github.com/idilsaglam/tada-sync/internal/config"
	"github.com/idilsaglam/tada-sync/internal/todolist"
)

// localOwner scopes the local backend when nobody is signed in.
const localOwner = "local"

// backend opens the configured data backend. The remote backend needs a
// signed-in session; the local one falls back to a shared "local" owner.
func (a *app) backend() (backend.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	switch a.cfg.Backend {
	case config.BackendLocal:
		owner := localOwner
		if a.session.Require() == nil && a.session.Owner() != "" {
			owner = a.session.Owner()
		}
		s, err := local.Open(a.cfg.DataFile, owner, local.WithLogger(a.log))
		if err != nil {
			return nil, err
		}
		a.client, a.closer = s, s
		a.log.Debug("local backend", "file", a.cfg.DataFile, "owner", owner)

	default:
		if err := a.session.Require(); err != nil {
			return nil, err
		}
		c, err := remote.New(a.cfg.Endpoint, a.session.Token.Token,
			remote.WithLogger(a.log),
			remote.WithRequestTimeout(a.cfg.RequestTimeout),
			remote.WithReconnectDelay(a.cfg.ReconnectDelay),
		)
		if err != nil {
			return nil, err
		}
		a.client = c
		a.log.Debug("remote backend", "endpoint", a.cfg.Endpoint)
	}
	return a.client, nil
}

func (a *app) actions() (*todolist.Actions, error) {
	c, err := a.backend()
	if err != nil {
		return nil, err
	}
	return todolist.NewActions(c, a.log), nil
}

// loginID is the header's name for the user; empty when signed out.
func (a *app) loginID() string {
	if a.session.Require() != nil {
		return ""
	}
	return a.session.LoginID
}
