// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"

	"github.com/jeranaias/volzer-tui/internal/events"
	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/util"
)

// FrenchDateLayout renders dates the way fr-FR locales do.
const FrenchDateLayout = "02/01/2006"

// Dashboard is the profile shown after login.
type Dashboard struct {
	User     model.UserRecord `json:"user"`
	Initials string           `json:"initials"`
	Program  string           `json:"program,omitempty"`
	JoinDate string           `json:"join_date,omitempty"`
}

// LoadDashboard asks the backend who is signed in, then fetches the
// extended profile. Without a valid session it publishes a redirect to
// the login screen and returns ErrNotAuthenticated. A failed profile
// lookup leaves Program and JoinDate empty.
func (m *Manager) LoadDashboard(ctx context.Context) (Dashboard, error) {
	reqCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	check, err := m.backend.CheckAuth(reqCtx)
	if err != nil {
		m.logger.Error("auth check failed", "error", err)
		return Dashboard{}, err
	}
	if !check.Success || check.User == nil {
		m.SetRoute(RouteLogin)
		m.bus.Publish(events.Redirect{To: RouteLogin})
		return Dashboard{}, ErrNotAuthenticated
	}

	d := Dashboard{
		User:     *check.User,
		Initials: util.Initials(check.User.Prenom, check.User.Nom),
	}

	details, err := m.backend.GetUser(reqCtx, check.User.ID)
	if err != nil {
		m.logger.Warn("user details unavailable", "error", err)
		return d, nil
	}
	if details.Success && details.User != nil {
		d.Program = details.User.Specialite
		if t, ok := details.User.JoinedAt(); ok {
			d.JoinDate = t.Local().Format(FrenchDateLayout)
		}
	}
	return d, nil
}
