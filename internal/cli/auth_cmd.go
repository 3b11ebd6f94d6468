// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, register, logout, status and dashboard commands.
//
// Each command drives the same auth.Manager the interactive client uses.
// Feedback reaches the terminal through the event bus, so the messages
// read exactly like the client's toasts.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/volzer-tui/internal/auth"
	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/offline"
	"github.com/jeranaias/volzer-tui/internal/security"
	"github.com/jeranaias/volzer-tui/internal/validate"
)

// redirectGrace is how long a command waits past a scheduled redirect.
const redirectGrace = time.Second

// =============================================================================
// LOGIN
// =============================================================================

// HandleLogin signs in. Flags: --email, --password-stdin, --remember,
// --redirect.
func HandleLogin(e *Env, args Args) error {
	if err := e.requireApp("login"); err != nil {
		return err
	}
	a := e.App
	p := args.Flags()

	if err := e.showLockout(args.JSON); err != nil {
		return err
	}

	creds, err := e.readCredentials(p)
	if err != nil {
		return err
	}

	route := auth.RouteLogin
	if to := p.Flag("redirect"); to != "" {
		route += "?redirect=" + url.QueryEscape(to)
	}
	a.Auth.SetRoute(route)

	unsubscribe := e.followMessages(a.Bus, args.JSON)
	defer unsubscribe()

	wait := expectRedirect(a.Bus)

	if err := a.Auth.HandleLogin(e.ctx(), creds); err != nil {
		wait(0)
		if errors.Is(err, security.ErrLocked) {
			return e.lockedError(args.JSON)
		}
		return reported(err)
	}
	to := wait(auth.LoginRedirectDelay + redirectGrace)

	if args.JSON {
		return NewJSONResponse("login", LoginData{
			Email:    creds.Email,
			Redirect: to,
			Message:  auth.MsgLoginSuccess,
		}).Write(e.Out)
	}
	if to == auth.RouteDashboard {
		return printDashboard(e)
	}
	if to != "" {
		fmt.Fprintln(e.Out, DimStyle.Render("→ "+to))
	}
	return nil
}

// readCredentials collects the login form from flags and prompts. The
// remembered email is offered as the default.
func (e *Env) readCredentials(p *ArgParser) (model.Credentials, error) {
	remembered, remember := e.App.Auth.Remembered()
	creds := model.Credentials{
		Email:    p.Flag("email", "e"),
		Remember: remember || p.BoolFlag("remember"),
	}

	if p.BoolFlag("password-stdin") {
		if creds.Email == "" {
			return creds, ErrMissingArgument("email", "volzer login --email vous@volzer.edu --password-stdin")
		}
		line, err := bufio.NewReader(e.In).ReadString('\n')
		if err != nil && line == "" {
			return creds, NewCommandError("login", "read password", "stdin", err)
		}
		creds.Password = strings.TrimRight(line, "\r\n")
		return creds, nil
	}

	if !e.Interactive {
		return creds, &TTYRequiredError{Operation: "login; pass --email and --password-stdin"}
	}
	pr := e.Prompter()
	var err error
	if creds.Email == "" {
		if creds.Email, err = pr.Line("Email", remembered); err != nil {
			return creds, err
		}
	}
	if msg := validate.EmailField(creds.Email); msg != "" {
		fmt.Fprintln(e.Out, WarningStyle.Render(msg))
	}
	if creds.Password, err = pr.Password("Mot de passe"); err != nil {
		return creds, err
	}
	return creds, nil
}

// showLockout fails early with the lockout notice while one is active.
func (e *Env) showLockout(jsonMode bool) error {
	st, err := e.App.Lockout.Status()
	if err != nil || !st.Locked {
		return nil
	}
	return e.lockedError(jsonMode)
}

func (e *Env) lockedError(jsonMode bool) error {
	if jsonMode {
		return security.ErrLocked
	}
	st, _ := e.App.Lockout.Status()
	now := time.Now()
	fmt.Fprintln(e.Out, ErrorStyle.Render(security.LockoutMessage(st.LockedUntil, now)))
	fmt.Fprintln(e.Out, DimStyle.Render(security.Countdown(st.TimeRemaining(now))))
	return reported(security.ErrLocked)
}

// =============================================================================
// REGISTER
// =============================================================================

// HandleRegister creates an account. Every field can be given as a flag;
// missing ones are prompted for.
func HandleRegister(e *Env, args Args) error {
	if err := e.requireApp("register"); err != nil {
		return err
	}
	a := e.App
	p := args.Flags()

	if err := e.showLockout(args.JSON); err != nil {
		return err
	}
	form, err := e.readRegistration(p)
	if err != nil {
		return err
	}

	a.Auth.SetRoute(auth.RouteRegister)
	unsubscribe := e.followMessages(a.Bus, args.JSON)
	defer unsubscribe()

	wait := expectRedirect(a.Bus)

	if err := a.Auth.HandleRegistration(e.ctx(), form); err != nil {
		wait(0)
		if errors.Is(err, security.ErrLocked) {
			return e.lockedError(args.JSON)
		}
		return reported(err)
	}
	to := wait(auth.RegisterRedirectDelay + redirectGrace)

	if args.JSON {
		return NewJSONResponse("register", LoginData{
			Email:    validate.NormalizeEmail(form.Email),
			Redirect: to,
			Message:  auth.MsgRegistered,
		}).Write(e.Out)
	}
	fmt.Fprintln(e.Out, DimStyle.Render("Connectez-vous avec: volzer login --email "+validate.NormalizeEmail(form.Email)))
	return nil
}

func (e *Env) readRegistration(p *ArgParser) (model.RegistrationForm, error) {
	form := model.RegistrationForm{
		Prenom:     p.Flag("prenom"),
		Nom:        p.Flag("nom"),
		Email:      p.Flag("email", "e"),
		Filiere:    p.Flag("filiere"),
		Telephone:  p.Flag("telephone", "tel"),
		Newsletter: p.BoolFlag("newsletter"),
	}

	if p.BoolFlag("password-stdin") {
		line, err := bufio.NewReader(e.In).ReadString('\n')
		if err != nil && line == "" {
			return form, NewCommandError("register", "read password", "stdin", err)
		}
		form.Password = strings.TrimRight(line, "\r\n")
		form.ConfirmPassword = form.Password
		return form, nil
	}
	if !e.Interactive {
		return form, &TTYRequiredError{Operation: "register; pass every field and --password-stdin"}
	}

	pr := e.Prompter()
	ask := func(dst *string, label string) error {
		if *dst != "" {
			return nil
		}
		v, err := pr.Line(label, "")
		*dst = v
		return err
	}
	if err := ask(&form.Prenom, "Prénom"); err != nil {
		return form, err
	}
	if err := ask(&form.Nom, "Nom"); err != nil {
		return form, err
	}
	if err := ask(&form.Email, "Email"); err != nil {
		return form, err
	}
	if msg := validate.EmailField(form.Email); msg != "" {
		fmt.Fprintln(e.Out, WarningStyle.Render(msg))
	}

	var err error
	if form.Password, err = pr.Password("Mot de passe"); err != nil {
		return form, err
	}
	if form.ConfirmPassword, err = pr.Password("Confirmer le mot de passe"); err != nil {
		return form, err
	}
	if msg := validate.PasswordMatch(form.Password, form.ConfirmPassword); msg != "" {
		fmt.Fprintln(e.Out, WarningStyle.Render(msg))
	}

	if form.Filiere == "" {
		if form.Filiere, err = e.choose(pr, "Filière", model.Programs); err != nil {
			return form, err
		}
	}
	if err := ask(&form.Telephone, "Téléphone (optionnel)"); err != nil {
		return form, err
	}
	if !p.HasFlag("newsletter") {
		if form.Newsletter, err = pr.Confirm("Recevoir la newsletter ?"); err != nil {
			return form, err
		}
	}
	return form, nil
}

// choose prints a numbered list and returns the picked option, or "" for
// no answer.
func (e *Env) choose(pr Prompter, label string, options []string) (string, error) {
	for i, o := range options {
		fmt.Fprintf(e.Out, "  %d. %s\n", i+1, o)
	}
	s, err := pr.Line(label+" (1-"+strconv.Itoa(len(options))+")", "")
	if err != nil || s == "" {
		return "", err
	}
	if n, convErr := strconv.Atoi(s); convErr == nil && n >= 1 && n <= len(options) {
		return options[n-1], nil
	}
	return s, nil
}

// =============================================================================
// LOGOUT
// =============================================================================

// HandleLogout ends the session after confirmation.
func HandleLogout(e *Env, args Args) error {
	if err := e.requireApp("logout"); err != nil {
		return err
	}
	a := e.App
	p := args.Flags()

	user, ok := a.Auth.CurrentUser()
	if !ok {
		return &NotFoundError{Resource: "session"}
	}

	ok, err := e.RequireConfirmation(auth.MsgLogoutConfirm, ConfirmationOptions{
		Yes:      confirmFlag(p),
		JSONMode: args.JSON,
	})
	if err != nil {
		return err
	}
	if !ok {
		e.printCancelled()
		return nil
	}

	if err := a.Auth.Logout(e.ctx()); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("logout", map[string]any{"email": user.Email, "redirect": auth.RouteLogin}).Write(e.Out)
	}
	fmt.Fprintln(e.Out, SuccessStyle.Render("Déconnecté.")+" "+DimStyle.Render(user.Email))
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

// HandleStatus shows the session, the lockout and backend reachability.
func HandleStatus(e *Env, args Args) error {
	if err := e.requireApp("status"); err != nil {
		return err
	}
	a := e.App

	data := StatusData{
		StateDir: a.StateDir(),
		Backend:  e.Config.Backend.URL,
	}
	var err error
	if data.Auth, err = a.Auth.AuthStatus(); err != nil {
		return err
	}
	st, err := a.Lockout.Status()
	if err != nil {
		return err
	}
	data.Lockout = lockoutData(st, a.Lockout.LockoutDuration(), time.Now())
	if data.Session, err = a.Session.Status(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(e.ctx(), e.Config.Timeout())
	defer cancel()
	online := a.Monitor.Probe(ctx)
	data.Connectivity = Connectivity{Online: online, Status: offline.StatusText(online)}

	if args.JSON {
		return NewJSONResponse("status", data).Write(e.Out)
	}

	w := e.Out
	fmt.Fprintln(w, TitleStyle.Render("Volzer Université"))
	fmt.Fprintln(w, SectionStyle.Render("Session"))
	if data.Auth.IsAuthenticated && data.Auth.User != nil {
		fmt.Fprintln(w, RenderRow("Utilisateur", data.Auth.User.FullName()))
		fmt.Fprintln(w, RenderRow("Email", data.Auth.User.Email))
		if data.Session.LoggedIn {
			fmt.Fprintln(w, RenderRow("Connecté depuis", formatDuration(data.Session.Age)))
		}
		if data.Session.Expiring {
			fmt.Fprintln(w, WarningStyle.Render(auth.MsgSessionExpiring))
		}
	} else {
		fmt.Fprintln(w, RenderRow("Utilisateur", "non connecté"))
	}

	fmt.Fprintln(w, SectionStyle.Render("Sécurité"))
	printLockout(w, data.Lockout)

	fmt.Fprintln(w, SectionStyle.Render("Serveur"))
	fmt.Fprintln(w, RenderRow("Adresse", data.Backend))
	status := ErrorStyle.Render(data.Connectivity.Status)
	if online {
		status = SuccessStyle.Render(data.Connectivity.Status)
	}
	fmt.Fprintln(w, RenderRow("Connexion", status))
	fmt.Fprintln(w, RenderRow("État local", data.StateDir))
	return nil
}

// =============================================================================
// DASHBOARD
// =============================================================================

// HandleDashboard prints the profile card of the signed-in user.
func HandleDashboard(e *Env, args Args) error {
	if err := e.requireApp("dashboard"); err != nil {
		return err
	}
	if args.JSON {
		d, err := e.App.Auth.LoadDashboard(e.ctx())
		if err != nil {
			return err
		}
		return NewJSONResponse("dashboard", d).Write(e.Out)
	}
	return printDashboard(e)
}

func printDashboard(e *Env) error {
	e.App.Auth.SetRoute(auth.RouteDashboard)
	d, err := e.App.Auth.LoadDashboard(e.ctx())
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return fmt.Errorf("%w: volzer login", err)
		}
		return err
	}
	fmt.Fprint(e.Out, renderMarkdown(e.Out, dashboardMarkdown(d)))
	return nil
}

// dashboardMarkdown is the profile card as markdown.
func dashboardMarkdown(d auth.Dashboard) string {
	orDash := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s · Bonjour, %s\n\n", d.Initials, d.User.Prenom)
	fmt.Fprintf(&b, "- **Nom complet** : %s\n", orDash(d.User.FullName()))
	fmt.Fprintf(&b, "- **Email** : %s\n", orDash(d.User.Email))
	fmt.Fprintf(&b, "- **Rôle** : %s\n", orDash(d.User.Role))
	fmt.Fprintf(&b, "- **Filière** : %s\n", orDash(d.Program))
	fmt.Fprintf(&b, "- **Inscrit le** : %s\n", orDash(d.JoinDate))
	return b.String()
}
