package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/contaportal/portal/internal/client/api"
	"github.com/contaportal/portal/internal/client/conversation"
	"github.com/contaportal/portal/internal/client/guard"
	"github.com/contaportal/portal/internal/client/notify"
	"github.com/contaportal/portal/internal/client/session"
	"github.com/contaportal/portal/internal/core/domain"
)

var errExit = errors.New("exit")

type command struct {
	name     string
	usage    string
	location string
	// public commands skip the guard; otherwise a session is required and,
	// when roles is non-empty, one of them.
	public bool
	roles  []domain.Role
	minArg int
	run    func(a *App, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{name: "help", usage: "help", public: true, run: (*App).cmdHelp},
		{name: "login", usage: "login <email> <password>", location: guard.Login, public: true, minArg: 2, run: (*App).cmdLogin},
		{name: "logout", usage: "logout", location: "/logout", run: (*App).cmdLogout},
		{name: "home", usage: "home", location: guard.Root, public: true, run: (*App).cmdHome},
		{name: "whoami", usage: "whoami", location: "/profile", run: (*App).cmdWhoami},
		{name: "users", usage: "users [role]", location: "/users", run: (*App).cmdUsers},
		{name: "register", usage: "register <name> <email> <password> <role> [tax_id]", location: "/admin/users/new",
			roles: []domain.Role{domain.RoleAdmin}, minArg: 4, run: (*App).cmdRegister},
		{name: "chat", usage: "chat <user-id>", location: "/chat", minArg: 1, run: (*App).cmdChat},
		{name: "send", usage: "send <text>", location: "/chat", minArg: 1, run: (*App).cmdSend},
		{name: "history", usage: "history", location: "/chat", run: (*App).cmdHistory},
		{name: "upload", usage: "upload <path> [owner-id]", location: "/documents/new", minArg: 1, run: (*App).cmdUpload},
		{name: "docs", usage: "docs [owner-id]", location: "/documents", run: (*App).cmdDocs},
		{name: "alerts", usage: "alerts", location: "/alerts", run: (*App).cmdAlerts},
		{name: "announce", usage: "announce <org-id|all> <title>", location: "/alerts/new",
			roles: []domain.Role{domain.RoleAdmin, domain.RoleAccountant}, minArg: 2, run: (*App).cmdAnnounce},
		{name: "retract", usage: "retract <alert-id>", location: "/alerts",
			roles: []domain.Role{domain.RoleAdmin, domain.RoleAccountant}, minArg: 1, run: (*App).cmdRetract},
		{name: "notices", usage: "notices", public: true, run: (*App).cmdNotices},
		{name: "dismiss", usage: "dismiss <id>", public: true, minArg: 1, run: (*App).cmdDismiss},
		{name: "exit", usage: "exit", public: true, run: func(*App, context.Context, []string) error { return errExit }},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (a *App) dispatch(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, ok := lookup(fields[0])
	if !ok {
		fmt.Fprintf(a.out, "unknown command %q, type help\n", fields[0])
		return nil
	}
	args := fields[1:]
	if len(args) < cmd.minArg {
		fmt.Fprintf(a.out, "usage: %s\n", cmd.usage)
		return nil
	}

	if !cmd.public {
		id := a.session.Current()
		d := guard.Check(id, cmd.location, cmd.roles...)
		if !d.Allowed {
			fmt.Fprintf(a.out, "%s is not available here, go to %s\n", cmd.name, guard.Resolve(id, d))
			return nil
		}
	}

	err := cmd.run(a, ctx, args)
	if err != nil && !errors.Is(err, errExit) {
		// The failure was already published as a notice.
		a.log.Debug().Err(err).Str("command", cmd.name).Msg("command failed")
	}
	return err
}

func (a *App) cmdHelp(context.Context, []string) error {
	for _, c := range commands {
		fmt.Fprintf(a.out, "  %s\n", c.usage)
	}
	return nil
}

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	res, err := a.login.Invoke(ctx, credentials{email: args[0], password: args[1]})
	if err != nil {
		return err
	}
	if res.User == nil {
		return errors.New("login answer without user")
	}
	id := session.Identity{
		ID:    res.User.ID,
		Name:  res.User.Name,
		Role:  res.User.Role,
		Email: res.User.Email,
		TaxID: res.User.TaxID,
		Token: res.Token,
	}
	if err := a.session.Login(id); err != nil {
		a.notices.Publish(err.Error(), notify.SeverityError, 0)
		return err
	}
	a.notices.Publish("Welcome, "+id.Name, notify.SeveritySuccess, 0)
	fmt.Fprintf(a.out, "logged in as %s (%s), home is %s\n", id.Name, id.Role, guard.Home(&id))
	return nil
}

// cmdLogout revokes the token on the server when it can and always ends the
// local session.
func (a *App) cmdLogout(ctx context.Context, _ []string) error {
	if err := a.api.Logout(ctx); err != nil {
		a.log.Debug().Err(err).Msg("server logout failed")
	}
	a.session.Logout()
	a.notices.Publish("Logged out", notify.SeverityInfo, 0)
	return nil
}

func (a *App) cmdHome(context.Context, []string) error {
	fmt.Fprintln(a.out, guard.Home(a.session.Current()))
	return nil
}

func (a *App) cmdWhoami(ctx context.Context, _ []string) error {
	u, err := a.me.Invoke(ctx, struct{}{})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> %s id=%s", u.Name, u.Email, u.Role, u.ID)
	if u.TaxID != "" {
		fmt.Fprintf(a.out, " tax_id=%s", u.TaxID)
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *App) cmdUsers(ctx context.Context, args []string) error {
	role := ""
	if len(args) > 0 {
		role = args[0]
	}
	users, err := a.users.Invoke(ctx, role)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "no users")
	}
	for _, u := range users {
		fmt.Fprintf(a.out, "%s  %-12s %s\n", u.ID, u.Role, u.Name)
	}
	return nil
}

func (a *App) cmdRegister(ctx context.Context, args []string) error {
	r := registration{Name: args[0], Email: args[1], Password: args[2], Role: args[3]}
	if len(args) > 4 {
		r.TaxID = args[4]
	}
	u, err := a.register.Invoke(ctx, r)
	if err != nil {
		return err
	}
	a.notices.Publish("Registered "+u.Email, notify.SeveritySuccess, 0)
	fmt.Fprintf(a.out, "created %s (%s) id=%s\n", u.Email, u.Role, u.ID)
	return nil
}

func (a *App) cmdChat(ctx context.Context, args []string) error {
	if err := a.chat.Select(ctx, args[0]); err != nil {
		return err
	}
	return a.cmdHistory(ctx, nil)
}

func (a *App) cmdSend(ctx context.Context, args []string) error {
	if a.chat.Counterpart() == "" {
		fmt.Fprintln(a.out, "pick a conversation first: chat <user-id>")
		return nil
	}
	if err := a.chat.Send(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	return a.cmdHistory(ctx, nil)
}

func (a *App) cmdHistory(context.Context, []string) error {
	if a.chat.Counterpart() == "" {
		fmt.Fprintln(a.out, "no conversation selected")
		return nil
	}
	msgs := a.chat.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "no messages yet")
	}
	self := ""
	if id := a.session.Current(); id != nil {
		self = id.ID
	}
	for _, m := range msgs {
		who := m.From
		if m.From == self {
			who = "me"
		}
		fmt.Fprintf(a.out, "%s %s: %s", m.At.Local().Format(time.DateTime), who, m.Text)
		if m.Status == conversation.StatusPending {
			fmt.Fprint(a.out, " (sending)")
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

func (a *App) cmdUpload(ctx context.Context, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(a.out, "cannot read %s: %v\n", args[0], err)
		return nil
	}
	defer f.Close()

	up := api.Upload{
		Filename: filepath.Base(args[0]),
		Title:    strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])),
		Content:  f,
	}
	if len(args) > 1 {
		up.OwnerID = args[1]
	}
	doc, err := a.upload.Invoke(ctx, up)
	if err != nil {
		return err
	}
	a.notices.Publish("Uploaded "+doc.Filename, notify.SeveritySuccess, 0)
	fmt.Fprintf(a.out, "stored %s as %s (%s, %d bytes)\n", doc.Filename, doc.ID, doc.ContentType, doc.Size)
	return nil
}

func (a *App) cmdDocs(ctx context.Context, args []string) error {
	owner := ""
	if len(args) > 0 {
		owner = args[0]
	}
	docs, err := a.docs.Invoke(ctx, owner)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(a.out, "no documents")
	}
	for _, d := range docs {
		fmt.Fprintf(a.out, "%s  %-30s %-24s %d\n", d.ID, d.Title, d.ContentType, d.Size)
	}
	return nil
}

func (a *App) cmdAlerts(ctx context.Context, _ []string) error {
	alerts, err := a.alerts.Invoke(ctx, struct{}{})
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(a.out, "no alerts")
	}
	for _, al := range alerts {
		to := al.AudienceID
		if to == "" {
			to = "all"
		}
		fmt.Fprintf(a.out, "%s  [%s] %s (to %s, %s)\n", al.ID, al.Level, al.Title, to, al.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func (a *App) cmdAnnounce(ctx context.Context, args []string) error {
	in := api.NewAlert{Title: strings.Join(args[1:], " ")}
	if args[0] != "all" {
		in.AudienceID = args[0]
	}
	al, err := a.announce.Invoke(ctx, in)
	if err != nil {
		return err
	}
	a.notices.Publish("Published alert "+al.ID, notify.SeveritySuccess, 0)
	return nil
}

func (a *App) cmdRetract(ctx context.Context, args []string) error {
	if _, err := a.retract.Invoke(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "retracted %s\n", args[0])
	return nil
}

func (a *App) cmdNotices(context.Context, []string) error {
	live := a.notices.Snapshot()
	if len(live) == 0 {
		fmt.Fprintln(a.out, "no notices")
	}
	for _, n := range live {
		fmt.Fprintf(a.out, "#%d [%s] %s\n", n.ID, n.Severity, n.Message)
		if n.ID > a.shown {
			a.shown = n.ID
		}
	}
	return nil
}

func (a *App) cmdDismiss(_ context.Context, args []string) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		fmt.Fprintln(a.out, "usage: dismiss <id>")
		return nil
	}
	a.notices.Dismiss(id)
	return nil
}
