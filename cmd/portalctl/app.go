package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/contaportal/portal/internal/client/api"
	"github.com/contaportal/portal/internal/client/conversation"
	"github.com/contaportal/portal/internal/client/guard"
	"github.com/contaportal/portal/internal/client/notify"
	"github.com/contaportal/portal/internal/client/request"
	"github.com/contaportal/portal/internal/client/session"
	"github.com/contaportal/portal/internal/client/storage"
	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/pkg/config"
)

type credentials struct {
	email    string
	password string
}

type registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	TaxID    string `json:"tax_id,omitempty"`
}

// App is the client's single owner of session, notices and transport. It is
// built once and handed to every command.
type App struct {
	out io.Writer
	log zerolog.Logger

	kv      storage.KV
	session *session.Store
	notices *notify.Broadcaster
	api     *api.Client
	chat    *conversation.Conversation

	login    *request.Request[credentials, *api.LoginResult]
	me       *request.Request[struct{}, *domain.User]
	users    *request.Request[string, []*domain.User]
	docs     *request.Request[string, []*domain.Document]
	upload   *request.Request[api.Upload, *domain.Document]
	register *request.Request[registration, *domain.User]
	alerts   *request.Request[struct{}, []*domain.Alert]
	announce *request.Request[api.NewAlert, *domain.Alert]
	retract  *request.Request[string, struct{}]

	shown int64
}

func newApp(cfg *config.ClientConfig, kv storage.KV, out io.Writer, log zerolog.Logger) *App {
	a := &App{
		out:     out,
		log:     log,
		kv:      kv,
		session: session.New(kv, log.With().Str("component", "session").Logger()),
		notices: notify.New(cfg.NotifyTTL),
	}
	a.api = api.New(cfg.PortalURL,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithTokenSource(a.session.Token),
		api.WithUnauthorizedHandler(func() {
			a.session.Invalidate("server rejected the token")
		}),
		api.WithLogger(log.With().Str("component", "api").Logger()),
	)
	a.chat = conversation.New(a.api, a.notices, func() string {
		if id := a.session.Current(); id != nil {
			return id.ID
		}
		return ""
	})

	a.login = request.New(func(ctx context.Context, c credentials) (*api.LoginResult, error) {
		return a.api.Login(ctx, c.email, c.password)
	}, a.notices)
	a.me = request.New(func(ctx context.Context, _ struct{}) (*domain.User, error) {
		return a.api.Me(ctx)
	}, a.notices)
	a.users = request.New[string, []*domain.User](a.api.Users, a.notices)
	a.docs = request.New[string, []*domain.Document](a.api.Documents, a.notices)
	a.upload = request.New[api.Upload, *domain.Document](a.api.UploadDocument, a.notices)
	a.alerts = request.New(func(ctx context.Context, _ struct{}) ([]*domain.Alert, error) {
		return a.api.Alerts(ctx)
	}, a.notices)
	a.announce = request.New[api.NewAlert, *domain.Alert](a.api.CreateAlert, a.notices)
	a.retract = request.New(func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, a.api.DeleteAlert(ctx, id)
	}, a.notices)
	a.register = request.New(func(ctx context.Context, r registration) (*domain.User, error) {
		var u domain.User
		if err := a.api.Do(ctx, http.MethodPost, "/auth/register", r, &u); err != nil {
			return nil, err
		}
		return &u, nil
	}, a.notices)

	// A new identity, or none, never sees the previous user's conversation.
	a.session.Subscribe(func(*session.Identity) {
		_ = a.chat.Select(context.Background(), "")
	})
	return a
}

// Run restores the session and serves commands from in until exit or EOF.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	go a.session.Restore()
	id, err := guard.Await(ctx, a.session)
	if err != nil {
		return err
	}
	if id != nil {
		fmt.Fprintf(a.out, "welcome back %s (%s), home is %s\n", id.Name, id.Role, guard.Home(id))
	} else {
		fmt.Fprintln(a.out, "not logged in; use: login <email> <password>")
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "portal> ")
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		err := a.dispatch(ctx, line)
		a.renderNotices()
		if errors.Is(err, errExit) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// renderNotices prints notices published since the last prompt.
func (a *App) renderNotices() {
	for _, n := range a.notices.Snapshot() {
		if n.ID <= a.shown {
			continue
		}
		fmt.Fprintf(a.out, "[%s] %s (#%d)\n", n.Severity, n.Message, n.ID)
		a.shown = n.ID
	}
}

func (a *App) Close() {
	a.notices.Close()
	if err := a.kv.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing session storage")
	}
}
