package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/config"
	"github.com/dmitrijs2005/gophchat/internal/client/nav"
	"github.com/dmitrijs2005/gophchat/internal/client/services"
	"github.com/dmitrijs2005/gophchat/internal/client/view"
	"github.com/dmitrijs2005/gophchat/internal/logging"
)

// viewState is transient, view-owned state. It never outlives a session.
type viewState struct {
	sidebarOpen bool
	query       string
	// draft is the last message that failed to send, kept for retry.
	draft       string
	renamingID  int64
	renameDraft string
}

type App struct {
	client  client.Client
	session services.SessionStore
	convs   services.ConversationService
	render  *view.Renderer
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer

	route       nav.Route
	authErr     string
	ui          viewState
	pendingLoad bool
}

// NewApp builds the CLI for the configured backend: the REST server, or a
// local SQLite file in local mode.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	var c client.Client

	switch cfg.Mode {
	case config.ModeLocal:
		db, err := client.InitDatabase(ctx, cfg.LocalDBPath)
		if err != nil {
			logger.Error(ctx, "error initializing database", "path", cfg.LocalDBPath, "error", err)
			return nil, err
		}
		c = client.NewLocalClient(db)
	default:
		hc, err := client.NewHTTPClient(cfg.ServerURL,
			client.WithTimeout(cfg.RequestTimeout),
			client.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		c = hc
	}

	return newApp(c, cfg.LogoutWithUserID, logger, os.Stdin, os.Stdout), nil
}

func newApp(c client.Client, logoutWithUserID bool, logger logging.Logger, in io.Reader, out io.Writer) *App {
	a := &App{
		client: c,
		render: view.NewRenderer(view.DefaultTheme()),
		logger: logger.With("module", "cli"),
		reader: bufio.NewReader(in),
		out:    out,
		route:  nav.RouteLogin,
		ui:     viewState{sidebarOpen: true},
	}
	a.session = services.NewSessionStore(c,
		services.WithLogoutUserID(logoutWithUserID),
		services.WithSessionLogger(logger))
	a.convs = services.NewConversationService(c, logger)

	a.session.OnChange(a.onSessionChange)
	c.SetUnauthorizedHandler(a.onUnauthorized)
	return a
}

// Run restores any existing session and serves the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	a.session.Initialize(ctx)
	a.syncState(ctx)

	a.println("Welcome to gophchat (type 'help' for commands)")
	a.Show()
	runREPL(ctx, a, a.prompt, a.reader)
}

func (a *App) Route() nav.Route {
	return a.route
}

func (a *App) navigate(target nav.Route) {
	a.route = nav.Resolve(a.session.Current().Authenticated(), target)
}

// onUnauthorized runs for every 401/403 the backend returns.
func (a *App) onUnauthorized() {
	if a.session.Current().Authenticated() {
		a.logger.Warn(context.Background(), "session rejected by backend, signing out")
	}
	a.session.Clear()
	a.navigate(nav.RouteLogin)
}

func (a *App) onSessionChange(s services.Session) {
	if s.Authenticated() {
		a.authErr = ""
		a.pendingLoad = true
		a.navigate(nav.RouteChat)
		return
	}
	a.convs.Reset()
	a.ui = viewState{sidebarOpen: a.ui.sidebarOpen}
	a.pendingLoad = false
	a.navigate(nav.RouteLogin)
}

// syncState loads conversations once after the session becomes non-empty.
func (a *App) syncState(ctx context.Context) {
	if !a.pendingLoad {
		return
	}
	a.pendingLoad = false
	if err := a.convs.Load(ctx); err != nil {
		a.fail(ctx, "load conversations", err)
	}
}

func (a *App) prompt() string {
	if u := a.session.Current().User; u != nil {
		return fmt.Sprintf("gophchat (%s) %s> ", u.Username, a.route)
	}
	return fmt.Sprintf("gophchat %s> ", a.route)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// fail reports err to the user. Backend failures are also logged.
func (a *App) fail(ctx context.Context, op string, err error) {
	switch {
	case isValidation(err):
		a.println(a.render.Alert(err.Error()))
	case errors.Is(err, client.ErrUnauthorized):
		a.logger.Warn(ctx, op+" unauthorized", "error", err)
		a.println(a.render.Alert("Session expired. Please log in again."))
	default:
		a.logger.Error(ctx, op+" failed", "error", err)
		msg, ok := client.ServerMessage(err)
		if !ok {
			msg = err.Error()
		}
		a.println(a.render.Alert(msg))
	}
}

func isValidation(err error) bool {
	for _, v := range []error{
		services.ErrEmptyCredentials,
		services.ErrEmptyName,
		services.ErrEmptyMessage,
		services.ErrNoActiveConversation,
		services.ErrConversationNotFound,
		errUsage,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
