package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/client/client"
	"github.com/dmitrijs2005/todokeeper/internal/client/config"
	"github.com/dmitrijs2005/todokeeper/internal/client/controller"
	"github.com/dmitrijs2005/todokeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/todokeeper/internal/client/services"
	"github.com/dmitrijs2005/todokeeper/internal/cryptox"
	"github.com/dmitrijs2005/todokeeper/internal/filex"
	"github.com/dmitrijs2005/todokeeper/internal/models"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeLocal   Mode = "local"
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

// pinger is the part of client.APIClient the online watcher needs.
type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	gate   services.Gate
	tasks  services.TaskStore
	api    *client.APIClient
	ping   pinger
	db     *sql.DB

	session *models.Session
	ctrl    *controller.Controller
	draft   *controller.Form

	reader *bufio.Reader
	out    io.Writer

	modeMu sync.Mutex
	mode   Mode
}

// NewApp opens the local database and builds the configured variant. The
// database is used by both variants: the remote one keeps its session
// marker there.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := filex.EnsureParentDir(c.DBPath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}
	store := kv.NewSQLiteStore(db)

	var app *App
	switch c.Variant {
	case config.VariantRemote:
		api := client.NewAPIClient(c.ServerURL, nil)
		app = newApp(c, services.NewRemoteGate(api, store, c.AuthMode), services.NewRemoteTaskStore(api))
		app.api = api
		app.ping = api
		app.mode = ModeOffline
	default:
		policy, err := cryptox.NewPasswordPolicy(c.PasswordPolicy)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		app = newApp(c, services.NewLocalGate(store, policy), services.NewLocalTaskStore(store))
	}
	app.db = db
	return app, nil
}

func newApp(c *config.Config, gate services.Gate, tasks services.TaskStore) *App {
	return &App{
		config: c,
		gate:   gate,
		tasks:  tasks,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		mode:   ModeLocal,
	}
}

// Run resumes the persisted session, starts the online watcher in the
// remote variant and blocks in the REPL until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	log.Println("Welcome to todokeeper CLI (type 'help' for commands)")
	a.resume(ctx)

	if a.ping != nil {
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("error closing database: %s", err.Error())
		}
	}
}

// resume asks the gate once for the persisted session.
func (a *App) resume(ctx context.Context) {
	s, err := a.gate.InitSession(ctx)
	if err != nil {
		log.Printf("Could not resume session: %s", err.Error())
		return
	}
	if s != nil {
		a.signIn(ctx, s)
	}
}

func (a *App) signIn(ctx context.Context, s *models.Session) {
	a.session = s
	a.ctrl = controller.New(a.tasks, s)
	if a.ping != nil {
		a.setMode(ModeOnline)
	}

	fmt.Fprintf(a.out, "Signed in as %s <%s>\n", s.Name, s.Email)
	if err := a.ctrl.Load(ctx); err != nil {
		fmt.Fprintf(a.out, "Could not load todos: %s\n", err.Error())
		return
	}
	fmt.Fprintf(a.out, "%d todo(s)\n", len(a.ctrl.Tasks()))
}

func (a *App) signOut() {
	a.session = nil
	a.ctrl = nil
	a.draft = nil
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) getStatus() string {
	s := ""
	if a.session != nil {
		s = a.session.Name + " "
	}
	s += string(a.Mode())
	if a.ctrl != nil && a.ctrl.Editing() != nil {
		s += " editing"
	}
	return fmt.Sprintf("(%s)", s)
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode between online and offline until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := a.ping.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
