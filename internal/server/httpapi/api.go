// Package httpapi exposes the REST interface of the server: registration and
// login, the per-user task collection, health and export endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const maxBodyBytes = 1 << 20

// UserService is the account side of the API.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	AuthenticateBasic(ctx context.Context, email, password string) (*models.User, error)
	ResolveAccessToken(ctx context.Context, token string) (*models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// TaskService is the task side of the API. Every call is scoped to ownerID.
type TaskService interface {
	List(ctx context.Context, ownerID string, filter models.Filter) ([]*models.Task, error)
	Create(ctx context.Context, ownerID string, in models.TaskInput) (*models.Task, error)
	Update(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error)
	Toggle(ctx context.Context, ownerID, id string) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	ClearCompleted(ctx context.Context, ownerID string) (int64, error)
	ClearAll(ctx context.Context, ownerID string) (int64, error)
}

type ExportService interface {
	Export(ctx context.Context, user *models.User) (*services.ExportResult, error)
}

// Options configures an API.
type Options struct {
	AuthMode       string
	AllowedOrigins []string
}

type API struct {
	users          UserService
	tasks          TaskService
	exports        ExportService
	logger         logging.Logger
	authMode       string
	allowedOrigins []string
}

func New(us UserService, ts TaskService, es ExportService, l logging.Logger, opts Options) *API {
	return &API{
		users:          us,
		tasks:          ts,
		exports:        es,
		logger:         l.With("module", "http_api"),
		authMode:       opts.AuthMode,
		allowedOrigins: opts.AllowedOrigins,
	}
}

// Handler builds the routed, logged and CORS-wrapped handler. Routes are
// served both at the root and under /api.
func (a *API) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", a.health).Methods(http.MethodGet)
	a.mount(r.PathPrefix("/api").Subrouter())
	a.mount(r)

	r.NotFoundHandler = http.HandlerFunc(a.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(a.notFound)

	c := cors.New(cors.Options{
		AllowedOrigins:   a.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{common.AuthorizationHeaderName, "Content-Type"},
		AllowCredentials: true,
	})

	return c.Handler(a.logRequests(r))
}

func (a *API) mount(r *mux.Router) {
	r.HandleFunc("/auth/register", a.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", a.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", a.refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", a.logout).Methods(http.MethodPost)

	private := r.NewRoute().Subrouter()
	private.Use(a.authenticate)

	private.HandleFunc("/auth/me", a.me).Methods(http.MethodGet)
	private.HandleFunc("/todos", a.listTodos).Methods(http.MethodGet)
	private.HandleFunc("/todos", a.createTodo).Methods(http.MethodPost)
	private.HandleFunc("/todos", a.clearTodos).Methods(http.MethodDelete)
	private.HandleFunc("/todos/export", a.exportTodos).Methods(http.MethodGet)
	private.HandleFunc("/todos/{id}", a.updateTodo).Methods(http.MethodPut)
	private.HandleFunc("/todos/{id}/toggle", a.toggleTodo).Methods(http.MethodPatch)
	private.HandleFunc("/todos/{id}", a.deleteTodo).Methods(http.MethodDelete)
}

type notFoundBody struct {
	Error  string `json:"error"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundBody{
		Error:  fmt.Sprintf("Route %s %s not found", r.Method, r.URL.RequestURI()),
		Method: r.Method,
		Path:   r.URL.Path,
	})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, common.ErrorValidation) {
			return err
		}
		return fmt.Errorf("%w: invalid request body", common.ErrorValidation)
	}
	return nil
}
