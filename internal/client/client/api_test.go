package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *APIClient) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, NewAPIClient(srv.URL+"/", srv.Client())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestPing(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "time": 1})
	})
	require.NoError(t, c.Ping(context.Background()))
}

func TestPing_Unavailable(t *testing.T) {
	srv, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	err := c.Ping(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, common.ErrorStorageUnavailable)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		msg    string
		want   error
	}{
		{"invalid credentials", http.StatusBadRequest, "Invalid credentials", common.ErrorInvalidCredentials},
		{"validation", http.StatusBadRequest, "Text is required", common.ErrorValidation},
		{"token expired", http.StatusUnauthorized, "Token expired", common.ErrTokenExpired},
		{"unauthorized", http.StatusUnauthorized, "Authentication required", common.ErrorUnauthorized},
		{"forbidden", http.StatusForbidden, "Not authorized", common.ErrorForbidden},
		{"not found", http.StatusNotFound, "Todo not found", common.ErrorNotFound},
		{"duplicate", http.StatusConflict, "User already exists", common.ErrorDuplicateUser},
		{"server error", http.StatusInternalServerError, "Internal server error", ErrUnavailable},
		{"teapot", http.StatusTeapot, "", common.ErrorInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]string{"error": tt.msg})
			})

			err := c.DeleteTodo(context.Background(), "x")
			require.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, err.Error())
			}
		})
	}
}

func TestLogin_TokenModeSendsBearer(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var req map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ann@x.io", req["email"])
			writeJSON(w, http.StatusOK, LoginResponse{
				Message: "Login successful", Token: "acc", RefreshToken: "ref",
				User: models.UserSummary{ID: "u1", Name: "ann", Email: "ann@x.io"},
			})
		case "/todos":
			assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, []*models.Task{{ID: "t1", Text: "milk"}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	resp, err := c.Login(context.Background(), "ann@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)

	access, refresh := c.Tokens()
	assert.Equal(t, "acc", access)
	assert.Equal(t, "ref", refresh)

	tasks, err := c.ListTodos(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "milk", tasks[0].Text)
}

func TestLogin_BasicModeSendsCredentials(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, http.StatusOK, LoginResponse{Message: "Login successful", User: models.UserSummary{ID: "u1"}})
		case "/auth/me":
			email, pw, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "ann@x.io", email)
			assert.Equal(t, "pw", pw)
			writeJSON(w, http.StatusOK, models.UserSummary{ID: "u1", Email: email})
		}
	})

	_, err := c.Login(context.Background(), "ann@x.io", "pw")
	require.NoError(t, err)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ann@x.io", me.Email)
}

func TestSend_RefreshesExpiredTokenOnce(t *testing.T) {
	var todoCalls atomic.Int32
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/todos":
			todoCalls.Add(1)
			if r.Header.Get("Authorization") == "Bearer old" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired"})
				return
			}
			assert.Equal(t, "Bearer new", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, []*models.Task{})
		case "/auth/refresh":
			var req map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "r1", req["refresh_token"])
			writeJSON(w, http.StatusOK, map[string]string{"token": "new", "refresh_token": "r2"})
		}
	})

	c.SetTokens("old", "r1")
	var persisted []string
	c.OnTokensRefreshed(func(a, r string) { persisted = append(persisted, a, r) })

	_, err := c.ListTodos(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), todoCalls.Load())
	assert.Equal(t, []string{"new", "r2"}, persisted)
}

func TestSend_ConcurrentExpiryRefreshesOnce(t *testing.T) {
	var (
		refreshes atomic.Int32
		deleted   atomic.Int32
		mu        sync.Mutex
		valid     = map[string]string{"r1": "a2"}
	)
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/refresh":
			refreshes.Add(1)
			var req map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			mu.Lock()
			access, ok := valid[req["refresh_token"]]
			delete(valid, req["refresh_token"])
			mu.Unlock()
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"token": access, "refresh_token": "r2"})
		case strings.HasPrefix(r.URL.Path, "/todos/"):
			if r.Header.Get("Authorization") != "Bearer a2" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired"})
				return
			}
			deleted.Add(1)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	c.SetTokens("a1", "r1")

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.DeleteTodo(context.Background(), "t"+string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(n), deleted.Load())
	assert.Equal(t, int32(1), refreshes.Load())
	access, refresh := c.Tokens()
	assert.Equal(t, "a2", access)
	assert.Equal(t, "r2", refresh)
}

func TestSend_RetriesWithPairRotatedElsewhere(t *testing.T) {
	var c *APIClient
	var refreshes atomic.Int32
	_, c = newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshes.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		case "/todos":
			if r.Header.Get("Authorization") == "Bearer old" {
				c.SetTokens("new", "r2")
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired"})
				return
			}
			writeJSON(w, http.StatusOK, []*models.Task{})
		}
	})
	c.SetTokens("old", "r1")

	_, err := c.ListTodos(context.Background())
	require.NoError(t, err)
	assert.Zero(t, refreshes.Load())
}

func TestSend_ExpiredWithoutRefreshToken(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired"})
	})
	c.SetTokens("old", "")

	_, err := c.ListTodos(context.Background())
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestUpdateTodo_SendsOnlyPresentFields(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/todos/t1", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"text":"eggs","dueDate":null}`, string(b))
		writeJSON(w, http.StatusOK, models.Task{ID: "t1", Text: "eggs"})
	})
	c.SetTokens("a", "r")

	text := "eggs"
	task, err := c.UpdateTodo(context.Background(), "t1", models.TaskPatch{
		Text:    &text,
		DueDate: models.NullableDate{Set: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "eggs", task.Text)
}

func TestCreateToggleDelete(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/todos":
			var req CreateTodoRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			writeJSON(w, http.StatusCreated, models.Task{ID: "t1", Text: req.Text, Category: "General", DueDate: nil})
		case r.Method == http.MethodPatch && r.URL.Path == "/todos/t1/toggle":
			writeJSON(w, http.StatusOK, models.Task{ID: "t1", Completed: true})
		case r.Method == http.MethodDelete && r.URL.Path == "/todos/t1":
			writeJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted"})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	c.SetBasic("ann@x.io", "pw")
	ctx := context.Background()

	task, err := c.CreateTodo(ctx, CreateTodoRequest{Text: "milk"})
	require.NoError(t, err)
	assert.Equal(t, "milk", task.Text)

	task, err = c.ToggleTodo(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, task.Completed)

	require.NoError(t, c.DeleteTodo(ctx, "t1"))
}

func TestRegister(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "User registered successfully",
			"user":    models.UserSummary{ID: "u1", Name: "ann", Email: "ann@x.io"},
		})
	})

	u, err := c.Register(context.Background(), "", "ann@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Name)
}

func TestLogout_RevokesAndClears(t *testing.T) {
	var revoked string
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		revoked = req["refresh_token"]
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	})
	c.SetTokens("a", "r")

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, "r", revoked)

	access, refresh := c.Tokens()
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	require.NoError(t, c.Logout(context.Background()), "second logout is a no-op")
}

func TestExportAndDownload(t *testing.T) {
	var base string
	srv, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/todos/export":
			assert.Equal(t, "Bearer a", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, ExportResult{Key: "exports/u1/x.json", URL: base + "/bucket/exports/u1/x.json?sig=1", Count: 2})
		case "/bucket/exports/u1/x.json":
			assert.Empty(t, r.Header.Get("Authorization"), "presigned URLs carry their own auth")
			_, _ = io.WriteString(w, `{"tasks":[{},{}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	base = srv.URL
	c.SetTokens("a", "r")
	ctx := context.Background()

	res, err := c.ExportTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	b, err := c.DownloadExport(ctx, res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[{},{}]}`, string(b))

	_, err = c.DownloadExport(ctx, &ExportResult{URL: base + "/missing"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestExport_NotConfigured(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Export is not configured"})
	})
	c.SetBasic("ann@x.io", "pw")

	_, err := c.ExportTodos(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}
