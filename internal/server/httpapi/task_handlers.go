package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/gorilla/mux"
)

type createTodoRequest struct {
	Text      string  `json:"text"`
	Completed bool    `json:"completed"`
	Category  string  `json:"category"`
	DueDate   *string `json:"dueDate"`
}

type clearResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

func (a *API) listTodos(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	filter, err := models.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	tasks, err := a.tasks.List(r.Context(), user.ID, filter)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (a *API) createTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var req createTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	in := models.TaskInput{Text: req.Text, Completed: req.Completed, Category: req.Category}
	if req.DueDate != nil {
		due, err := models.ParseDueDate(*req.DueDate)
		if err != nil {
			a.writeError(r.Context(), w, err)
			return
		}
		in.DueDate = due
	}

	task, err := a.tasks.Create(r.Context(), user.ID, in)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (a *API) updateTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	var patch models.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	task, err := a.tasks.Update(r.Context(), user.ID, mux.Vars(r)["id"], patch)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *API) toggleTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	task, err := a.tasks.Toggle(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *API) deleteTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	if err := a.tasks.Delete(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Todo deleted"})
}

// clearTodos removes every task of the caller, or only the completed ones
// with ?completed=true.
func (a *API) clearTodos(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	completedOnly := false
	if v := r.URL.Query().Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "completed must be a boolean")
			return
		}
		completedOnly = b
	}

	var (
		n   int64
		err error
	)
	if completedOnly {
		n, err = a.tasks.ClearCompleted(r.Context(), user.ID)
	} else {
		n, err = a.tasks.ClearAll(r.Context(), user.ID)
	}
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Message: "Todos deleted", Deleted: n})
}

func (a *API) exportTodos(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		a.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}

	res, err := a.exports.Export(r.Context(), user)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
