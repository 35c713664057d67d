package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/client/controller"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/filex"
	"github.com/dmitrijs2005/todokeeper/internal/models"
)

var errNoSuchItem = errors.New("no such item, see 'list'")

// clearDate is typed at the due date prompt of an edit to remove the date.
const clearDate = "-"

// List prints the tasks passing the current filter, numbered from 1. The
// numbers are what edit, toggle, delete and move refer to.
func (a *App) List(ctx context.Context) error {
	visible := a.ctrl.Visible()
	fmt.Fprintf(a.out, "Filter: %s (%d of %d)\n", a.ctrl.Filter(), len(visible), len(a.ctrl.Tasks()))
	if len(visible) == 0 {
		fmt.Fprintln(a.out, "No todos")
		return nil
	}
	for i, t := range visible {
		fmt.Fprintf(a.out, "%2d. %s\n", i+1, a.formatTask(t))
	}
	return nil
}

func (a *App) formatTask(t *models.Task) string {
	var b strings.Builder
	if t.Completed {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	b.WriteString(t.Text)
	fmt.Fprintf(&b, " (%s)", t.Category)
	if t.DueDate != nil {
		fmt.Fprintf(&b, " due %s", t.DueDate.Format(models.DateLayout))
	}
	if a.ctrl.IsOverdue(t) {
		b.WriteString(" OVERDUE")
	}
	return b.String()
}

// Add reads the form and submits it. While an edit is in progress the form
// updates that task instead of creating one. A rejected form is kept and
// offered as the defaults of the next add.
func (a *App) Add(ctx context.Context) error {
	if t := a.ctrl.Editing(); t != nil {
		return a.submitEdit(ctx, t)
	}

	var (
		form controller.Form
		err  error
	)
	if a.draft != nil {
		form, err = a.readForm(*a.draft)
	} else {
		form, err = a.readNewForm()
	}
	if err != nil {
		return err
	}

	t, err := a.ctrl.Submit(ctx, form)
	if err != nil {
		a.draft = &form
		return err
	}
	a.draft = nil
	fmt.Fprintf(a.out, "Added: %s\n", a.formatTask(t))
	return nil
}

func (a *App) readNewForm() (controller.Form, error) {
	var form controller.Form
	var err error
	if form.Text, err = getSimpleText(a.reader, "Enter text", a.out); err != nil {
		return form, err
	}
	prompt := fmt.Sprintf("Enter category (%s)", strings.Join(a.ctrl.Categories(), ", "))
	if form.Category, err = getSimpleText(a.reader, prompt, a.out); err != nil {
		return form, err
	}
	if form.DueDate, err = getSimpleText(a.reader, "Enter due date YYYY-MM-DD (optional)", a.out); err != nil {
		return form, err
	}
	return form, nil
}

// readForm prompts with the values of form shown in brackets. Empty answers
// keep them; clearDate removes the due date.
func (a *App) readForm(form controller.Form) (controller.Form, error) {
	text, err := getSimpleText(a.reader, fmt.Sprintf("Enter text [%s]", form.Text), a.out)
	if err != nil {
		return form, err
	}
	if text != "" {
		form.Text = text
	}
	category, err := getSimpleText(a.reader, fmt.Sprintf("Enter category [%s]", form.Category), a.out)
	if err != nil {
		return form, err
	}
	if category != "" {
		form.Category = category
	}
	due, err := getSimpleText(a.reader, fmt.Sprintf("Enter due date [%s] ('%s' clears)", form.DueDate, clearDate), a.out)
	if err != nil {
		return form, err
	}
	switch due {
	case "":
	case clearDate:
		form.DueDate = ""
	default:
		form.DueDate = due
	}
	return form, nil
}

// Edit starts editing item n and reads the form. Empty answers keep the
// current values.
func (a *App) Edit(ctx context.Context, n int) error {
	t, err := a.item(n)
	if err != nil {
		return err
	}
	if err := a.ctrl.StartEdit(t.ID); err != nil {
		return err
	}
	return a.submitEdit(ctx, t)
}

func (a *App) submitEdit(ctx context.Context, t *models.Task) error {
	form := controller.Form{Text: t.Text, Category: t.Category}
	if t.DueDate != nil {
		form.DueDate = t.DueDate.Format(models.DateLayout)
	}

	form, err := a.readForm(form)
	if err != nil {
		return err
	}

	updated, err := a.ctrl.Submit(ctx, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated: %s\n", a.formatTask(updated))
	return nil
}

func (a *App) Cancel(ctx context.Context) error {
	a.ctrl.CancelEdit()
	a.draft = nil
	fmt.Fprintln(a.out, "Edit cancelled")
	return nil
}

func (a *App) Toggle(ctx context.Context, n int) error {
	t, err := a.item(n)
	if err != nil {
		return err
	}
	t, err = a.ctrl.Toggle(ctx, t.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.formatTask(t))
	return nil
}

func (a *App) Delete(ctx context.Context, n int) error {
	t, err := a.item(n)
	if err != nil {
		return err
	}
	if err := a.ctrl.Delete(ctx, t.ID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Todo deleted")
	return nil
}

func (a *App) SetFilter(ctx context.Context, name string) error {
	f, err := models.ParseFilter(name)
	if err != nil {
		return err
	}
	a.ctrl.SetFilter(f)
	return a.List(ctx)
}

func (a *App) Categories(ctx context.Context) error {
	fmt.Fprintln(a.out, strings.Join(a.ctrl.Categories(), ", "))
	return nil
}

func (a *App) ClearCompleted(ctx context.Context) error {
	return a.reportClear(a.ctrl.ClearCompleted(ctx))
}

func (a *App) ClearAll(ctx context.Context) error {
	return a.reportClear(a.ctrl.ClearAll(ctx))
}

func (a *App) reportClear(n int, err error) error {
	fmt.Fprintf(a.out, "Todos deleted: %d\n", n)
	var bulk *controller.BulkError
	if errors.As(err, &bulk) {
		fmt.Fprintf(a.out, "Could not delete %d todo(s)\n", len(bulk.Failed))
	}
	return err
}

// Move puts item from at the position of item to.
func (a *App) Move(ctx context.Context, from, to int) error {
	src, err := a.item(from)
	if err != nil {
		return err
	}
	dst, err := a.item(to)
	if err != nil {
		return err
	}
	if err := a.ctrl.Move(ctx, src.ID, dst.ID); err != nil {
		return err
	}
	if !a.tasks.PersistsOrder() {
		fmt.Fprintln(a.out, "Order changed for this session only")
	}
	return a.List(ctx)
}

// Export uploads the tasks through the server's export endpoint and, when
// path is given, downloads the result there. Remote variant only.
func (a *App) Export(ctx context.Context, path string) error {
	if a.api == nil {
		return errors.New("export is only available in remote mode")
	}

	res, err := a.api.ExportTodos(ctx)
	if err != nil {
		a.noteUnavailable(err)
		return err
	}
	fmt.Fprintf(a.out, "Exported %d todo(s) to %s\n", res.Count, res.Key)

	if path == "" {
		fmt.Fprintln(a.out, res.URL)
		return nil
	}
	b, err := a.api.DownloadExport(ctx, res)
	if err != nil {
		return err
	}
	if err := filex.WriteFile(path, b); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}

// item resolves a 1-based number from the last list to its task.
func (a *App) item(n int) (*models.Task, error) {
	visible := a.ctrl.Visible()
	if n < 1 || n > len(visible) {
		return nil, errNoSuchItem
	}
	return visible[n-1], nil
}

func describe(err error) string {
	var bulk *controller.BulkError
	switch {
	case errors.As(err, &bulk):
		return bulk.Err.Error()
	case errors.Is(err, common.ErrorInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, common.ErrorDuplicateUser):
		return "User already exists"
	case errors.Is(err, common.ErrorNotFound):
		return "Todo not found"
	case errors.Is(err, common.ErrorForbidden):
		return "Not authorized"
	}
	return err.Error()
}
