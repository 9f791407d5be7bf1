package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/controller"
	"github.com/garyjia/billed/internal/application/dispatcher"
	"github.com/garyjia/billed/internal/application/navigation"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/application/presenter"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/interfaces/ui"
	"github.com/garyjia/billed/internal/interfaces/view"
)

// flash collects the alert and error messages of one form session until
// the next page render
type flash struct {
	mu    sync.Mutex
	alert string
	err   string
}

func (f *flash) Alert(message string) {
	f.mu.Lock()
	f.alert = message
	f.mu.Unlock()
}

func (f *flash) ShowError(message string) {
	f.mu.Lock()
	f.err = message
	f.mu.Unlock()
}

func (f *flash) take() (alert, err string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, err = f.alert, f.err
	f.alert, f.err = "", ""
	return alert, err
}

// formSession is the new-bill form of one logged-in user, kept between the
// file upload request and the submit request
type formSession struct {
	form     *controller.BillForm
	page     *ui.Page
	ui       dispatcher.Dispatcher
	redirect *navigation.Redirector
	flash    *flash
	values   controller.FormSnapshot
}

func (h *Handlers) formFor(c *gin.Context) *formSession {
	id, _ := c.Cookie(port.SessionCookie)

	h.formsMu.Lock()
	defer h.formsMu.Unlock()

	if fs, ok := h.forms[id]; ok {
		return fs
	}

	fs := &formSession{
		ui:       dispatcher.NewDispatcher(),
		redirect: &navigation.Redirector{},
		flash:    &flash{},
	}
	fs.form = controller.NewBillForm(h.bills, fs.redirect, currentSession(c),
		controller.WithLogger(h.zapLogger),
		controller.WithAlerter(fs.flash),
		controller.WithErrorView(fs.flash),
		controller.WithDispatcher(h.events),
	)
	ui.BindNewBill(fs.ui, ui.NewBillDocument(), fs.form)
	fs.page = ui.NewPage(fs.ui)

	h.forms[id] = fs
	return fs
}

func (h *Handlers) dropForm(id string) {
	h.formsMu.Lock()
	fs, ok := h.forms[id]
	delete(h.forms, id)
	h.formsMu.Unlock()

	if ok {
		if err := fs.ui.Close(); err != nil {
			h.logger.Error("Failed to close form dispatcher", "error", err)
		}
	}
}

// BillsPage handles GET /employee/bills
func (h *Handlers) BillsPage(c *gin.Context) {
	list := presenter.NewBillList(h.bills, &navigation.Redirector{}, currentSession(c),
		presenter.WithLogger(h.zapLogger),
	)
	c.HTML(http.StatusOK, view.BillsTemplate, list.Load(c.Request.Context()))
}

// NewBillPage handles GET /employee/bill/new
func (h *Handlers) NewBillPage(c *gin.Context) {
	h.renderForm(c, http.StatusOK, h.formFor(c))
}

// NewBillFile handles POST /employee/bill/new/file
func (h *Handlers) NewBillFile(c *gin.Context) {
	fs := h.formFor(c)

	var files []port.File
	if form, err := c.MultipartForm(); err == nil {
		files = h.readFiles(form.File[ui.ElementFile])
	} else if !errors.Is(err, http.ErrNotMultipart) {
		h.logger.Error("Failed to parse upload form", "error", err)
	}

	// failures are reported through the flash messages
	_ = fs.page.Change(c.Request.Context(), ui.ElementFile, files...)

	h.renderForm(c, http.StatusOK, fs)
}

// NewBillSubmit handles POST /employee/bill/new
func (h *Handlers) NewBillSubmit(c *gin.Context) {
	fs := h.formFor(c)

	if err := c.Request.ParseForm(); err != nil {
		h.logger.Error("Failed to parse bill form", "error", err)
	}
	fs.values, _ = controller.ParseFormSnapshot(c.Request.PostForm)

	err := fs.page.Submit(c.Request.Context(), ui.ElementNewBillForm, c.Request.PostForm)
	if err == nil {
		if location, ok := fs.redirect.Location(); ok {
			id, _ := c.Cookie(port.SessionCookie)
			h.dropForm(id)
			c.Redirect(http.StatusSeeOther, location)
			return
		}
	}

	status := http.StatusOK
	var verr *controller.ValidationError
	switch {
	case errors.As(err, &verr):
		fs.flash.ShowError(verr.Error())
		status = http.StatusBadRequest
	case errors.Is(err, controller.ErrSubmissionBlocked):
		fs.flash.Alert(entity.InvalidFormatMessage)
		status = http.StatusConflict
	case err != nil:
		if status = port.StatusOf(err); status == 0 {
			status = http.StatusInternalServerError
		}
	}
	h.renderForm(c, status, fs)
}

func (h *Handlers) renderForm(c *gin.Context, status int, fs *formSession) {
	attempt := fs.form.Attempt()
	alert, errText := fs.flash.take()

	page := view.NewNewBillPage()
	page.Form = fs.values
	page.Alert = alert
	page.Error = errText
	page.FileName = attempt.FileName
	page.FileURL = attempt.FileURL
	page.Blocked = fs.form.Rejection() != controller.RejectionNone

	c.HTML(status, view.NewBillTemplate, page)
}

func (h *Handlers) readFiles(headers []*multipart.FileHeader) []port.File {
	files := make([]port.File, 0, len(headers))
	for _, header := range headers {
		file, err := readFile(header)
		if err != nil {
			h.zapLogger.Warn("Skipping unreadable upload", zap.String("file_name", header.Filename), zap.Error(err))
			continue
		}
		files = append(files, file)
	}
	return files
}
