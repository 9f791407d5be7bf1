package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/dispatcher"
	"github.com/garyjia/billed/internal/application/navigation"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/domain/event"
	"github.com/garyjia/billed/internal/domain/workflow"
)

var (
	// ErrNoFileSelected is reported when the file input changes to an empty selection
	ErrNoFileSelected = errors.New("no file selected")

	// ErrInvalidFormat is reported when the selected file is not jpg, jpeg or png
	ErrInvalidFormat = errors.New("invalid file format")

	// ErrSubmissionBlocked is returned when the form is submitted after a rejected selection
	ErrSubmissionBlocked = errors.New("submission blocked by rejected attachment")
)

// Rejection tells why the last selection was refused
type Rejection string

const (
	RejectionNone      Rejection = ""
	RejectionNoFile    Rejection = "no-file"
	RejectionBadFormat Rejection = "bad-format"
)

// UploadAttempt is the attachment state carried between selection and submit
type UploadAttempt struct {
	SelectedName string
	SelectedType string
	FileURL      string
	FileName     string
	Key          string
	InFlight     int
}

// BillForm drives the new-bill form: it validates and uploads the receipt,
// then persists the bill and navigates back to the list.
type BillForm struct {
	store     port.RemoteStore
	navigator navigation.Navigator
	session   entity.Session

	alerter    port.Alerter
	errorView  port.ErrorView
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger

	mu        sync.Mutex
	machine   workflow.StateMachine
	attempt   UploadAttempt
	rejection Rejection
	inFlight  int
}

// Option configures a BillForm
type Option func(*BillForm)

// WithLogger sets the logger the form reports validation errors on
func WithLogger(logger *zap.Logger) Option {
	return func(c *BillForm) { c.logger = logger }
}

// WithAlerter sets the channel for user-facing alerts
func WithAlerter(a port.Alerter) Option {
	return func(c *BillForm) { c.alerter = a }
}

// WithErrorView sets the view store failures are rendered on
func WithErrorView(v port.ErrorView) Option {
	return func(c *BillForm) { c.errorView = v }
}

// WithDispatcher publishes attachment.uploaded and bill.created events
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(c *BillForm) { c.dispatcher = d }
}

// NewBillForm creates the controller for one form display
func NewBillForm(store port.RemoteStore, navigator navigation.Navigator, session entity.Session, opts ...Option) *BillForm {
	c := &BillForm{
		store:     store,
		navigator: navigator,
		session:   session,
		logger:    zap.NewNop(),
		machine:   workflow.NewUploadMachine(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current attachment state
func (c *BillForm) State() workflow.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

// Attempt returns a copy of the current upload attempt
func (c *BillForm) Attempt() UploadAttempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.attempt
	a.InFlight = c.inFlight
	return a
}

// Rejection returns why the last selection was refused, if it was
func (c *BillForm) Rejection() Rejection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejection
}

// HandleChangeFile reacts to a change of the file input. Refused selections
// are reported locally and return nil; only a failed upload returns an error.
func (c *BillForm) HandleChangeFile(ctx context.Context, files []port.File) error {
	if len(files) == 0 {
		c.reject(ctx, workflow.TriggerSelectNone, RejectionNoFile)
		c.logger.Error("No file selected", zap.Error(ErrNoFileSelected))
		return nil
	}

	if len(files) > 1 {
		c.logger.Warn("Multiple files selected, using the first",
			zap.Int("count", len(files)),
			zap.String("file_name", files[0].Name),
		)
	}

	file := files[0]
	if !entity.IsAcceptedExtension(file.Ext()) {
		c.reject(ctx, workflow.TriggerSelectInvalid, RejectionBadFormat)
		c.logger.Info("Attachment refused",
			zap.String("file_name", file.Name),
			zap.String("content_type", file.ContentType),
			zap.Error(ErrInvalidFormat),
		)
		c.alert(entity.InvalidFormatMessage)
		return nil
	}

	c.mu.Lock()
	c.fire(ctx, workflow.TriggerSelectValid)
	c.rejection = RejectionNone
	c.attempt = UploadAttempt{SelectedName: file.Name, SelectedType: file.ContentType}
	c.inFlight++
	c.mu.Unlock()

	receipt, err := c.store.Bills().CreateAttachment(ctx, file, c.session.Email)

	c.mu.Lock()
	c.inFlight--
	if err != nil {
		if c.inFlight == 0 {
			c.fire(ctx, workflow.TriggerUploadFailed)
		}
		c.mu.Unlock()

		c.logger.Error("Attachment upload failed",
			zap.String("file_name", file.Name),
			zap.Error(err),
		)
		c.showError(err)
		return fmt.Errorf("upload attachment: %w", err)
	}

	c.attempt.FileURL = receipt.FileURL
	c.attempt.FileName = file.Name
	c.attempt.Key = receipt.Key
	c.fire(ctx, workflow.TriggerUploadSucceeded)
	c.mu.Unlock()

	c.logger.Info("Attachment uploaded",
		zap.String("file_name", file.Name),
		zap.String("key", receipt.Key),
	)
	c.publish(ctx, event.TypeAttachmentUploaded, receipt.Key, map[string]interface{}{
		"file_url":  receipt.FileURL,
		"file_name": file.Name,
		"email":     c.session.Email,
	})
	return nil
}

// HandleSubmit persists the bill described by form and navigates to the list
func (c *BillForm) HandleSubmit(ctx context.Context, form FormSnapshot) error {
	c.mu.Lock()
	if !c.machine.CanFire(workflow.TriggerSubmit) {
		state := c.machine.State()
		c.mu.Unlock()
		c.logger.Error("Submission blocked", zap.String("state", state.String()))
		return ErrSubmissionBlocked
	}
	attempt := c.attempt
	c.mu.Unlock()

	if err := form.Validate(); err != nil {
		c.logger.Error("Invalid bill form", zap.Error(err))
		return err
	}

	bill := form.Bill(c.session.Email)
	if attempt.Key != "" {
		bill.FileURL = attempt.FileURL
		bill.FileName = attempt.FileName
	}

	var (
		saved *entity.Bill
		err   error
	)
	if attempt.Key != "" {
		saved, err = c.store.Bills().Update(ctx, attempt.Key, bill)
	} else {
		saved, err = c.store.Bills().Create(ctx, bill)
	}
	if err != nil {
		c.logger.Error("Failed to save bill",
			zap.String("key", attempt.Key),
			zap.Error(err),
		)
		c.showError(err)
		return fmt.Errorf("save bill: %w", err)
	}

	c.mu.Lock()
	c.fire(ctx, workflow.TriggerSubmit)
	c.attempt = UploadAttempt{}
	c.mu.Unlock()

	id := attempt.Key
	if saved != nil && saved.ID != "" {
		id = saved.ID
	}
	c.logger.Info("Bill submitted", zap.String("id", id), zap.String("email", c.session.Email))
	c.publish(ctx, event.TypeBillCreated, id, map[string]interface{}{
		"email":  c.session.Email,
		"amount": bill.Amount,
	})

	if err := c.navigator.OnNavigate(ctx, navigation.RouteBills); err != nil {
		return fmt.Errorf("navigate to bills: %w", err)
	}
	return nil
}

func (c *BillForm) reject(ctx context.Context, trigger workflow.Trigger, why Rejection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fire(ctx, trigger)
	c.rejection = why
	c.attempt = UploadAttempt{}
}

// fire must be called with c.mu held. Every selection and completion trigger
// is permitted from every state, so an error here is a programming mistake.
func (c *BillForm) fire(ctx context.Context, trigger workflow.Trigger) {
	if err := c.machine.Fire(ctx, trigger); err != nil {
		c.logger.Error("Unexpected form transition", zap.Error(err))
	}
}

func (c *BillForm) alert(message string) {
	if c.alerter != nil {
		c.alerter.Alert(message)
	}
}

func (c *BillForm) showError(err error) {
	if c.errorView != nil {
		c.errorView.ShowError(port.ErrorMessage(err))
	}
}

func (c *BillForm) publish(ctx context.Context, t event.Type, target string, payload map[string]interface{}) {
	if c.dispatcher == nil {
		return
	}
	c.dispatcher.DispatchAsync(context.WithoutCancel(ctx), event.NewEvent(t, target, payload))
}
