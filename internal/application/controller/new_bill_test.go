package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/billed/internal/application/dispatcher"
	"github.com/garyjia/billed/internal/application/navigation"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/domain/event"
	"github.com/garyjia/billed/internal/domain/workflow"
)

const testEmail = "test@email.com"

type fixture struct {
	store     *MockBillsStore
	navigator *recordingNavigator
	alerter   *recordingAlerter
	errors    *recordingErrorView
	logs      *observer.ObservedLogs
	form      *BillForm
}

func newFixture(opts ...Option) *fixture {
	core, logs := observer.New(zapcore.InfoLevel)
	f := &fixture{
		store:     new(MockBillsStore),
		navigator: &recordingNavigator{},
		alerter:   &recordingAlerter{},
		errors:    &recordingErrorView{},
		logs:      logs,
	}
	opts = append([]Option{
		WithLogger(zap.New(core)),
		WithAlerter(f.alerter),
		WithErrorView(f.errors),
	}, opts...)
	f.form = NewBillForm(&mockStore{bills: f.store}, f.navigator,
		entity.Session{Type: entity.UserTypeEmployee, Email: testEmail}, opts...)
	return f
}

func jpg(name string) port.File {
	return port.File{Name: name, ContentType: "image/jpeg", Data: []byte("test")}
}

func validForm() FormSnapshot {
	return FormSnapshot{
		Type:       entity.TypeAccommodation,
		Name:       "encore",
		Date:       "2004-04-04",
		Amount:     400,
		VAT:        80,
		Pct:        20,
		Commentary: "séminaire billed",
	}
}

func TestHandleChangeFile_NoFile(t *testing.T) {
	f := newFixture()

	err := f.form.HandleChangeFile(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, workflow.StateRejected, f.form.State())
	assert.Equal(t, RejectionNoFile, f.form.Rejection())

	logged := f.logs.FilterMessage("No file selected").FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, logged, 1)
	assert.Equal(t, ErrNoFileSelected.Error(), logged[0].ContextMap()["error"])

	f.store.AssertNotCalled(t, "CreateAttachment", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleChangeFile_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		file port.File
	}{
		{"pdf", port.File{Name: "test.pdf", ContentType: "image/pdf"}},
		{"gif", port.File{Name: "receipt.GIF", ContentType: "image/gif"}},
		{"jpg type but pdf name", port.File{Name: "scan.pdf", ContentType: "image/jpeg"}},
		{"no extension, pdf type", port.File{Name: "scan", ContentType: "application/pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			err := f.form.HandleChangeFile(context.Background(), []port.File{tt.file})

			require.NoError(t, err)
			assert.Equal(t, []string{"Veuillez sélectionner un fichier au format jpg, jpeg ou png."}, f.alerter.messages)
			assert.Equal(t, workflow.StateRejected, f.form.State())
			assert.Equal(t, RejectionBadFormat, f.form.Rejection())
			assert.Empty(t, f.form.Attempt().FileURL)
			f.store.AssertNotCalled(t, "CreateAttachment", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleChangeFile_AcceptedFormats(t *testing.T) {
	for _, name := range []string{"test.jpg", "TEST.JPEG", "photo.Png"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			file := jpg(name)
			f.store.On("CreateAttachment", mock.Anything, file, testEmail).
				Return(&entity.AttachmentReceipt{FileURL: "https://test-url.com/" + name, Key: "1234"}, nil).Once()

			require.NoError(t, f.form.HandleChangeFile(context.Background(), []port.File{file}))

			f.store.AssertNumberOfCalls(t, "CreateAttachment", 1)
			attempt := f.form.Attempt()
			assert.Equal(t, "https://test-url.com/"+name, attempt.FileURL)
			assert.Equal(t, name, attempt.FileName)
			assert.Equal(t, "1234", attempt.Key)
			assert.Equal(t, workflow.StateReady, f.form.State())
			assert.Empty(t, f.alerter.messages)
		})
	}
}

func TestHandleChangeFile_ExtensionlessPNG(t *testing.T) {
	f := newFixture()
	file := port.File{Name: "scan", ContentType: "image/png"}
	f.store.On("CreateAttachment", mock.Anything, file, testEmail).
		Return(&entity.AttachmentReceipt{FileURL: "https://test-url.com/scan", Key: "k"}, nil)

	require.NoError(t, f.form.HandleChangeFile(context.Background(), []port.File{file}))
	assert.Equal(t, workflow.StateReady, f.form.State())
}

func TestHandleChangeFile_MultipleFilesUsesFirst(t *testing.T) {
	f := newFixture()
	first := jpg("test.jpg")
	f.store.On("CreateAttachment", mock.Anything, first, testEmail).
		Return(&entity.AttachmentReceipt{FileURL: "https://test-url.com/test.jpg", Key: "1234"}, nil).Once()

	err := f.form.HandleChangeFile(context.Background(), []port.File{first, jpg("other.png")})

	require.NoError(t, err)
	f.store.AssertExpectations(t)
	assert.Equal(t, "test.jpg", f.form.Attempt().FileName)
	assert.Equal(t, 1, f.logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestHandleChangeFile_UploadFailure(t *testing.T) {
	f := newFixture()
	f.store.On("CreateAttachment", mock.Anything, mock.Anything, testEmail).
		Return(nil, port.NewTransportError(500, ""))

	err := f.form.HandleChangeFile(context.Background(), []port.File{jpg("test.jpg")})

	require.Error(t, err)
	assert.Equal(t, 500, port.StatusOf(err))
	assert.Equal(t, []string{"Erreur 500"}, f.errors.messages)
	assert.Equal(t, workflow.StateIdle, f.form.State())

	attempt := f.form.Attempt()
	assert.Empty(t, attempt.FileURL)
	assert.Empty(t, attempt.FileName)
	assert.Empty(t, attempt.Key)
}

func TestHandleChangeFile_NewSelectionClearsAttempt(t *testing.T) {
	f := newFixture()
	f.store.On("CreateAttachment", mock.Anything, mock.Anything, testEmail).
		Return(&entity.AttachmentReceipt{FileURL: "https://test-url.com/test.jpg", Key: "1234"}, nil)

	require.NoError(t, f.form.HandleChangeFile(context.Background(), []port.File{jpg("test.jpg")}))
	require.NoError(t, f.form.HandleChangeFile(context.Background(), []port.File{{Name: "test.pdf"}}))

	assert.Equal(t, workflow.StateRejected, f.form.State())
	assert.Empty(t, f.form.Attempt().Key)
}

func TestHandleChangeFile_LastCompletionWins(t *testing.T) {
	f := newFixture()
	release := make(chan struct{})
	started := make(chan struct{})

	slow := jpg("slow.jpg")
	fast := jpg("fast.jpg")
	f.store.On("CreateAttachment", mock.Anything, slow, testEmail).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&entity.AttachmentReceipt{FileURL: "https://test-url.com/slow.jpg", Key: "slow"}, nil)
	f.store.On("CreateAttachment", mock.Anything, fast, testEmail).
		Return(&entity.AttachmentReceipt{FileURL: "https://test-url.com/fast.jpg", Key: "fast"}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, f.form.HandleChangeFile(context.Background(), []port.File{slow}))
	}()
	<-started

	require.NoError(t, f.form.HandleChangeFile(context.Background(), []port.File{fast}))
	assert.Equal(t, "fast", f.form.Attempt().Key)
	assert.Equal(t, 1, f.form.Attempt().InFlight)

	close(release)
	wg.Wait()

	attempt := f.form.Attempt()
	assert.Equal(t, "slow", attempt.Key)
	assert.Equal(t, "https://test-url.com/slow.jpg", attempt.FileURL)
	assert.Equal(t, "slow.jpg", attempt.FileName)
	assert.Equal(t, 0, attempt.InFlight)
	assert.Equal(t, workflow.StateReady, f.form.State())
}

func TestHandleSubmit_WithAttachmentUpdates(t *testing.T) {
	f := newFixture()
	f.store.On("CreateAttachment", mock.Anything, mock.Anything, testEmail).
		Return(&entity.AttachmentReceipt{FileURL: "https://test-url.com/test.jpg", Key: "1234"}, nil)

	var saved *entity.Bill
	f.store.On("Update", mock.Anything, "1234", mock.AnythingOfType("*entity.Bill")).
		Run(func(args mock.Arguments) { saved = args.Get(2).(*entity.Bill) }).
		Return(&entity.Bill{ID: "1234"}, nil).Once()

	require.NoError(t, f.form.HandleChangeFile(context.Background(), []port.File{jpg("test.jpg")}))
	require.NoError(t, f.form.HandleSubmit(context.Background(), validForm()))

	f.store.AssertNumberOfCalls(t, "Update", 1)
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	require.NotNil(t, saved)
	form := validForm()
	assert.Equal(t, form.Type, saved.Type)
	assert.Equal(t, form.Name, saved.Name)
	assert.Equal(t, form.Date, saved.Date)
	assert.Equal(t, form.Amount, saved.Amount)
	assert.Equal(t, form.VAT, saved.VAT)
	assert.Equal(t, form.Pct, saved.Pct)
	assert.Equal(t, form.Commentary, saved.Commentary)
	assert.Equal(t, entity.StatusPending, saved.Status)
	assert.Equal(t, testEmail, saved.Email)
	assert.Equal(t, "https://test-url.com/test.jpg", saved.FileURL)
	assert.Equal(t, "test.jpg", saved.FileName)

	assert.Equal(t, []navigation.Route{navigation.RouteBills}, f.navigator.Routes())
	assert.Equal(t, workflow.StateIdle, f.form.State())
	assert.Empty(t, f.form.Attempt().Key)
}

func TestHandleSubmit_WithoutAttachmentCreates(t *testing.T) {
	f := newFixture()
	f.store.On("Create", mock.Anything, mock.MatchedBy(func(b *entity.Bill) bool {
		return b.Status == entity.StatusPending && b.FileURL == "" && b.FileName == ""
	})).Return(&entity.Bill{ID: "new"}, nil).Once()

	require.NoError(t, f.form.HandleSubmit(context.Background(), validForm()))

	f.store.AssertExpectations(t)
	f.store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []navigation.Route{navigation.RouteBills}, f.navigator.Routes())
}

func TestHandleSubmit_BlockedAfterRejection(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.form.HandleChangeFile(context.Background(), []port.File{{Name: "test.pdf"}}))

	err := f.form.HandleSubmit(context.Background(), validForm())

	assert.ErrorIs(t, err, ErrSubmissionBlocked)
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.navigator.Routes())
}

func TestHandleSubmit_InvalidForm(t *testing.T) {
	f := newFixture()
	form := validForm()
	form.Amount = 0
	form.Type = "Voyage"

	err := f.form.HandleSubmit(context.Background(), form)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"type", "amount"}, verr.Fields)
	f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleSubmit_TransportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", port.NewTransportError(404, ""), "Erreur 404"},
		{"server error", port.NewTransportError(500, ""), "Erreur 500"},
		{"other", errors.New("connection reset"), "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.store.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)

			err := f.form.HandleSubmit(context.Background(), validForm())

			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, []string{tt.want}, f.errors.messages)
			assert.Empty(t, f.navigator.Routes())
			assert.Equal(t, workflow.StateIdle, f.form.State())
		})
	}
}

func TestBillForm_PublishesEvents(t *testing.T) {
	d := dispatcher.NewDispatcher()
	var mu sync.Mutex
	var seen []event.Type
	record := func(ctx context.Context, evt *event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, evt.Type)
		return nil
	}
	d.Subscribe(event.TypeAttachmentUploaded, record)
	d.Subscribe(event.TypeBillCreated, record)

	f := newFixture(WithDispatcher(d))
	f.store.On("CreateAttachment", mock.Anything, mock.Anything, testEmail).
		Return(&entity.AttachmentReceipt{FileURL: "https://test-url.com/test.jpg", Key: "1234"}, nil)
	f.store.On("Update", mock.Anything, "1234", mock.Anything).Return(&entity.Bill{ID: "1234"}, nil)

	require.NoError(t, f.form.HandleChangeFile(context.Background(), []port.File{jpg("test.jpg")}))
	require.NoError(t, f.form.HandleSubmit(context.Background(), validForm()))
	require.NoError(t, d.Close())

	assert.ElementsMatch(t, []event.Type{event.TypeAttachmentUploaded, event.TypeBillCreated}, seen)
}
