package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/dispatcher"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/application/service"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/infrastructure/export"
	"github.com/garyjia/billed/pkg/utils"
)

const sessionKey = "session"

// Handlers contains all HTTP request handlers
type Handlers struct {
	config    ServerConfig
	bills     service.BillService
	sessions  port.SessionStore
	exporter  *export.BillExporter
	events    dispatcher.Dispatcher
	zapLogger *zap.Logger
	logger    Logger

	formsMu sync.Mutex
	forms   map[string]*formSession
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	config ServerConfig,
	bills service.BillService,
	sessions port.SessionStore,
	exporter *export.BillExporter,
	events dispatcher.Dispatcher,
	zapLogger *zap.Logger,
	logger Logger,
) *Handlers {
	return &Handlers{
		config:    config,
		bills:     bills,
		sessions:  sessions,
		exporter:  exporter,
		events:    events,
		zapLogger: zapLogger,
		logger:    logger,
		forms:     make(map[string]*formSession),
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LoginRequest is the body of POST /api/login
type LoginRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// Login handles POST /api/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid login body", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	if err := utils.ValidateEmail(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	if req.Type == "" {
		req.Type = entity.UserTypeEmployee
	}
	if req.Type != entity.UserTypeEmployee && req.Type != entity.UserTypeAdmin {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("unknown user type %q", req.Type),
		})
		return
	}

	session := &entity.Session{Type: req.Type, Email: req.Email, CreatedAt: time.Now().UTC()}
	id := uuid.NewString()
	if err := h.sessions.Put(c.Request.Context(), id, session); err != nil {
		h.logger.Error("Failed to store session", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to create session",
		})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(port.SessionCookie, id, int(h.config.SessionTTL.Seconds()), "/", "", h.config.SecureCookies, true)

	h.logger.Info("User logged in", "email", session.Email, "type", session.Type)
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    session,
	})
}

// Logout handles POST /api/logout
func (h *Handlers) Logout(c *gin.Context) {
	id, _ := c.Cookie(port.SessionCookie)
	if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "error", err)
	}
	h.dropForm(id)

	c.SetCookie(port.SessionCookie, "", -1, "/", "", h.config.SecureCookies, true)
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListBills handles GET /api/bills
func (h *Handlers) ListBills(c *gin.Context) {
	bills, err := h.visibleBills(c)
	if err != nil {
		h.respondError(c, "Failed to list bills", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    bills,
	})
}

// GetBill handles GET /api/bills/:id
func (h *Handlers) GetBill(c *gin.Context) {
	id := c.Param("id")

	bill, err := h.bills.Get(c.Request.Context(), id)
	if err == nil && !canAccess(currentSession(c), bill.Email) {
		err = fmt.Errorf("%w: bill %s", service.ErrNotFound, id)
	}
	if err != nil {
		h.respondError(c, "Failed to get bill", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    bill,
	})
}

// UploadAttachment handles POST /api/bills/attachments
func (h *Handlers) UploadAttachment(c *gin.Context) {
	session := currentSession(c)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "missing file",
		})
		return
	}

	file, err := readFile(header)
	if err != nil {
		h.respondError(c, "Failed to read upload", err)
		return
	}

	owner := session.Email
	if session.IsAdmin() && c.PostForm("email") != "" {
		owner = c.PostForm("email")
	}

	receipt, err := h.bills.CreateAttachment(c.Request.Context(), file, owner)
	if err != nil {
		h.respondError(c, "Failed to store attachment", err, "file_name", file.Name)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    receipt,
	})
}

// CreateBill handles POST /api/bills
func (h *Handlers) CreateBill(c *gin.Context) {
	bill, ok := h.bindBill(c)
	if !ok {
		return
	}

	created, err := h.bills.Create(c.Request.Context(), bill)
	if err != nil {
		h.respondError(c, "Failed to create bill", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    created,
	})
}

// UpdateBill handles PATCH /api/bills/:id
func (h *Handlers) UpdateBill(c *gin.Context) {
	id := c.Param("id")

	bill, ok := h.bindBill(c)
	if !ok {
		return
	}

	existing, err := h.bills.Get(c.Request.Context(), id)
	switch {
	case err == nil && !canAccess(currentSession(c), existing.Email):
		h.respondError(c, "Bill owned by another user", fmt.Errorf("%w: bill %s", service.ErrNotFound, id), "id", id)
		return
	case err != nil && !port.IsNotFound(err):
		h.respondError(c, "Failed to get bill", err, "id", id)
		return
	}

	updated, err := h.bills.Update(c.Request.Context(), id, bill)
	if err != nil {
		h.respondError(c, "Failed to update bill", err, "id", id)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    updated,
	})
}

// ExportBills handles GET /api/bills/export.xlsx
func (h *Handlers) ExportBills(c *gin.Context) {
	bills, err := h.visibleBills(c)
	if err != nil {
		h.respondError(c, "Failed to list bills for export", err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", `attachment; filename="notes-de-frais.xlsx"`)
	c.Status(http.StatusOK)
	if err := h.exporter.Write(c.Writer, bills); err != nil {
		h.logger.Error("Failed to write export", "error", err)
	}
}

// ServeFile handles GET /files/:key/:name
func (h *Handlers) ServeFile(c *gin.Context) {
	key := c.Param("key")

	att, content, err := h.bills.Attachment(c.Request.Context(), key)
	if err == nil && (att.FileName != c.Param("name") || !canAccess(currentSession(c), att.Email)) {
		err = fmt.Errorf("%w: attachment %s", service.ErrNotFound, key)
	}
	if err != nil {
		h.respondError(c, "Failed to serve attachment", err, "key", key)
		return
	}

	c.Data(http.StatusOK, att.ContentType, content)
}

// visibleBills returns every bill for admins and the caller's own bills otherwise
func (h *Handlers) visibleBills(c *gin.Context) ([]entity.Bill, error) {
	session := currentSession(c)
	if session.IsAdmin() {
		return h.bills.List(c.Request.Context())
	}
	return h.bills.ListByEmail(c.Request.Context(), session.Email)
}

// bindBill decodes the request body. Employees always act on their own
// bills and may not decide on them.
func (h *Handlers) bindBill(c *gin.Context) (*entity.Bill, bool) {
	var bill entity.Bill
	if err := c.ShouldBindJSON(&bill); err != nil {
		h.logger.Error("Invalid bill body", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return nil, false
	}

	session := currentSession(c)
	if session.IsEmployee() {
		if bill.Status != "" && bill.Status != entity.StatusPending {
			c.JSON(http.StatusForbidden, Response{
				Success: false,
				Error:   "employees cannot change the bill status",
			})
			return nil, false
		}
		bill.Email = session.Email
		bill.CommentAdmin = ""
	}
	return &bill, true
}

// respondError writes err with the status it carries, or 500
func (h *Handlers) respondError(c *gin.Context, msg string, err error, keysAndValues ...interface{}) {
	status := port.StatusOf(err)
	if status == 0 {
		status = http.StatusInternalServerError
	}

	h.logger.Error(msg, append(keysAndValues, "status", status, "error", err)...)

	text := http.StatusText(status)
	if status == http.StatusBadRequest {
		text = err.Error()
	}
	c.JSON(status, Response{
		Success: false,
		Error:   text,
	})
}

func currentSession(c *gin.Context) entity.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*entity.Session); ok {
			return *s
		}
	}
	return entity.Session{}
}

func canAccess(s entity.Session, owner string) bool {
	return s.IsAdmin() || s.Email == owner
}

func readFile(header *multipart.FileHeader) (port.File, error) {
	f, err := header.Open()
	if err != nil {
		return port.File{}, fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return port.File{}, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}
	return port.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// requireSession resolves the session cookie. Pages redirect anonymous
// visitors to the login page; API calls answer 401.
func (h *Handlers) requireSession(page bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(port.SessionCookie)
		var session *entity.Session
		if err == nil {
			session, err = h.sessions.Get(c.Request.Context(), id)
		}
		if err != nil {
			if !errors.Is(err, port.ErrSessionNotFound) && !errors.Is(err, http.ErrNoCookie) {
				h.logger.Error("Failed to load session", "error", err)
			}
			if page {
				c.Redirect(http.StatusSeeOther, "/")
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "not logged in",
			})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}
