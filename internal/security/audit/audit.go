package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id carried by ctx, or ""
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Entry is one audited action
type Entry struct {
	ID         string
	UserID     string
	Role       string
	Action     string
	Resource   string
	ResourceID string
	Status     string
	Details    string
}

// Logger writes audit entries to a structured log
type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit")), now: time.Now}
}

// Log records e and returns the entry id
func (al *Logger) Log(ctx context.Context, e Entry) string {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	al.logger.Info("audit",
		slog.String("audit_id", e.ID),
		slog.String("action", e.Action),
		slog.String("resource", e.Resource),
		slog.String("resource_id", e.ResourceID),
		slog.String("user_id", e.UserID),
		slog.String("role", e.Role),
		slog.String("status", e.Status),
		slog.String("details", e.Details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", al.now()),
	)
	return e.ID
}

// LogAccess records a read or write of patient data
func (al *Logger) LogAccess(ctx context.Context, userID, role, action, resource, resourceID, status string) string {
	return al.Log(ctx, Entry{
		UserID:     userID,
		Role:       role,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Status:     status,
	})
}

// LogLogin records a login attempt
func (al *Logger) LogLogin(ctx context.Context, email, status string) string {
	return al.Log(ctx, Entry{Action: "login", Resource: "session", Status: status, Details: email})
}

// LogDenied records a refused request
func (al *Logger) LogDenied(ctx context.Context, userID, role, reason string) string {
	return al.Log(ctx, Entry{UserID: userID, Role: role, Action: "access_denied", Resource: "api", Status: "denied", Details: reason})
}
