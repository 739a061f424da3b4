package logger

import (
	"context"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// SubmissionInfo identifies a single proof submission for log correlation
type SubmissionInfo struct {
	Method     string
	UserID     string
	ActivityID string
	PassportID string
}

// Fields returns the submission identifiers as zap fields
func (i SubmissionInfo) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("method", i.Method),
		zap.String("user_id", i.UserID),
		zap.String("activity_id", i.ActivityID),
	}
	if i.PassportID != "" {
		fields = append(fields, zap.String("passport_id", i.PassportID))
	}
	return fields
}

// WithSubmission returns a context whose sentry hub is tagged with the submission
// identifiers, so errors reported through ErrorCtx can be grouped per activity.
func WithSubmission(ctx context.Context, info SubmissionInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		if sentryClient == nil {
			return ctx
		}
		hub = sentry.NewHub(sentryClient, sentry.NewScope())
	} else {
		hub = hub.Clone()
	}

	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("method", info.Method)
		scope.SetTag("activity_id", info.ActivityID)
		scope.SetUser(sentry.User{ID: info.UserID})
	})

	return sentry.SetHubOnContext(ctx, hub)
}

// ForSubmission returns a logger carrying the submission identifiers
func ForSubmission(ctx context.Context, info SubmissionInfo) *zap.Logger {
	return FromContext(ctx).With(info.Fields()...)
}
