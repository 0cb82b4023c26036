package logx

import (
	"context"

	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	projectKey contextKey = iota
	actionKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithProject annotates the logger with the project id if present.
func WithProject(ctx context.Context, projectID schema.ProjectID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if projectID != "" {
		if current, ok := ctx.Value(projectKey).(schema.ProjectID); ok && current == projectID {
			return log
		}
		log = log.With("project", projectID)
	}
	return log
}

// WithProjectAction annotates the logger with project and action identifiers.
func WithProjectAction(ctx context.Context, projectID schema.ProjectID, actionID schema.ActionID) pslog.Logger {
	log := WithProject(ctx, projectID)
	if actionID != "" {
		if current, ok := ctx.Value(actionKey).(schema.ActionID); ok && current == actionID {
			return log
		}
		log = log.With("action", actionID)
	}
	return log
}

// WithAction annotates the logger with an action id when available.
func WithAction(log pslog.Logger, actionID schema.ActionID) pslog.Logger {
	if actionID != "" {
		log = log.With("action", actionID)
	}
	return log
}

// ContextWithProject stores the project marker on the context for log de-duplication.
func ContextWithProject(ctx context.Context, projectID schema.ProjectID) context.Context {
	if ctx == nil || projectID == "" {
		return ctx
	}
	return context.WithValue(ctx, projectKey, projectID)
}

// ContextWithAction stores the action marker on the context for log de-duplication.
func ContextWithAction(ctx context.Context, actionID schema.ActionID) context.Context {
	if ctx == nil || actionID == "" {
		return ctx
	}
	return context.WithValue(ctx, actionKey, actionID)
}

// ContextWithProjectLogger attaches the logger and project marker to the context.
func ContextWithProjectLogger(ctx context.Context, log pslog.Logger, projectID schema.ProjectID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithProject(ctx, projectID)
}

// CopyContextFields copies project/action markers from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if project, ok := src.Value(projectKey).(schema.ProjectID); ok && project != "" {
		dst = ContextWithProject(dst, project)
	}
	if action, ok := src.Value(actionKey).(schema.ActionID); ok && action != "" {
		dst = ContextWithAction(dst, action)
	}
	return dst
}
