// Package tenant carries the company being processed and the id of the
// current automation run through a context.
package tenant

import (
	"context"
	"errors"
)

type contextKey int

const (
	companyIDKey contextKey = iota
	runIDKey
)

var (
	// ErrNoCompanyID means the context is not scoped to a company.
	// Writes to the delivery log require one.
	ErrNoCompanyID = errors.New("no company in context")
	ErrNoRunID     = errors.New("no run id in context")
)

// WithCompanyID scopes ctx to the company whose recipients are being processed
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, companyIDKey, companyID)
}

func CompanyIDFromContext(ctx context.Context) (string, error) {
	companyID, ok := ctx.Value(companyIDKey).(string)
	if !ok || companyID == "" {
		return "", ErrNoCompanyID
	}
	return companyID, nil
}

// WithRunID tags ctx with the id of one reminder or marketing run. Loggers
// derived through logger.FromContext and published outcome events carry it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

func RunIDFromContext(ctx context.Context) (string, error) {
	runID, ok := ctx.Value(runIDKey).(string)
	if !ok || runID == "" {
		return "", ErrNoRunID
	}
	return runID, nil
}
