package noop

import (
	"context"
	"sync/atomic"

	"halomind/pkg/errors"
)

// Tracker drops every event but counts what it was handed, so a process
// without Sentry still knows how many provider failures it swallowed
type Tracker struct {
	errors      atomic.Int64
	messages    atomic.Int64
	breadcrumbs atomic.Int64
}

// Counts is a snapshot of the discarded events
type Counts struct {
	Errors      int64
	Messages    int64
	Breadcrumbs int64
}

func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) CaptureError(context.Context, error, map[string]string) error {
	t.errors.Add(1)
	return nil
}

func (t *Tracker) CaptureMessage(context.Context, string, errors.Level, map[string]string) error {
	t.messages.Add(1)
	return nil
}

func (t *Tracker) AddBreadcrumb(context.Context, string, string, errors.Level, map[string]interface{}) {
	t.breadcrumbs.Add(1)
}

func (t *Tracker) Flush(context.Context) error {
	return nil
}

// Counts returns the number of events dropped so far
func (t *Tracker) Counts() Counts {
	return Counts{
		Errors:      t.errors.Load(),
		Messages:    t.messages.Load(),
		Breadcrumbs: t.breadcrumbs.Load(),
	}
}

var _ errors.Tracker = (*Tracker)(nil)
