package service

import (
	"context"

	"classroom/internal/models"
	"classroom/internal/repository"
)

// auditTrail appends activity events on behalf of the other services.
// A failed append never fails the operation that produced the event;
// it is handed to onFail instead.
type auditTrail struct {
	events repository.EventRepo
	onFail func(e models.Event, err error)
}

func (a *auditTrail) record(ctx context.Context, e models.Event) {
	if err := a.events.Append(ctx, e); err != nil && a.onFail != nil {
		a.onFail(e, err)
	}
}
