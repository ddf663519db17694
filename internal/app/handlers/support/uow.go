package support

import (
	"context"
	"errors"
	"time"

	"spacio/internal/app/middleware"
	"spacio/internal/app/outbox"
	"spacio/internal/app/uow"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
	"spacio/internal/domain/shared/events"
)

// BeginReadOnlyUnit reuses the unit already in ctx or starts a read-only one.
// cleanup is nil when the unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.ContextWithUnitOfWork(middleware.InjectUnitContext(ctx, newUnit), newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// UnitFromContext returns the unit opened by the Transaction middleware.
func UnitFromContext(ctx context.Context) (uow.UnitOfWork, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	return unit, nil
}

// RecordEvents drains the aggregates' pending events into the unit's outbox.
func RecordEvents(ctx context.Context, unit uow.UnitOfWork, encoder outbox.EventEncoder, sources ...events.Source) error {
	return outbox.RecordDomainEvents(ctx, unit.Outbox(), encoder, events.Collect(sources...))
}

// Now returns clock() or the current time in UTC.
func Now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock().UTC()
	}
	return time.Now().UTC()
}

// IsConcurrencyConflict reports an optimistic version conflict on any aggregate.
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, domainlistings.ErrConcurrentUpdate) || errors.Is(err, domainbooking.ErrConcurrentUpdate)
}
