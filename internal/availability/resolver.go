// Package availability derives the free slots of every service for a date.
package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinicbook/clinicbook-api/internal/bookings"
	"github.com/clinicbook/clinicbook-api/internal/catalog"
	"github.com/clinicbook/clinicbook-api/internal/observability/metrics"
)

// ServiceLister lists the full catalog in template order.
type ServiceLister interface {
	ListServices(ctx context.Context) ([]catalog.Service, error)
}

// BookingsByDate lists every booking on a date key.
type BookingsByDate interface {
	ListByDate(ctx context.Context, date string) ([]*bookings.Booking, error)
}

// Resolver recomputes availability from the catalog and the ledger on every
// call; nothing is cached.
type Resolver struct {
	services ServiceLister
	bookings BookingsByDate
	metrics  *metrics.BookingMetrics
}

// NewResolver creates a resolver.
func NewResolver(services ServiceLister, bookings BookingsByDate, m *metrics.BookingMetrics) *Resolver {
	if services == nil || bookings == nil {
		panic("availability: catalog and ledger required")
	}
	return &Resolver{services: services, bookings: bookings, metrics: m}
}

// Resolve returns every service with its slots minus those booked on date.
// The date is an opaque key and is not parsed.
func (r *Resolver) Resolve(ctx context.Context, date string) ([]catalog.Service, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveAvailability(time.Since(start).Seconds()) }()

	date = strings.TrimSpace(date)

	var (
		services []catalog.Service
		booked   []*bookings.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		services, err = r.services.ListServices(gctx)
		if err != nil {
			return fmt.Errorf("availability: list services: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		booked, err = r.bookings.ListByDate(gctx, date)
		if err != nil {
			return fmt.Errorf("availability: list bookings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	taken := make(map[string]map[string]struct{}, len(services))
	for _, b := range booked {
		if taken[b.ServiceName] == nil {
			taken[b.ServiceName] = make(map[string]struct{})
		}
		taken[b.ServiceName][b.Slot] = struct{}{}
	}

	out := make([]catalog.Service, 0, len(services))
	for _, svc := range services {
		free := make([]string, 0, len(svc.Slots))
		for _, slot := range svc.Slots {
			if _, ok := taken[svc.Name][slot]; !ok {
				free = append(free, slot)
			}
		}
		svc.Slots = free
		out = append(out, svc)
	}
	return out, nil
}
