package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbook/clinicbook-api/internal/bookings"
	"github.com/clinicbook/clinicbook-api/internal/catalog"
	"github.com/clinicbook/clinicbook-api/internal/doctors"
	"github.com/clinicbook/clinicbook-api/internal/identity"
	"github.com/clinicbook/clinicbook-api/internal/payments"
)

// Stores groups the repositories shared by every handler.
type Stores struct {
	Users    identity.Repository
	Services catalog.Repository
	Doctors  doctors.Repository
	Bookings bookings.Repository
	Payments payments.Store
}

// BuildStores returns Postgres-backed stores, or in-memory ones seeded with
// the default catalog when pool is nil.
func BuildStores(pool *pgxpool.Pool) Stores {
	if pool == nil {
		bookingRepo := bookings.NewInMemoryRepository()
		return Stores{
			Users:    identity.NewInMemoryRepository(),
			Services: catalog.NewInMemoryRepository(catalog.DefaultServices()...),
			Doctors:  doctors.NewInMemoryRepository(),
			Bookings: bookingRepo,
			Payments: payments.NewInMemoryStore(bookingRepo),
		}
	}
	return Stores{
		Users:    identity.NewPostgresRepository(pool),
		Services: catalog.NewPostgresRepository(pool),
		Doctors:  doctors.NewPostgresRepository(pool),
		Bookings: bookings.NewPostgresRepository(pool),
		Payments: payments.NewPostgresStore(pool),
	}
}
