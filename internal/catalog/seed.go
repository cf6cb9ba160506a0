package catalog

var defaultSlots = []string{
	"08.00 AM - 08.30 AM",
	"08.30 AM - 09.00 AM",
	"09.00 AM - 09.30 AM",
	"09.30 AM - 10.00 AM",
	"10.00 AM - 10.30 AM",
	"10.30 AM - 11.00 AM",
	"11.00 AM - 11.30 AM",
	"11.30 AM - 12.00 PM",
	"01.00 PM - 01.30 PM",
	"01.30 PM - 02.00 PM",
	"02.00 PM - 02.30 PM",
	"02.30 PM - 03.00 PM",
}

// DefaultServices mirrors migrations/0002_seed_services.up.sql and seeds the
// in-memory catalog.
func DefaultServices() []Service {
	seed := []struct {
		id    string
		name  string
		price float64
	}{
		{"8f2c3b1e-5a44-4f0c-9b6e-0d7e1f3a2c01", "Teeth Orthodontics", 120},
		{"8f2c3b1e-5a44-4f0c-9b6e-0d7e1f3a2c02", "Cosmetic Dentistry", 150},
		{"8f2c3b1e-5a44-4f0c-9b6e-0d7e1f3a2c03", "Teeth Cleaning", 50},
		{"8f2c3b1e-5a44-4f0c-9b6e-0d7e1f3a2c04", "Cavity Protection", 80},
		{"8f2c3b1e-5a44-4f0c-9b6e-0d7e1f3a2c05", "Pediatric Dental", 90},
		{"8f2c3b1e-5a44-4f0c-9b6e-0d7e1f3a2c06", "Oral Surgery", 200},
	}
	services := make([]Service, 0, len(seed))
	for _, s := range seed {
		slots := make([]string, len(defaultSlots))
		copy(slots, defaultSlots)
		services = append(services, Service{ID: s.id, Name: s.name, Price: s.price, Slots: slots})
	}
	return services
}
