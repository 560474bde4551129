package schedule

import "github.com/minerva-salon/salonbook/services/booking-service/internal/model"

// DefaultServices mirrors migrations/0002_seed.
func DefaultServices() []model.Service {
	return []model.Service{
		{Slug: "haircut", Name: "Haircut", Description: "Professional haircut with styling consultation", Price: "45.00", DurationMinutes: 60, Active: true},
		{Slug: "hairstyle", Name: "Hairstyle", Description: "Creative styling for any occasion", Price: "65.00", DurationMinutes: 90, Active: true},
		{Slug: "coloring", Name: "Hair Coloring", Description: "Full color treatment with premium products", Price: "120.00", DurationMinutes: 120, Active: true},
		{Slug: "highlights", Name: "Highlights", Description: "Partial or full highlights", Price: "150.00", DurationMinutes: 150, Active: true},
		{Slug: "treatment", Name: "Hair Treatment", Description: "Deep conditioning and repair treatment", Price: "55.00", DurationMinutes: 60, Active: true},
	}
}

// DefaultWorkingHours opens Monday to Saturday 08:00-21:00. Sunday has a row but is closed.
func DefaultWorkingHours() []model.WorkingHours {
	hours := []model.WorkingHours{{Weekday: 0, Open: "10:00", Close: "18:00", Active: false}}
	for d := 1; d <= 6; d++ {
		hours = append(hours, model.WorkingHours{Weekday: d, Open: "08:00", Close: "21:00", Active: true})
	}
	return hours
}
