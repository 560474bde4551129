package mailer

import (
	"fmt"

	"github.com/minerva-salon/salonbook/libs/events"
)

func BookingFromEvent(a events.Appointment) Booking {
	date, clockTime := a.DisplayDate, a.DisplayTime
	if date == "" {
		date = a.Date
	}
	if clockTime == "" {
		clockTime = a.StartTime
	}
	return Booking{
		AppointmentID: a.AppointmentID,
		Service:       a.ServiceName,
		Date:          date,
		Time:          clockTime,
		Duration:      a.DurationMinutes,
		FirstName:     a.Customer.FirstName,
		LastName:      a.Customer.LastName,
		Phone:         a.Customer.Phone,
		Email:         a.Customer.Email,
		Notes:         a.Notes,
		CancelReason:  a.CancelReason,
	}
}

// Compose renders every email an event produces. Salon copies are skipped when salonEmail is empty.
func Compose(brand Branding, salonEmail, eventType string, payload any) ([]Message, error) {
	var (
		out []Message
		err error
	)
	add := func(m Message, err error) error {
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	}

	switch p := payload.(type) {
	case *events.Appointment:
		b := BookingFromEvent(*p)
		switch eventType {
		case events.AppointmentConfirmed:
			if err = add(CustomerConfirmation(brand, b)); err != nil {
				return nil, err
			}
			if salonEmail != "" {
				if err = add(SalonNotification(brand, b, salonEmail)); err != nil {
					return nil, err
				}
			}
		case events.AppointmentCancelled:
			if err = add(Cancellation(brand, b)); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("mailer: no email for %s", eventType)
		}
	case *events.Contact:
		c := Contact{Name: p.Name, Email: p.Email, Phone: p.Phone, Category: p.Category, Message: p.Message}
		if salonEmail != "" {
			if err = add(ContactToSalon(brand, c, salonEmail)); err != nil {
				return nil, err
			}
		}
		if err = add(ContactAcknowledgement(brand, c)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("mailer: unsupported payload %T", payload)
	}
	return out, nil
}
