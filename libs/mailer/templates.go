package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Branding is the salon identity printed in every email.
type Branding struct {
	SalonName  string
	SalonPhone string
}

func (b Branding) withDefaults() Branding {
	if b.SalonName == "" {
		b.SalonName = "MINERVA"
	}
	if b.SalonPhone == "" {
		b.SalonPhone = "+1-555-555-5555"
	}
	return b
}

// Booking carries display-ready appointment fields. Date and Time are already formatted.
type Booking struct {
	AppointmentID string
	Service       string
	Date          string
	Time          string
	Duration      int
	FirstName     string
	LastName      string
	Phone         string
	Email         string
	Notes         string
	CancelReason  string
}

type Contact struct {
	Name     string
	Email    string
	Phone    string
	Category string
	Message  string
}

// ReferenceCode is the short code customers quote on the phone.
func ReferenceCode(appointmentID string) string {
	id := strings.TrimSpace(appointmentID)
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

type view struct {
	Brand     Branding
	Booking   Booking
	Contact   Contact
	Reference string
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f5f5f5;">
<table width="100%" cellpadding="0" cellspacing="0" style="padding:40px 20px;"><tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:12px;">
<tr><td style="background-color:#6B5344;padding:30px;text-align:center;">
<h1 style="margin:0;color:#ffffff;letter-spacing:2px;">{{.V.Brand.SalonName}}</h1>
</td></tr>
<tr><td style="padding:40px 30px;color:#2A1810;">{{template "content" .V}}</td></tr>
<tr><td style="background-color:#F5F5F5;padding:20px;text-align:center;color:#888888;font-size:12px;">
{{.V.Brand.SalonName}} Salon &middot; Phone: {{.V.Brand.SalonPhone}}
</td></tr>
</table></td></tr></table>
</body>
</html>{{end}}`

var htmlBodies = map[string]string{
	"customer_confirmation": `{{define "content"}}
<h2>Hi {{.Booking.FirstName}},</h2>
<p>Your booking is confirmed! We're excited to see you.</p>
<table width="100%" cellpadding="8" style="background-color:#F5EFE7;border-radius:8px;">
<tr><td>Service:</td><td align="right"><strong>{{.Booking.Service}}</strong></td></tr>
<tr><td>Date:</td><td align="right"><strong>{{.Booking.Date}}</strong></td></tr>
<tr><td>Time:</td><td align="right"><strong>{{.Booking.Time}}</strong></td></tr>
<tr><td>Duration:</td><td align="right"><strong>{{.Booking.Duration}} minutes</strong></td></tr>
<tr><td>Reference:</td><td align="right"><strong>{{.Reference}}</strong></td></tr>
</table>
<p>We will call you at <strong>{{.Booking.Phone}}</strong> to confirm your appointment details.</p>
<p><strong>Need to cancel or reschedule?</strong> Please call us at <strong>{{.Brand.SalonPhone}}</strong> at least 24 hours in advance.</p>
<p>The {{.Brand.SalonName}} Team</p>
{{end}}`,
	"salon_notification": `{{define "content"}}
<h2>New Booking Received</h2>
<table width="100%" cellpadding="12" style="background-color:#F5EFE7;border-radius:8px;">
<tr><td>Service:</td><td><strong>{{.Booking.Service}}</strong></td></tr>
<tr><td>Date &amp; Time:</td><td><strong>{{.Booking.Date}} at {{.Booking.Time}}</strong></td></tr>
<tr><td>Appointment ID:</td><td style="font-family:monospace;">{{.Booking.AppointmentID}}</td></tr>
</table>
<h3>Customer Information</h3>
<table width="100%" cellpadding="12" style="background-color:#FFF9F5;border-radius:8px;">
<tr><td>Name:</td><td><strong>{{.Booking.FirstName}} {{.Booking.LastName}}</strong></td></tr>
<tr><td>Phone:</td><td><a href="tel:{{.Booking.Phone}}">{{.Booking.Phone}}</a></td></tr>
<tr><td>Email:</td><td><a href="mailto:{{.Booking.Email}}">{{.Booking.Email}}</a></td></tr>
{{if .Booking.Notes}}<tr><td>Notes:</td><td>{{.Booking.Notes}}</td></tr>{{end}}
</table>
<p><strong>Action Required:</strong> Please call the customer to confirm the appointment details.</p>
{{end}}`,
	"cancellation": `{{define "content"}}
<h2>Hi {{.Booking.FirstName}},</h2>
<p>Your {{.Booking.Service}} appointment on <strong>{{.Booking.Date}} at {{.Booking.Time}}</strong> (reference {{.Reference}}) has been cancelled.</p>
{{if .Booking.CancelReason}}<p>Reason: {{.Booking.CancelReason}}</p>{{end}}
<p>To book a new time, visit our booking page or call us at <strong>{{.Brand.SalonPhone}}</strong>.</p>
{{end}}`,
	"contact_salon": `{{define "content"}}
<h2>New Contact Message</h2>
<table width="100%" cellpadding="12" style="background-color:#F5EFE7;border-radius:8px;">
<tr><td>Name:</td><td><strong>{{.Contact.Name}}</strong></td></tr>
<tr><td>Email:</td><td><a href="mailto:{{.Contact.Email}}">{{.Contact.Email}}</a></td></tr>
<tr><td>Phone:</td><td>{{.Contact.Phone}}</td></tr>
<tr><td>Category:</td><td>{{.Contact.Category}}</td></tr>
</table>
<p style="white-space:pre-line;">{{.Contact.Message}}</p>
{{end}}`,
	"contact_ack": `{{define "content"}}
<h2>Hi {{.Contact.Name}},</h2>
<p>Thank you for reaching out. We received your message about <strong>{{.Contact.Category}}</strong> and will respond shortly.</p>
<p>The {{.Brand.SalonName}} Team</p>
{{end}}`,
}

var textBodies = map[string]string{
	"customer_confirmation": `Hi {{.Booking.FirstName}},

Your booking is confirmed.

Service:   {{.Booking.Service}}
Date:      {{.Booking.Date}}
Time:      {{.Booking.Time}}
Duration:  {{.Booking.Duration}} minutes
Reference: {{.Reference}}

We will call you at {{.Booking.Phone}} to confirm your appointment details.
Need to cancel or reschedule? Call {{.Brand.SalonPhone}} at least 24 hours in advance.
`,
	"salon_notification": `New booking: {{.Booking.Service}} on {{.Booking.Date}} at {{.Booking.Time}}
Appointment ID: {{.Booking.AppointmentID}}
Customer: {{.Booking.FirstName}} {{.Booking.LastName}}
Phone: {{.Booking.Phone}}
Email: {{.Booking.Email}}
{{if .Booking.Notes}}Notes: {{.Booking.Notes}}
{{end}}`,
	"cancellation": `Hi {{.Booking.FirstName}},

Your {{.Booking.Service}} appointment on {{.Booking.Date}} at {{.Booking.Time}} (reference {{.Reference}}) has been cancelled.
{{if .Booking.CancelReason}}Reason: {{.Booking.CancelReason}}
{{end}}Call {{.Brand.SalonPhone}} to book a new time.
`,
	"contact_salon": `New contact message from {{.Contact.Name}} <{{.Contact.Email}}>, phone {{.Contact.Phone}}
Category: {{.Contact.Category}}

{{.Contact.Message}}
`,
	"contact_ack": `Hi {{.Contact.Name}},

Thank you for reaching out. We received your message about {{.Contact.Category}} and will respond shortly.
`,
}

var (
	htmlTemplates = map[string]*htmltemplate.Template{}
	textTemplates = map[string]*texttemplate.Template{}
)

func init() {
	for name, body := range htmlBodies {
		htmlTemplates[name] = htmltemplate.Must(htmltemplate.Must(htmltemplate.New(name).Parse(layoutHTML)).Parse(body))
	}
	for name, body := range textBodies {
		textTemplates[name] = texttemplate.Must(texttemplate.New(name).Parse(body))
	}
}

func render(name, title string, v view) (string, string, error) {
	var h bytes.Buffer
	if err := htmlTemplates[name].ExecuteTemplate(&h, "layout", struct {
		Title string
		V     view
	}{title, v}); err != nil {
		return "", "", fmt.Errorf("mailer: render %s html: %w", name, err)
	}
	var t bytes.Buffer
	if err := textTemplates[name].Execute(&t, v); err != nil {
		return "", "", fmt.Errorf("mailer: render %s text: %w", name, err)
	}
	return t.String(), h.String(), nil
}

func compose(name, to, toName, subject string, v view) (Message, error) {
	text, html, err := render(name, subject, v)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, ToName: toName, Subject: subject, Body: text, HTML: html}, nil
}

func CustomerConfirmation(brand Branding, b Booking) (Message, error) {
	brand = brand.withDefaults()
	subject := fmt.Sprintf("Your %s Appointment - %s at %s", brand.SalonName, b.Date, b.Time)
	return compose("customer_confirmation", b.Email, strings.TrimSpace(b.FirstName+" "+b.LastName), subject,
		view{Brand: brand, Booking: b, Reference: ReferenceCode(b.AppointmentID)})
}

func SalonNotification(brand Branding, b Booking, salonEmail string) (Message, error) {
	brand = brand.withDefaults()
	subject := fmt.Sprintf("New Booking - %s - %s %s", b.Service, b.Date, b.Time)
	return compose("salon_notification", salonEmail, brand.SalonName, subject,
		view{Brand: brand, Booking: b, Reference: ReferenceCode(b.AppointmentID)})
}

func Cancellation(brand Branding, b Booking) (Message, error) {
	brand = brand.withDefaults()
	subject := fmt.Sprintf("Your %s Appointment Was Cancelled - %s at %s", brand.SalonName, b.Date, b.Time)
	return compose("cancellation", b.Email, strings.TrimSpace(b.FirstName+" "+b.LastName), subject,
		view{Brand: brand, Booking: b, Reference: ReferenceCode(b.AppointmentID)})
}

func ContactToSalon(brand Branding, c Contact, salonEmail string) (Message, error) {
	brand = brand.withDefaults()
	subject := fmt.Sprintf("Contact Form - %s - %s", c.Category, c.Name)
	return compose("contact_salon", salonEmail, brand.SalonName, subject, view{Brand: brand, Contact: c})
}

func ContactAcknowledgement(brand Branding, c Contact) (Message, error) {
	brand = brand.withDefaults()
	subject := fmt.Sprintf("We received your message - %s", brand.SalonName)
	return compose("contact_ack", c.Email, c.Name, subject, view{Brand: brand, Contact: c})
}
