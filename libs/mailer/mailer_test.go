package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/minerva-salon/salonbook/libs/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBooking() Booking {
	return Booking{
		AppointmentID: "3f2a9c1e-7b4d-4e0a-9c2b-1d2e3f4a5b6c",
		Service:       "Haircut",
		Date:          "Monday, March 2, 2026",
		Time:          "2:00 PM",
		Duration:      60,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Phone:         "5551234567",
		Email:         "ada@example.com",
		Notes:         "<b>first visit</b>",
	}
}

func TestReferenceCode(t *testing.T) {
	assert.Equal(t, "3F2A9C1E", ReferenceCode("3f2a9c1e-7b4d-4e0a-9c2b-1d2e3f4a5b6c"))
	assert.Equal(t, "AB", ReferenceCode("ab"))
}

func TestCustomerConfirmation(t *testing.T) {
	msg, err := CustomerConfirmation(Branding{SalonPhone: "+1-555-000-1111"}, sampleBooking())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Your MINERVA Appointment - Monday, March 2, 2026 at 2:00 PM", msg.Subject)
	assert.Contains(t, msg.HTML, "3F2A9C1E")
	assert.Contains(t, msg.HTML, "+1-555-000-1111")
	assert.Contains(t, msg.Body, "Duration:  60 minutes")
}

func TestSalonNotificationEscapesNotes(t *testing.T) {
	msg, err := SalonNotification(Branding{}, sampleBooking(), "salon@example.com")
	require.NoError(t, err)
	assert.Equal(t, "salon@example.com", msg.To)
	assert.Equal(t, "New Booking - Haircut - Monday, March 2, 2026 2:00 PM", msg.Subject)
	assert.NotContains(t, msg.HTML, "<b>first visit</b>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;first visit&lt;/b&gt;")
	assert.Contains(t, msg.Body, "Notes: <b>first visit</b>")
}

func TestCancellationAndContact(t *testing.T) {
	b := sampleBooking()
	b.CancelReason = "stylist unavailable"
	msg, err := Cancellation(Branding{}, b)
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "Reason: stylist unavailable")

	c := Contact{Name: "Grace", Email: "grace@example.com", Phone: "5550001111", Category: "General", Message: "Do you do bridal packages?"}
	toSalon, err := ContactToSalon(Branding{}, c, "salon@example.com")
	require.NoError(t, err)
	assert.Equal(t, "salon@example.com", toSalon.To)
	assert.Contains(t, toSalon.Body, "Do you do bridal packages?")

	ack, err := ContactAcknowledgement(Branding{}, c)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", ack.To)
}

func TestSMTPSenderBuildsMultipartMessage(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: "1025", From: "salon@example.com"})
	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		if a != nil {
			t.Fatal("expected no auth without username")
		}
		return nil
	}

	err := s.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hi", Body: "plain", HTML: "<p>html</p>"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:1025", gotAddr)
	assert.Equal(t, "salon@example.com", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	raw := string(gotBody)
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "<p>html</p>")
	assert.True(t, strings.HasPrefix(raw, "From: salon@example.com\r\n"))
}

func TestSendersRejectMissingRecipient(t *testing.T) {
	err := NewStubSender(nil).Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipient)

	var sg *SendGridSender
	assert.Error(t, sg.Send(context.Background(), Message{To: "a@b.c", Subject: "x"}))
	assert.Nil(t, NewSendGridSender(SendGridConfig{}))
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	return &sesv2.SendEmailOutput{MessageId: aws.String("m-1")}, f.err
}

func TestSESSender(t *testing.T) {
	fake := &fakeSES{}
	s := NewSESSender(fake, SESConfig{FromEmail: "salon@example.com"})
	require.NoError(t, s.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hi", Body: "plain", HTML: "<p>x</p>"}))
	assert.Equal(t, "Minerva Salon <salon@example.com>", aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, "plain", aws.ToString(fake.input.Content.Simple.Body.Text.Data))

	fake.err = errors.New("throttled")
	assert.Error(t, s.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hi", Body: "plain"}))
}

func TestNewProvider(t *testing.T) {
	s, err := New(context.Background(), ProviderConfig{Provider: "stub"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &StubSender{}, s)

	_, err = New(context.Background(), ProviderConfig{Provider: "sendgrid"}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), ProviderConfig{Provider: "pigeon"}, nil)
	assert.Error(t, err)
}

func TestComposeForEvents(t *testing.T) {
	appt := &events.Appointment{
		AppointmentID: "abcdef12-0000-0000-0000-000000000000",
		ServiceName:   "Haircut",
		Date:          "2026-03-02",
		StartTime:     "14:00",
		DisplayDate:   "Monday, March 2, 2026",
		DisplayTime:   "2:00 PM",
		Customer:      events.Customer{FirstName: "Ada", Email: "ada@example.com"},
	}
	msgs, err := Compose(Branding{}, "salon@example.com", events.AppointmentConfirmed, appt)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "ada@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, "Monday, March 2, 2026 at 2:00 PM")
	assert.Equal(t, "salon@example.com", msgs[1].To)

	msgs, err = Compose(Branding{}, "", events.AppointmentConfirmed, appt)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	msgs, err = Compose(Branding{}, "salon@example.com", events.AppointmentCancelled, appt)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Subject, "Cancelled")

	contact := &events.Contact{Name: "Grace", Email: "grace@example.com", Category: "Bridal", Message: "Hello there, question"}
	msgs, err = Compose(Branding{}, "salon@example.com", events.ContactSubmitted, contact)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	_, err = Compose(Branding{}, "", "unknown", 42)
	assert.Error(t, err)
}
