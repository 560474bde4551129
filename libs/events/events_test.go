package events

import "testing"

func TestDecode(t *testing.T) {
	v, err := Decode(AppointmentConfirmed, []byte(`{"appointment_id":"a1","service_name":"Haircut","customer":{"email":"x@y.z"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	appt, ok := v.(*Appointment)
	if !ok || appt.AppointmentID != "a1" || appt.Customer.Email != "x@y.z" {
		t.Fatalf("unexpected payload %#v", v)
	}

	if _, err := Decode("billing.paid.v1", []byte(`{}`)); err == nil {
		t.Fatal("expected unknown type error")
	}
	if _, err := Decode(ContactSubmitted, []byte(`{`)); err == nil {
		t.Fatal("expected malformed payload error")
	}
}
