package mail

import (
	"context"
	"testing"
)

func TestSendRequiresConfiguration(t *testing.T) {
	s := NewSender(Config{})
	if err := s.Send(context.Background(), "subject", []byte("<p>hi</p>")); err == nil {
		t.Error("unconfigured sender must refuse to send")
	}
}

func TestSendRejectsInvalidAddresses(t *testing.T) {
	s := NewSender(Config{
		Host: "smtp.example.com",
		Port: 587,
		From: "not an address",
		To:   []string{"team@example.com"},
	})
	if err := s.Send(context.Background(), "subject", nil); err == nil {
		t.Error("invalid from address must be rejected before dialing")
	}
}
