package main

import (
	"testing"

	"tillbook/backend/internal/config"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short", ManagerPIN: "123456"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef", ManagerPIN: "739154"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestValidatePINStrength(t *testing.T) {
	for _, pin := range []string{"123456", "999999", "345678", "876543", "121212"} {
		if err := validatePINStrength(pin); err == nil {
			t.Fatalf("PIN %q should be rejected", pin)
		}
	}
	for _, pin := range []string{"739154", "480215", "906372"} {
		if err := validatePINStrength(pin); err != nil {
			t.Fatalf("PIN %q should pass, got %v", pin, err)
		}
	}
}
