// Package testhelpers provides utilities for testing databridge components.
package testhelpers

import (
	"testing"
	"time"

	"github.com/databridge-io/databridge/pkg/capsule"
)

// TestSigningSecret is the capsule signing secret used across the test suite.
const TestSigningSecret = "databridge-test-signing-secret"

// TestDescriptor returns a store descriptor for fixture capsules.
func TestDescriptor() capsule.Descriptor {
	return capsule.Descriptor{
		Host:     "localhost:9000",
		Database: "default",
		Username: "default",
		Password: "test_password",
	}
}

// MintTestCapsule mints a one-hour capsule over TestDescriptor with the
// shared test secret.
func MintTestCapsule(t *testing.T) string {
	t.Helper()

	svc := capsule.NewService(TestSigningSecret, time.Hour)
	token, _, err := svc.Mint(TestDescriptor())
	if err != nil {
		t.Fatalf("Failed to mint test capsule: %v", err)
	}
	return token
}

// MintExpiredCapsule mints a structurally valid capsule whose expiry is
// already in the past.
func MintExpiredCapsule(t *testing.T) string {
	t.Helper()

	svc := capsule.NewService(TestSigningSecret, -time.Minute)
	token, _, err := svc.Mint(TestDescriptor())
	if err != nil {
		t.Fatalf("Failed to mint expired capsule: %v", err)
	}
	return token
}
