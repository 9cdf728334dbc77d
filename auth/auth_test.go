// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateAdminKey(t *testing.T) {
	tests := []struct {
		name   string
		wardID string
		salt   string
	}{
		{"standard", "meadowview-1st", "secret-salt"},
		{"empty ward id", "", "salt"},
		{"empty salt", "ward-2", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateAdminKey(tt.wardID, tt.salt)

			if key == "" {
				t.Error("GenerateAdminKey() returned empty string")
			}

			// Should be deterministic
			if key != GenerateAdminKey(tt.wardID, tt.salt) {
				t.Error("GenerateAdminKey() is not deterministic")
			}

			if tt.wardID != "" && tt.salt != "" {
				if key == GenerateAdminKey(tt.wardID+"x", tt.salt) {
					t.Error("GenerateAdminKey() produced same key for different wards")
				}
				if key == GenerateAdminKey(tt.wardID, tt.salt+"x") {
					t.Error("GenerateAdminKey() produced same key for different salts")
				}
			}

			// URL-safe, no padding
			if strings.ContainsAny(key, "+/=") {
				t.Errorf("GenerateAdminKey() is not URL-safe: %s", key)
			}
		})
	}
}

func TestValidateAdminKey(t *testing.T) {
	wardID := "meadowview-1st"
	salt := "test-salt"
	validKey := GenerateAdminKey(wardID, salt)

	tests := []struct {
		name     string
		wardID   string
		adminKey string
		salt     string
		wantErr  error
	}{
		{"valid key", wardID, validKey, salt, nil},
		{"missing key", wardID, "", salt, ErrMissingAdminKey},
		{"invalid key", wardID, "wrong-key", salt, ErrInvalidAdminKey},
		{"wrong ward", "other-ward", validKey, salt, ErrInvalidAdminKey},
		{"wrong salt", wardID, validKey, "other-salt", ErrInvalidAdminKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.wardID, tt.adminKey, tt.salt)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	salt := "test-salt"

	hash := HashIP("192.168.1.1", salt)
	if len(hash) != 16 {
		t.Errorf("HashIP() length = %d, want 16", len(hash))
	}
	if hash != HashIP("192.168.1.1", salt) {
		t.Error("HashIP() is not deterministic")
	}
	if hash == HashIP("192.168.1.2", salt) {
		t.Error("HashIP() produced same hash for different IPs")
	}
	if hash == HashIP("192.168.1.1", "other-salt") {
		t.Error("HashIP() produced same hash for different salts")
	}
	if HashIP("", salt) != "" {
		t.Error("HashIP() should return empty string for empty IP")
	}
}

func BenchmarkGenerateAdminKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateAdminKey("meadowview-1st", "salt")
	}
}
