package domain_test

import (
	"slices"
	"testing"

	"github.com/pagesmith/pagesmith/internal/domain"
)

func TestNormalizeScope(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty set gains user role", nil, []string{"user"}},
		{"user role kept once", []string{"user", "user"}, []string{"user"}},
		{"admin without user gains user", []string{"admin"}, []string{"user", "admin"}},
		{"blank entries dropped", []string{"", "admin"}, []string{"user", "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.NormalizeScope(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("NormalizeScope(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHasAnyScope(t *testing.T) {
	creds := &domain.Credentials{Scope: []string{"user"}}

	if !creds.HasAnyScope() {
		t.Error("empty required set must grant access")
	}
	if !creds.HasAnyScope("admin", "user") {
		t.Error("overlapping set must grant access")
	}
	if creds.HasAnyScope("admin") {
		t.Error("disjoint set must deny access")
	}
}
