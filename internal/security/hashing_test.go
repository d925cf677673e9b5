package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndMatches(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash([]byte("s3cret-pw"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "s3cret-pw" || hash == "" {
		t.Fatal("hash must not be empty or equal to the password")
	}
	if err := h.Matches(hash, []byte("s3cret-pw")); err != nil {
		t.Errorf("Matches correct password: %v", err)
	}
	if err := h.Matches(hash, []byte("wrong")); err == nil {
		t.Error("Matches wrong password: want error")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, bcrypt.DefaultCost},
		{-1, bcrypt.DefaultCost},
		{2, bcrypt.MinCost},
		{99, bcrypt.MaxCost},
		{12, 12},
	}
	for _, tt := range tests {
		if got := NewHasher(tt.in).Cost; got != tt.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", tt.in, got, tt.want)
		}
	}
}
