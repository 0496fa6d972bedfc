package utils

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("door-secret-1", 4) // bcrypt.MinCost keeps the test fast
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "door-secret-1") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "door-secret-2") {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordClampsBadCost(t *testing.T) {
	for _, cost := range []int{-1, 0, 99} {
		hash, err := HashPassword("door-secret-1", cost)
		if err != nil {
			t.Fatalf("HashPassword(cost=%d): %v", cost, err)
		}
		if !VerifyPassword(hash, "door-secret-1") {
			t.Errorf("cost %d produced an unverifiable hash", cost)
		}
	}
}
