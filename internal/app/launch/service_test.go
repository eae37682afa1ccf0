package launch

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	service := NewService("test-secret", "portal", time.Hour)

	token, err := service.Issue("user-1", "Alice")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := service.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.UserID != "user-1" || claims.DisplayName != "Alice" {
		t.Fatalf("Unexpected claims: %+v", claims)
	}
}

func TestIssue_Validation(t *testing.T) {
	tests := []struct {
		name    string
		service *Service
		userID  string
	}{
		{
			name:    "MissingUser",
			service: NewService("secret", "portal", time.Hour),
			userID:  "",
		},
		{
			name:    "MissingSecret",
			service: NewService("", "portal", time.Hour),
			userID:  "user-1",
		},
		{
			name:    "NonPositiveTTL",
			service: NewService("secret", "portal", 0),
			userID:  "user-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.service.Issue(tt.userID, "name"); err == nil {
				t.Fatal("Expected Issue to fail")
			}
		})
	}
}

func TestVerify_RejectsTampering(t *testing.T) {
	service := NewService("test-secret", "portal", time.Hour)
	token, err := service.Issue("user-1", "Alice")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewService("other-secret", "portal", time.Hour)
		if _, err := other.Verify(token); err == nil {
			t.Fatal("Expected verification to fail with a different secret")
		}
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other := NewService("test-secret", "other-portal", time.Hour)
		if _, err := other.Verify(token); err == nil {
			t.Fatal("Expected verification to fail with a different issuer")
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := service.Verify("not.a.token"); err == nil {
			t.Fatal("Expected garbage token to fail")
		}
	})
}
