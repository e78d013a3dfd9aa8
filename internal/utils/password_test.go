package utils

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r#secret", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Sup3r#secret" {
		t.Fatal("hash must not equal the plain password")
	}
	if !VerifyPassword(hash, "Sup3r#secret") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "wrong#Passw0rd") {
		t.Fatal("wrong password accepted")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"ok", "Abcdef1!", nil},
		{"too short", "Ab1!", ErrPasswordTooShort},
		{"no upper", "abcdef1!", ErrPasswordNoUpper},
		{"no lower", "ABCDEF1!", ErrPasswordNoLower},
		{"no digit", "Abcdefg!", ErrPasswordNoDigit},
		{"no symbol", "Abcdefg1", ErrPasswordNoSymbol},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidatePasswordStrength(tc.password); err != tc.wantErr {
				t.Fatalf("ValidatePasswordStrength(%q) = %v, want %v", tc.password, err, tc.wantErr)
			}
		})
	}
}
