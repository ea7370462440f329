package auth

import (
	"testing"
	"time"

	"medbook/pkg/model"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	caller := model.Caller{
		SubjectID: "64f000000000000000000001",
		Email:     "dr.okafor@clinic.example",
		Role:      model.RoleDoctor,
	}

	raw, err := MakeToken(caller, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("MakeToken failed: %v", err)
	}

	got, err := ParseToken(raw, testSecret)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if got != caller {
		t.Errorf("parsed caller = %+v, want %+v", got, caller)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	caller := model.Caller{SubjectID: "64f000000000000000000002", Role: model.RolePatient}

	raw, err := MakeToken(caller, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("MakeToken failed: %v", err)
	}

	if _, err := ParseToken(raw, "other-secret"); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	caller := model.Caller{SubjectID: "64f000000000000000000003", Role: model.RolePatient}

	raw, err := MakeToken(caller, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("MakeToken failed: %v", err)
	}

	if _, err := ParseToken(raw, testSecret); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseToken_UnknownRole(t *testing.T) {
	caller := model.Caller{SubjectID: "x", Role: model.Role("NURSE")}

	raw, err := MakeToken(caller, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("MakeToken failed: %v", err)
	}

	if _, err := ParseToken(raw, testSecret); err == nil {
		t.Error("expected error for unrecognized role claim")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", testSecret); err == nil {
		t.Error("expected error for malformed token")
	}
}
