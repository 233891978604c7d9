package domain

import "testing"

func TestSubmissionValues_GuestName(t *testing.T) {
	tests := []struct {
		name    string
		company string
		person  string
		want    string
	}{
		{"with company", "Acme Corp", "Jane Doe", "Acme Corp Jane Doe"},
		{"without company", "", "Jane Doe", "Jane Doe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := SubmissionValues{Company: tt.company, Name: tt.person}
			if got := v.GuestName(); got != tt.want {
				t.Fatalf("GuestName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormIdentity_Keys(t *testing.T) {
	f := NewFormIdentity(42)
	if f.Key() != "form_42" {
		t.Fatalf("Key() = %q", f.Key())
	}
	if f.SessionKey() != "chatease_form_form_42" {
		t.Fatalf("SessionKey() = %q", f.SessionKey())
	}
	if f.TokenScope() != "chatease_contact_form_form_42" {
		t.Fatalf("TokenScope() = %q", f.TokenScope())
	}

	def := NewFormIdentity(0)
	if def.Key() != "default" || def.SessionKey() != "chatease_form_default" {
		t.Fatalf("default identity keys wrong: %q / %q", def.Key(), def.SessionKey())
	}

	neg := NewFormIdentity(-7)
	if neg.FormPostID != 0 {
		t.Fatalf("negative form id should coerce to 0, got %d", neg.FormPostID)
	}
}
