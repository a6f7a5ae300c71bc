package forms

import "testing"

func TestLoginSchema(t *testing.T) {
	cases := []struct {
		name       string
		values     map[string]string
		wantFields []string
	}{
		{
			name:   "valid",
			values: map[string]string{"email": "user@example.com", "password": "User123!"},
		},
		{
			name:       "bad email",
			values:     map[string]string{"email": "not-an-email", "password": "User123!"},
			wantFields: []string{"email"},
		},
		{
			name:       "short password",
			values:     map[string]string{"email": "user@example.com", "password": "short"},
			wantFields: []string{"password"},
		},
		{
			name:       "both invalid",
			values:     map[string]string{"email": "", "password": ""},
			wantFields: []string{"email", "password"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate(LoginSchema(), tc.values)
			if len(errs) != len(tc.wantFields) {
				t.Fatalf("got %d errors (%v), want %d", len(errs), errs, len(tc.wantFields))
			}
			for _, f := range tc.wantFields {
				if errs[f] == "" {
					t.Errorf("expected an error for field %q, got %v", f, errs)
				}
			}
		})
	}
}

func TestTaskSchemaRejectsNegativeProjectID(t *testing.T) {
	errs := Validate(TaskSchema(), map[string]string{
		"title":      "Write report",
		"status":     "todo",
		"project_id": "-1",
	})

	if errs["project_id"] == "" {
		t.Fatalf("expected project_id error, got %v", errs)
	}
	if len(errs) != 1 {
		t.Errorf("expected only project_id to fail, got %v", errs)
	}
}

func TestTaskSchemaRejectsUnknownStatus(t *testing.T) {
	errs := Validate(TaskSchema(), map[string]string{
		"title":      "Write report",
		"status":     "blocked",
		"project_id": "3",
	})

	if errs["status"] == "" {
		t.Fatalf("expected status error, got %v", errs)
	}
}

func TestProjectSchema(t *testing.T) {
	if errs := Validate(ProjectSchema(), map[string]string{"name": "Launch"}); len(errs) != 0 {
		t.Errorf("valid project rejected: %v", errs)
	}
	if errs := Validate(ProjectSchema(), map[string]string{"name": "x"}); errs["name"] == "" {
		t.Errorf("one-character name accepted")
	}
}

func TestPasswordChangeSchema(t *testing.T) {
	cases := []struct {
		name    string
		current string
		next    string
		wantErr string
	}{
		{"valid", "OldPass1", "NewPass1", ""},
		{"short current", "abc", "NewPass1", "current_password"},
		{"no uppercase", "OldPass1", "newpass1", "new_password"},
		{"no digit", "OldPass1", "NewPassword", "new_password"},
		{"no lowercase", "OldPass1", "NEWPASS1", "new_password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate(PasswordChangeSchema(), map[string]string{
				"current_password": tc.current,
				"new_password":     tc.next,
			})
			if tc.wantErr == "" {
				if len(errs) != 0 {
					t.Fatalf("valid change rejected: %v", errs)
				}
				return
			}
			if errs[tc.wantErr] == "" {
				t.Fatalf("expected error for %q, got %v", tc.wantErr, errs)
			}
		})
	}
}

func TestRuleFirstFailureWins(t *testing.T) {
	errs := Validate(Schema{
		"email": {Required("email"), Email("email")},
	}, map[string]string{"email": ""})

	if errs["email"] != "email is required" {
		t.Errorf("expected the required message, got %q", errs["email"])
	}
}
