package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

func TestNewApplicationModel(t *testing.T) {
	d := types.Draft{
		CompanyName:   "Acme",
		Position:      "Engineer",
		DateApplied:   "2024-01-01",
		RecontactDate: types.String("2024-02-01"),
	}

	m, err := newApplicationModel("u1", d)
	if err != nil {
		t.Fatalf("newApplicationModel() failed: %v", err)
	}
	if m.UserID != "u1" || m.ID != "" {
		t.Errorf("identity = %q/%q", m.ID, m.UserID)
	}
	if m.Status != "Applied" {
		t.Errorf("Status = %q, want Applied default", m.Status)
	}
	if !m.DateApplied.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateApplied = %v", m.DateApplied)
	}
	if m.RecontactDate == nil || m.RecontactDate.Format(types.DateLayout) != "2024-02-01" {
		t.Errorf("RecontactDate = %v", m.RecontactDate)
	}
	if m.CustomTags == nil {
		t.Error("CustomTags = nil, want empty array")
	}
}

func TestNewApplicationModel_BadDate(t *testing.T) {
	if _, err := newApplicationModel("u1", types.Draft{CompanyName: "A", Position: "B", DateApplied: "yesterday"}); err == nil {
		t.Error("newApplicationModel() should reject a non-ISO date")
	}
	d := types.Draft{CompanyName: "A", Position: "B", DateApplied: "2024-01-01", RecontactDate: types.String("soon")}
	if _, err := newApplicationModel("u1", d); err == nil {
		t.Error("newApplicationModel() should reject a non-ISO recontact date")
	}
}

func TestApplicationModel_Application(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	rc := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	m := applicationModel{
		ID:            "a1",
		UserID:        "u1",
		CompanyName:   "Acme",
		Position:      "Engineer",
		DateApplied:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:        "Ghosted",
		RecontactDate: &rc,
		CustomTags:    pq.StringArray{"Remote"},
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	want := types.Application{
		ID:    "a1",
		Owner: "u1",
		Draft: types.Draft{
			CompanyName:   "Acme",
			Position:      "Engineer",
			DateApplied:   "2024-01-01",
			Status:        types.DefaultStatus,
			RecontactDate: types.String("2024-02-01"),
			CustomTags:    []string{"Remote"},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
	if diff := cmp.Diff(want, m.application()); diff != "" {
		t.Errorf("application() mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchValues(t *testing.T) {
	tags := []string{"a"}
	p := types.Patch{
		CustomTags:    &tags,
		RecontactDate: types.SetTo(""),
		Notes:         types.SetNull[string](),
	}
	values := patchValues(p)

	if _, ok := values["custom_tags"].(pq.StringArray); !ok {
		t.Errorf("custom_tags = %T, want pq.StringArray", values["custom_tags"])
	}
	if v, ok := values["recontact_date"]; !ok || v != nil {
		t.Errorf("recontact_date = %v, want nil", v)
	}
	if v, ok := values["notes"]; !ok || v != nil {
		t.Errorf("notes = %v, want nil", v)
	}
}

func TestOpen_RequiresDSN(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") should fail")
	}
}

// TestLive_Postgres runs the adapter against a real database.
// Set JT_TEST_POSTGRES_DSN to enable it.
func TestLive_Postgres(t *testing.T) {
	dsn := os.Getenv("JT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("JT_TEST_POSTGRES_DSN not set")
	}

	st, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	owner := uuid.NewString()
	other := uuid.NewString()

	app, err := st.Insert(ctx, owner, types.Draft{
		CompanyName: "Acme",
		Position:    "Engineer",
		DateApplied: "2024-01-01",
		Status:      types.StatusInterview,
		CustomTags:  []string{"Remote", "Full-time"},
	})
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	if app.ID == "" || app.Owner != owner {
		t.Fatalf("Insert() identity = %q/%q", app.ID, app.Owner)
	}
	t.Cleanup(func() { st.Delete(ctx, owner, app.ID) })

	if _, err := st.Insert(ctx, owner, types.Draft{CompanyName: "A", Position: "B", DateApplied: "2024-01-01", Status: "Pending"}); err == nil {
		t.Error("Insert() with unknown status should fail")
	}

	apps, err := st.List(ctx, owner)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(apps) != 1 || apps[0].ID != app.ID {
		t.Fatalf("List() = %+v", apps)
	}
	if diff := cmp.Diff([]string{"Remote", "Full-time"}, apps[0].CustomTags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	archived := true
	updated, err := st.Update(ctx, owner, app.ID, types.Patch{IsArchived: &archived, Notes: types.SetTo("called")})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if !updated.IsArchived || updated.NotesText() != "called" {
		t.Errorf("Update() = %+v", updated.Draft)
	}

	if _, err := st.Update(ctx, other, app.ID, types.Patch{IsArchived: &archived}); !errors.Is(err, types.ErrNoMatch) {
		t.Errorf("Update() as other owner error = %v, want ErrNoMatch", err)
	}

	a, err := st.Analytics(ctx, owner)
	if err != nil {
		t.Fatalf("Analytics() failed: %v", err)
	}
	if a == nil || a.TotalApplications != 1 || a.ActiveApplications != 0 {
		t.Errorf("Analytics() = %+v", a)
	}

	if err := st.Delete(ctx, owner, app.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := st.Delete(ctx, owner, app.ID); !errors.Is(err, types.ErrNoMatch) {
		t.Errorf("second Delete() error = %v, want ErrNoMatch", err)
	}
}
