package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mschirtzinger/jobtrack/internal/csvio"
	"github.com/mschirtzinger/jobtrack/internal/session"
	"github.com/mschirtzinger/jobtrack/internal/types"
)

// fakeStore is an in-memory store.Store that records every call.
type fakeStore struct {
	mu      sync.Mutex
	rows    []types.Application
	nextID  int
	calls   []string
	inserts []types.Draft
	failOn  map[string]error
	reject  func(types.Draft) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{failOn: map[string]error{}}
}

func (f *fakeStore) record(op string) error {
	f.calls = append(f.calls, op)
	return f.failOn[op]
}

func (f *fakeStore) List(ctx context.Context, owner string) ([]types.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list"); err != nil {
		return nil, err
	}
	var out []types.Application
	for _, r := range f.rows {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(ctx context.Context, owner string, d types.Draft) (types.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, d)
	if err := f.record("insert"); err != nil {
		return types.Application{}, err
	}
	if f.reject != nil {
		if err := f.reject(d); err != nil {
			return types.Application{}, err
		}
	}
	f.nextID++
	app := types.Application{ID: fmt.Sprintf("id-%d", f.nextID), Owner: owner, Draft: d}
	f.rows = append(f.rows, app)
	return app, nil
}

func (f *fakeStore) Update(ctx context.Context, owner, id string, p types.Patch) (types.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update"); err != nil {
		return types.Application{}, err
	}
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].Owner == owner {
			p.Apply(&f.rows[i], time.Now())
			return f.rows[i], nil
		}
	}
	return types.Application{}, types.ErrNoMatch
}

func (f *fakeStore) Delete(ctx context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return err
	}
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].Owner == owner {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return types.ErrNoMatch
}

func (f *fakeStore) Analytics(ctx context.Context, owner string) (*types.Analytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("analytics"); err != nil {
		return nil, err
	}
	a := &types.Analytics{Owner: owner}
	for _, r := range f.rows {
		if r.Owner == owner {
			a.TotalApplications++
		}
	}
	if a.TotalApplications == 0 {
		return nil, nil
	}
	return a, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeStore) seed(owner string, drafts ...types.Draft) {
	for _, d := range drafts {
		f.nextID++
		f.rows = append(f.rows, types.Application{ID: fmt.Sprintf("id-%d", f.nextID), Owner: owner, Draft: d})
	}
}

func signedIn(userID string) session.Session {
	return session.Session{UserID: userID, Email: userID + "@example.com", AccessToken: "at-" + userID}
}

func newTestClient(t *testing.T, st *fakeStore, sess *session.Session) (*Client, *session.Manager) {
	t.Helper()
	m := session.NewManager()
	if sess != nil {
		m.Set(*sess)
	}
	c := New(m, st)
	t.Cleanup(c.Close)
	return c, m
}

func d(company string) types.Draft {
	return types.Draft{
		CompanyName: company,
		Position:    "Engineer",
		DateApplied: "2024-01-01",
		Status:      types.StatusApplied,
		CustomTags:  []string{},
	}
}

func ids(apps []types.Application) []string {
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.ID
	}
	return out
}

// TestUnauthenticated verifies every operation fails fast without a session
func TestUnauthenticated(t *testing.T) {
	st := newFakeStore()
	c, _ := newTestClient(t, st, nil)
	ctx := context.Background()

	if _, err := c.List(ctx); !errors.Is(err, types.ErrUnauthenticated) {
		t.Errorf("List() error = %v", err)
	}
	if _, err := c.Create(ctx, d("Acme")); !errors.Is(err, types.ErrUnauthenticated) {
		t.Errorf("Create() error = %v", err)
	}
	pos := "x"
	if _, err := c.Update(ctx, "id-1", types.Patch{Position: &pos}); !errors.Is(err, types.ErrUnauthenticated) {
		t.Errorf("Update() error = %v", err)
	}
	if err := c.Delete(ctx, "id-1"); !errors.Is(err, types.ErrUnauthenticated) {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := c.Analytics(ctx); !errors.Is(err, types.ErrUnauthenticated) {
		t.Errorf("Analytics() error = %v", err)
	}
	rows, _ := csvio.Import(strings.NewReader("Company Name,Position,Date Applied\nAcme,Eng,2024-01-01\n"))
	if _, err := c.Import(ctx, rows); !errors.Is(err, types.ErrUnauthenticated) {
		t.Errorf("Import() error = %v", err)
	}

	if n := st.callCount(); n != 0 {
		t.Errorf("store received %d calls without a session", n)
	}
	if len(c.Applications()) != 0 {
		t.Error("list changed without a session")
	}
}

func TestCreate_UnauthenticatedKeepsList(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("Acme"))
	sess := signedIn("u1")
	c, m := newTestClient(t, st, &sess)
	ctx := context.Background()

	if _, err := c.List(ctx); err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	// Expired without a refresh token: no longer valid, same identity.
	expired := sess
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	m.Set(expired)

	if _, err := c.Create(ctx, d("Globex")); !errors.Is(err, types.ErrUnauthenticated) {
		t.Fatalf("Create() error = %v, want ErrUnauthenticated", err)
	}
	if got := len(c.Applications()); got != 1 {
		t.Errorf("list length = %d, want 1", got)
	}
}

func TestList_ReplacesList(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("A"), d("B"))
	st.seed("u2", d("Other"))
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	apps, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"id-1", "id-2"}, ids(apps)); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ids(apps), ids(c.Applications())); diff != "" {
		t.Errorf("in-memory list mismatch (-want +got):\n%s", diff)
	}

	st.seed("u1", d("C"))
	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if got := len(c.Applications()); got != 3 {
		t.Errorf("list length after refresh = %d, want 3", got)
	}
}

func TestList_FailureLeavesList(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("A"))
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	boom := errors.New("connection refused")
	st.failOn["list"] = boom
	_, err := c.List(context.Background())

	var re *types.RemoteError
	if !errors.As(err, &re) || !errors.Is(err, boom) {
		t.Fatalf("List() error = %v, want RemoteError wrapping %v", err, boom)
	}
	if got := len(c.Applications()); got != 1 {
		t.Errorf("list length = %d, want 1", got)
	}
}

// TestCreate_Prepends verifies a new record goes first regardless of its date
func TestCreate_Prepends(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("A"))
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)
	ctx := context.Background()

	if _, err := c.List(ctx); err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	old := d("Old")
	old.DateApplied = "2019-01-01"
	app, err := c.Create(ctx, old)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if app.Owner != "u1" {
		t.Errorf("Owner = %q, want u1", app.Owner)
	}

	if diff := cmp.Diff([]string{app.ID, "id-1"}, ids(c.Applications())); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_FailureLeavesList(t *testing.T) {
	st := newFakeStore()
	st.failOn["insert"] = errors.New("violates check constraint")
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	_, err := c.Create(context.Background(), d("Acme"))
	if !types.IsRemote(err) {
		t.Fatalf("Create() error = %v, want RemoteError", err)
	}
	if len(c.Applications()) != 0 {
		t.Error("failed create changed the list")
	}
}

func TestUpdate_ReplacesEntry(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("A"), d("B"))
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)
	ctx := context.Background()

	if _, err := c.List(ctx); err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	status := types.StatusInterview
	app, err := c.Update(ctx, "id-2", types.Patch{Status: &status})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if app.Status != types.StatusInterview {
		t.Errorf("returned status = %q", app.Status)
	}

	got, ok := c.Lookup("id-2")
	if !ok || got.Status != types.StatusInterview {
		t.Errorf("list entry = %+v, %v", got, ok)
	}
	other, _ := c.Lookup("id-1")
	if other.Status != types.StatusApplied {
		t.Errorf("unrelated entry changed: %q", other.Status)
	}
	if diff := cmp.Diff([]string{"id-1", "id-2"}, ids(c.Applications())); diff != "" {
		t.Errorf("order changed (-want +got):\n%s", diff)
	}
}

// TestUpdate_NotOwned verifies a foreign id fails and leaves the list alone
func TestUpdate_NotOwned(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("Mine"))
	st.seed("u2", d("Theirs"))
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)
	ctx := context.Background()

	if _, err := c.List(ctx); err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	before := c.Applications()

	pos := "Hijacked"
	_, err := c.Update(ctx, "id-2", types.Patch{Position: &pos})
	if !errors.Is(err, types.ErrNoMatch) || !types.IsRemote(err) {
		t.Fatalf("Update() error = %v, want RemoteError wrapping ErrNoMatch", err)
	}
	if diff := cmp.Diff(before, c.Applications()); diff != "" {
		t.Errorf("list changed (-before +after):\n%s", diff)
	}
}

func TestUpdate_EmptyPatch(t *testing.T) {
	st := newFakeStore()
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	if _, err := c.Update(context.Background(), "id-1", types.Patch{}); err == nil {
		t.Error("Update() with empty patch should fail")
	}
	if st.callCount() != 0 {
		t.Error("empty patch reached the store")
	}
}

// TestDelete_RemovesExactlyOne covers deleting an owned entry present in the list
func TestDelete_RemovesExactlyOne(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("A"), d("B"), d("C"))
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)
	ctx := context.Background()

	if _, err := c.List(ctx); err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if err := c.Delete(ctx, "id-2"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"id-1", "id-3"}, ids(c.Applications())); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestDelete_NotOwned(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("A"))
	st.seed("u2", d("B"))
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)
	ctx := context.Background()

	if _, err := c.List(ctx); err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if err := c.Delete(ctx, "id-2"); !errors.Is(err, types.ErrNoMatch) {
		t.Errorf("Delete() error = %v, want ErrNoMatch", err)
	}
	if len(c.Applications()) != 1 {
		t.Error("list changed by failed delete")
	}
}

func TestAnalytics(t *testing.T) {
	st := newFakeStore()
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)
	ctx := context.Background()

	a, err := c.Analytics(ctx)
	if err != nil || a != nil {
		t.Errorf("Analytics() with no rows = %+v, %v, want nil, nil", a, err)
	}

	st.seed("u1", d("A"))
	a, err = c.Analytics(ctx)
	if err != nil || a == nil || a.TotalApplications != 1 {
		t.Errorf("Analytics() = %+v, %v", a, err)
	}

	st.failOn["analytics"] = errors.New("timeout")
	if _, err := c.Analytics(ctx); !types.IsRemote(err) {
		t.Errorf("Analytics() error = %v, want RemoteError", err)
	}
}

// TestSessionChange_DropsList verifies the list never outlives its owner
func TestSessionChange_DropsList(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("A"))
	sess := signedIn("u1")
	c, m := newTestClient(t, st, &sess)
	ctx := context.Background()

	if _, err := c.List(ctx); err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	// Token refresh for the same user keeps the list.
	refreshed := sess
	refreshed.AccessToken = "at-new"
	m.Set(refreshed)
	if len(c.Applications()) != 1 {
		t.Fatal("token refresh dropped the list")
	}

	m.Set(signedIn("u2"))
	if len(c.Applications()) != 0 {
		t.Error("identity change kept the previous user's list")
	}

	m.Set(sess)
	m.Clear()
	if len(c.Applications()) != 0 {
		t.Error("sign out kept the list")
	}
}

func TestClose_Unsubscribes(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("A"))
	sess := signedIn("u1")
	m := session.NewManager()
	m.Set(sess)
	c := New(m, st)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	c.Close()
	c.Close()

	m.Set(signedIn("u2"))
	if len(c.Applications()) != 1 {
		t.Error("closed client still reacted to session changes")
	}
}

func TestApplications_ReturnsCopy(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("A"))
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	apps := c.Applications()
	apps[0].CompanyName = "Mutated"

	if got, _ := c.Lookup("id-1"); got.CompanyName != "A" {
		t.Errorf("caller mutation leaked into the list: %q", got.CompanyName)
	}
}

func TestFilter(t *testing.T) {
	apps := []types.Application{
		{ID: "1", Draft: types.Draft{CompanyName: "Acme", Position: "Engineer", Status: types.StatusApplied, CustomTags: []string{"Remote"}}},
		{ID: "2", Draft: types.Draft{CompanyName: "Globex", Position: "Designer", Status: types.StatusRejected}},
		{ID: "3", Draft: types.Draft{CompanyName: "Initech", Position: "Engineer", Status: types.StatusInterview, IsArchived: true}},
		{ID: "4", Draft: types.Draft{CompanyName: "Umbrella", Position: "Analyst", Status: types.StatusWaiting, CustomTags: []string{"remote-first"}}},
	}

	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"default is active", Filter{}, []string{"1", "4"}},
		{"all", Filter{Scope: ScopeAll}, []string{"1", "2", "3", "4"}},
		{"search company", Filter{Scope: ScopeAll, Search: "glob"}, []string{"2"}},
		{"search position", Filter{Scope: ScopeAll, Search: "ENGINEER"}, []string{"1", "3"}},
		{"search tags", Filter{Search: "remote"}, []string{"1", "4"}},
		{"no match", Filter{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ids(tt.f.Apply(apps))); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseScope(t *testing.T) {
	if s, err := ParseScope(" ALL "); err != nil || s != ScopeAll {
		t.Errorf("ParseScope(ALL) = %q, %v", s, err)
	}
	if _, err := ParseScope("archived"); err == nil {
		t.Error("ParseScope(archived) should fail")
	}
}

const importHeader = "Company Name,Position,Date Applied,Status,Notes,Recontact Date,Custom Tags,Is Archived\n"

// TestImport_HeaderOnly issues no creates for a file without data rows
func TestImport_HeaderOnly(t *testing.T) {
	st := newFakeStore()
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	res, err := c.ImportCSV(context.Background(), strings.NewReader(importHeader))
	if err != nil {
		t.Fatalf("ImportCSV() failed: %v", err)
	}
	if res.Created != 0 || len(st.inserts) != 0 {
		t.Errorf("created %d, inserts %d, want 0", res.Created, len(st.inserts))
	}
	if res.Message() != "Successfully imported 0 applications" {
		t.Errorf("Message() = %q", res.Message())
	}
}

// TestImport_SingleRow checks the exact draft sent for a fully populated row
func TestImport_SingleRow(t *testing.T) {
	st := newFakeStore()
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	res, err := c.ImportCSV(context.Background(), strings.NewReader(importHeader+"Acme,Engineer,2024-01-01,Waiting,,,,\n"))
	if err != nil {
		t.Fatalf("ImportCSV() failed: %v", err)
	}
	if res.Created != 1 {
		t.Fatalf("Created = %d, want 1", res.Created)
	}

	want := []types.Draft{{
		CompanyName: "Acme",
		Position:    "Engineer",
		DateApplied: "2024-01-01",
		Status:      types.StatusWaiting,
		Notes:       types.String(""),
		CustomTags:  []string{},
		IsArchived:  false,
	}}
	if diff := cmp.Diff(want, st.inserts); diff != "" {
		t.Errorf("insert mismatch (-want +got):\n%s", diff)
	}
	if st.inserts[0].RecontactDate != nil {
		t.Error("recontact_date should be null")
	}
	if got := len(c.Applications()); got != 1 {
		t.Errorf("list length = %d, want 1", got)
	}
}

// TestImport_BestEffort continues past a rejected row
func TestImport_BestEffort(t *testing.T) {
	st := newFakeStore()
	st.reject = func(d types.Draft) error {
		if !d.Status.Valid() {
			return errors.New("violates check constraint \"applications_status_check\"")
		}
		return nil
	}
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	in := importHeader +
		"A,Eng,2024-01-01,Applied,,,,\n" +
		"B,Eng,2024-01-02,Pending,,,,\n" +
		",Eng,2024-01-03,Applied,,,,\n" +
		"C,Eng,2024-01-04,Interview,,,,\n"

	res, err := c.ImportCSV(context.Background(), strings.NewReader(in))
	if err != nil {
		t.Fatalf("ImportCSV() failed: %v", err)
	}

	if res.Created != 2 || res.Failed != 1 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 2 created, 1 failed, 1 skipped", res)
	}
	if len(res.Errors) != 1 || !types.IsRemote(res.Errors[0]) {
		t.Errorf("Errors = %v", res.Errors)
	}
	if len(st.inserts) != 3 {
		t.Errorf("inserts = %d, want 3 (unvalidated status is still submitted)", len(st.inserts))
	}
	if st.inserts[1].Status != "Pending" {
		t.Errorf("second insert status = %q, want Pending", st.inserts[1].Status)
	}

	// Sequential creates prepend, so the last imported row comes first.
	var companies []string
	for _, a := range c.Applications() {
		companies = append(companies, a.CompanyName)
	}
	if diff := cmp.Diff([]string{"C", "A"}, companies); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_ParseErrorBeforeCreates(t *testing.T) {
	st := newFakeStore()
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	_, err := c.ImportCSV(context.Background(), strings.NewReader(importHeader+"A,Eng,2024-01-01,,,,,\n\"broken,x\n"))
	var pe *types.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("ImportCSV() error = %v, want ParseError", err)
	}
	if len(st.inserts) != 0 {
		t.Errorf("inserts = %d, want 0", len(st.inserts))
	}
	if msg := FailureMessage(err); !strings.HasPrefix(msg, "Import failed: CSV parsing error") {
		t.Errorf("FailureMessage() = %q", msg)
	}
}

func TestImport_StopsOnCancel(t *testing.T) {
	st := newFakeStore()
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ImportCSV(ctx, strings.NewReader(importHeader+"A,Eng,2024-01-01,,,,,\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ImportCSV() error = %v, want context.Canceled", err)
	}
	if len(st.inserts) != 0 {
		t.Error("create issued after cancellation")
	}
}

// TestImport_StopsWhenSessionLost ends the batch once the caller is signed
// out instead of failing every remaining row
func TestImport_StopsWhenSessionLost(t *testing.T) {
	st := newFakeStore()
	sess := signedIn("u1")
	c, m := newTestClient(t, st, &sess)
	st.reject = func(types.Draft) error {
		m.Clear()
		return nil
	}

	in := importHeader +
		"A,Eng,2024-01-01,Applied,,,,\n" +
		"B,Eng,2024-01-02,Applied,,,,\n" +
		"C,Eng,2024-01-03,Applied,,,,\n"

	res, err := c.ImportCSV(context.Background(), strings.NewReader(in))
	if !errors.Is(err, types.ErrUnauthenticated) {
		t.Fatalf("ImportCSV() error = %v, want ErrUnauthenticated", err)
	}
	if res.Created != 1 || res.Failed != 0 {
		t.Errorf("result = %+v, want 1 created, 0 failed", res)
	}
	if len(st.inserts) != 1 {
		t.Errorf("inserts = %d, want 1", len(st.inserts))
	}
}

func TestExportMatchesFilteredView(t *testing.T) {
	st := newFakeStore()
	st.seed("u1", d("Acme"))
	rejected := d("Globex")
	rejected.Status = types.StatusRejected
	st.seed("u1", rejected)
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := c.Export(&buf, c.Filtered(Filter{})); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Acme") || strings.Contains(out, "Globex") {
		t.Errorf("export of active view = %q", out)
	}
}

func TestResolve(t *testing.T) {
	st := newFakeStore()
	st.rows = []types.Application{
		{ID: "abc123", Owner: "u1", Draft: d("A")},
		{ID: "abd456", Owner: "u1", Draft: d("B")},
		{ID: "ab", Owner: "u1", Draft: d("C")},
	}
	sess := signedIn("u1")
	c, _ := newTestClient(t, st, &sess)
	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	if a, err := c.Resolve("ABC"); err != nil || a.ID != "abc123" {
		t.Errorf("Resolve(ABC) = %q, %v", a.ID, err)
	}
	if a, err := c.Resolve("ab"); err != nil || a.ID != "ab" {
		t.Errorf("Resolve(ab) exact match = %q, %v", a.ID, err)
	}
	if _, err := c.Resolve("abd456"); err != nil {
		t.Errorf("Resolve(full id) failed: %v", err)
	}
	if _, err := c.Resolve("zz"); !errors.Is(err, ErrUnknownID) {
		t.Errorf("Resolve(zz) error = %v, want ErrUnknownID", err)
	}
	if _, err := c.Resolve(""); !errors.Is(err, ErrUnknownID) {
		t.Errorf("Resolve(\"\") error = %v, want ErrUnknownID", err)
	}

	st.rows = append(st.rows, types.Application{ID: "abc999", Owner: "u1", Draft: d("D")})
	c.List(context.Background())
	if _, err := c.Resolve("abc"); !errors.Is(err, ErrAmbiguousID) {
		t.Errorf("Resolve(abc) error = %v, want ErrAmbiguousID", err)
	}
}
