package store

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/leadconsole/internal/apitest"
	"github.com/alfredjeanlab/leadconsole/internal/client"
	"github.com/alfredjeanlab/leadconsole/internal/events"
	"github.com/alfredjeanlab/leadconsole/internal/model"
)

func seedLeads() []model.Lead {
	return []model.Lead{
		{ID: "1", Name: "A", Email: "a@x.com", Status: model.StatusNew, AIMessage: "hi"},
		{ID: "2", Name: "Bob", Email: "bob@corp.io", Status: model.StatusContacted, AIMessage: "call back"},
		{ID: "3", Name: "Cara", Email: "cara@x.com", Status: model.StatusLost, AIMessage: "no budget"},
	}
}

// newTestStore starts a fake API seeded with leads and returns a loaded store.
func newTestStore(t *testing.T, seed ...model.Lead) (*Store, *apitest.Server, *events.Recorder) {
	t.Helper()
	srv := apitest.NewServer(seed...)
	t.Cleanup(srv.Close)
	rec := &events.Recorder{}
	s := New(client.NewHTTPClient(srv.URL), WithPublisher(rec))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s, srv, rec
}

func snapshotIDs(s *Store) []string {
	var ids []string
	for _, l := range s.Snapshot() {
		ids = append(ids, l.ID)
	}
	return ids
}

var declined = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })

// --- Load ---

func TestLoad_ReplacesSnapshot(t *testing.T) {
	s, srv, rec := newTestStore(t, seedLeads()...)

	if got := snapshotIDs(s); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Fatalf("snapshot = %v, want [1 2 3]", got)
	}

	// Remote changes behind our back; a reload discards the old snapshot.
	if _, err := client.NewHTTPClient(srv.URL).CreateLead(context.Background(),
		model.Lead{Name: "D", Email: "d@x.com", Status: model.StatusNew, AIMessage: "yo"}); err != nil {
		t.Fatalf("seeding remote: %v", err)
	}
	if err := client.NewHTTPClient(srv.URL).DeleteLead(context.Background(), "1"); err != nil {
		t.Fatalf("seeding remote: %v", err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if _, ok := s.Get("1"); ok {
		t.Error("lead 1 still present after reload")
	}
	if got := rec.Topics(); len(got) != 2 || got[1] != events.TopicSnapshotLoaded {
		t.Errorf("topics = %v, want two snapshot.loaded events", got)
	}
}

func TestLoad_FailureKeepsSnapshot(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	before := s.Snapshot()

	srv.Fail(apitest.RouteList, http.StatusInternalServerError, "db down")
	err := s.Load(context.Background())
	var re *client.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("Load() error = %v, want *client.RemoteError", err)
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Error("snapshot changed after failed load")
	}
}

func TestLoad_FirstLoadFailureLeavesEmpty(t *testing.T) {
	srv := apitest.NewServer(seedLeads()...)
	defer srv.Close()
	srv.Fail(apitest.RouteList, http.StatusBadGateway, "upstream")

	s := New(client.NewHTTPClient(srv.URL))
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

// fakeClient is a LeadClient with canned results for cases the fake API
// cannot produce.
type fakeClient struct {
	client.LeadClient
	list    []model.Lead
	created *model.Lead
	updated *model.Lead
	calls   int
}

func (f *fakeClient) ListLeads(context.Context) ([]model.Lead, error) {
	f.calls++
	return f.list, nil
}

func (f *fakeClient) CreateLead(context.Context, model.Lead) (*model.Lead, error) {
	f.calls++
	return f.created, nil
}

func (f *fakeClient) UpdateLead(context.Context, string, model.Lead) (*model.Lead, error) {
	f.calls++
	return f.updated, nil
}

func TestLoad_DropsMissingAndDuplicateIDs(t *testing.T) {
	fc := &fakeClient{list: []model.Lead{
		{ID: "1", Name: "first"},
		{Name: "no id"},
		{ID: "1", Name: "dup"},
		{ID: "2", Name: "second"},
	}}
	s := New(fc)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := snapshotIDs(s); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("snapshot = %v, want [1 2]", got)
	}
	if l, _ := s.Get("1"); l.Name != "first" {
		t.Errorf("lead 1 = %q, want first occurrence", l.Name)
	}
}

// --- Create ---

func TestCreate_AppendsServerLead(t *testing.T) {
	s, srv, rec := newTestStore(t, seedLeads()...)
	before := s.Len()

	draft := model.Lead{Name: "B", Email: "b@x.com", Status: model.StatusNew, AIMessage: "hi"}
	created, err := s.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("created lead has no id")
	}
	if s.Len() != before+1 {
		t.Errorf("Len() = %d, want %d", s.Len(), before+1)
	}
	got, ok := s.Get(created.ID)
	if !ok || got != created {
		t.Errorf("Get(%s) = %+v, %v; want %+v", created.ID, got, ok, created)
	}
	snap := s.Snapshot()
	if snap[len(snap)-1].ID != created.ID {
		t.Error("created lead not appended at the end")
	}
	if len(srv.Leads()) != before+1 {
		t.Errorf("remote has %d leads, want %d", len(srv.Leads()), before+1)
	}
	if topics := rec.Topics(); topics[len(topics)-1] != events.TopicLeadCreated {
		t.Errorf("last topic = %q, want %q", topics[len(topics)-1], events.TopicLeadCreated)
	}
}

func TestCreate_ValidationNeverCallsRemote(t *testing.T) {
	for _, draft := range []model.Lead{
		{Name: "B", Email: "", Status: model.StatusNew, AIMessage: "hi"},
		{Name: "", Email: "b@x.com", Status: model.StatusNew, AIMessage: "hi"},
		{Name: "B", Email: "b@x.com", Status: "", AIMessage: "hi"},
		{Name: "B", Email: "b@x.com", Status: model.StatusNew, AIMessage: ""},
		{},
	} {
		s, srv, _ := newTestStore(t, seedLeads()...)
		before := s.Snapshot()
		callsBefore := srv.TotalCalls()

		_, err := s.Create(context.Background(), draft)
		var ve *model.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Create(%+v) error = %v, want *model.ValidationError", draft, err)
		}
		if srv.TotalCalls() != callsBefore {
			t.Errorf("Create(%+v) issued %d network calls", draft, srv.TotalCalls()-callsBefore)
		}
		if !reflect.DeepEqual(s.Snapshot(), before) {
			t.Errorf("Create(%+v) mutated the snapshot", draft)
		}
	}
}

func TestCreate_BlankButPresentFieldReachesRemote(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)

	draft := model.Lead{Name: " ", Email: "b@x.com", Status: model.StatusNew, AIMessage: "hi"}
	created, err := s.Create(context.Background(), draft)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if srv.Calls(apitest.RouteCreate) != 1 {
		t.Errorf("create calls = %d, want 1", srv.Calls(apitest.RouteCreate))
	}
	if s.Len() != 4 || created.Name != " " {
		t.Errorf("Len() = %d, created = %+v", s.Len(), created)
	}
}

func TestCreate_RemoteFailure(t *testing.T) {
	s, srv, rec := newTestStore(t, seedLeads()...)
	before := s.Snapshot()
	srv.Fail(apitest.RouteCreate, http.StatusBadRequest, "Email already exists")

	_, err := s.Create(context.Background(), model.Lead{Name: "B", Email: "a@x.com", Status: model.StatusNew, AIMessage: "hi"})
	var re *client.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *client.RemoteError", err)
	}
	if re.Message != "Email already exists" {
		t.Errorf("message = %q", re.Message)
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Error("snapshot changed after failed create")
	}
	if n := len(rec.Topics()); n != 1 {
		t.Errorf("published %d events, want only the initial load", n)
	}
}

func TestCreate_ServerOmitsID(t *testing.T) {
	fc := &fakeClient{created: &model.Lead{Name: "B"}}
	s := New(fc)
	_, err := s.Create(context.Background(), model.Lead{Name: "B", Email: "b@x.com", Status: model.StatusNew, AIMessage: "hi"})
	var te *client.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *client.TransportError", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestCreate_ExistingIDReplacesInPlace(t *testing.T) {
	fc := &fakeClient{
		list:    seedLeads(),
		created: &model.Lead{ID: "2", Name: "B2", Email: "b@x.com", Status: model.StatusNew, AIMessage: "hi"},
	}
	s := New(fc)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := s.Create(context.Background(), model.Lead{Name: "B2", Email: "b@x.com", Status: model.StatusNew, AIMessage: "hi"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := snapshotIDs(s); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("snapshot = %v, want ids unique", got)
	}
	if l, _ := s.Get("2"); l.Name != "B2" {
		t.Errorf("lead 2 = %+v, want replaced", l)
	}
}

// --- Update ---

func TestUpdate_ReplacesWithServerLead(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	srv.SetNormalize(func(l model.Lead) model.Lead {
		l.Email = strings.ToLower(l.Email)
		return l
	})
	before := s.Len()

	lead, _ := s.Get("2")
	lead.Status = model.StatusQualified
	lead.Email = "BOB@CORP.IO"
	updated, err := s.Update(context.Background(), lead)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Email != "bob@corp.io" {
		t.Errorf("updated.Email = %q, want server-normalized", updated.Email)
	}
	if s.Len() != before {
		t.Errorf("Len() = %d, want %d", s.Len(), before)
	}
	got, _ := s.Get("2")
	if got != updated {
		t.Errorf("snapshot entry = %+v, want %+v", got, updated)
	}
	if got := snapshotIDs(s); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("order changed: %v", got)
	}
}

func TestUpdate_RemoteFailure(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	before := s.Snapshot()
	srv.Fail(apitest.RouteUpdate, http.StatusInternalServerError, "boom")

	lead, _ := s.Get("1")
	lead.Name = "changed"
	if _, err := s.Update(context.Background(), lead); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Error("snapshot changed after failed update")
	}
}

func TestUpdate_RequiresID(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	calls := srv.TotalCalls()
	_, err := s.Update(context.Background(), model.Lead{Name: "x"})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *model.ValidationError", err)
	}
	if srv.TotalCalls() != calls {
		t.Error("update without id reached the network")
	}
}

func TestUpdate_EntryGoneLeavesSnapshot(t *testing.T) {
	fc := &fakeClient{updated: &model.Lead{ID: "9", Name: "ghost"}}
	s := New(fc)
	if _, err := s.Update(context.Background(), model.Lead{ID: "9", Name: "ghost"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestUpdate_KeepsRequestedID(t *testing.T) {
	fc := &fakeClient{list: seedLeads(), updated: &model.Lead{ID: "3", Name: "renamed"}}
	s := New(fc)
	_ = s.Load(context.Background())

	updated, err := s.Update(context.Background(), model.Lead{ID: "1", Name: "renamed"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ID != "1" {
		t.Errorf("updated.ID = %q, want 1", updated.ID)
	}
	if got := snapshotIDs(s); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("snapshot = %v, want ids unique", got)
	}
}

// --- Remove ---

func TestRemove_Confirmed(t *testing.T) {
	s, srv, rec := newTestStore(t, seedLeads()...)

	var asked string
	confirm := ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		asked = prompt
		return true, nil
	})
	if err := s.Remove(context.Background(), "2", confirm); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if asked != DeletePrompt {
		t.Errorf("prompt = %q, want %q", asked, DeletePrompt)
	}
	if got := snapshotIDs(s); !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Errorf("snapshot = %v, want [1 3]", got)
	}
	if srv.Calls(apitest.RouteDelete) != 1 {
		t.Errorf("delete calls = %d, want 1", srv.Calls(apitest.RouteDelete))
	}
	if topics := rec.Topics(); topics[len(topics)-1] != events.TopicLeadDeleted {
		t.Errorf("last topic = %q", topics[len(topics)-1])
	}
}

func TestRemove_Declined(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	before := s.Snapshot()

	err := s.Remove(context.Background(), "2", declined)
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("error = %v, want ErrNotConfirmed", err)
	}
	if srv.Calls(apitest.RouteDelete) != 0 {
		t.Error("declined delete reached the network")
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Error("snapshot changed after declined delete")
	}
}

func TestRemove_ConfirmError(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	boom := errors.New("no tty")
	err := s.Remove(context.Background(), "2", ConfirmFunc(func(context.Context, string) (bool, error) {
		return false, boom
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
	if srv.Calls(apitest.RouteDelete) != 0 {
		t.Error("delete reached the network")
	}
}

func TestRemove_NilConfirmer(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	if err := s.Remove(context.Background(), "2", nil); err == nil {
		t.Fatal("expected error")
	}
	if srv.Calls(apitest.RouteDelete) != 0 {
		t.Error("delete reached the network")
	}
}

func TestRemove_UnknownIDIsNoop(t *testing.T) {
	// The remote answers 404 for an unknown id; the snapshot is untouched
	// either way.
	s, _, _ := newTestStore(t, seedLeads()...)
	before := s.Snapshot()

	_ = s.Remove(context.Background(), "nope", Always)
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Error("snapshot changed removing an unknown id")
	}
}

func TestRemove_RemoteFailure(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	before := s.Snapshot()
	srv.Fail(apitest.RouteDelete, http.StatusForbidden, "not allowed")

	err := s.Remove(context.Background(), "1", Always)
	var re *client.RemoteError
	if !errors.As(err, &re) || re.StatusCode != http.StatusForbidden {
		t.Fatalf("error = %v, want 403 RemoteError", err)
	}
	if !reflect.DeepEqual(s.Snapshot(), before) {
		t.Error("snapshot changed after failed delete")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s, _, _ := newTestStore(t, seedLeads()...)
	snap := s.Snapshot()
	snap[0].Name = "mutated"
	if l, _ := s.Get("1"); l.Name != "A" {
		t.Errorf("store entry changed through Snapshot(): %+v", l)
	}
}

// --- Per-id serialization ---

// parkFirst blocks the first request to route until release is closed and
// reports on started once it is parked.
func parkFirst(srv *apitest.Server, route string) (started, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	srv.OnRequest(func(r string) {
		if r != route {
			return
		}
		once.Do(func() {
			close(started)
			<-release
		})
	})
	return started, release
}

func TestUpdateThenRemove_SameIDSerialized(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	started, release := parkFirst(srv, apitest.RouteUpdate)

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		lead, _ := s.Get("2")
		lead.Name = "renamed"
		if _, err := s.Update(ctx, lead); err != nil {
			t.Errorf("Update() error = %v", err)
		}
	}()
	<-started

	go func() {
		defer wg.Done()
		if err := s.Remove(ctx, "2", Always); err != nil {
			t.Errorf("Remove() error = %v", err)
		}
	}()

	time.Sleep(50 * time.Millisecond)
	if n := srv.Calls(apitest.RouteDelete); n != 0 {
		t.Fatalf("delete reached the server while an update on the same id was in flight (%d calls)", n)
	}
	close(release)
	wg.Wait()

	if _, ok := s.Get("2"); ok {
		t.Error("lead 2 present after update-then-delete")
	}
	if s.locks.size() != 0 {
		t.Errorf("lock table holds %d entries after completion", s.locks.size())
	}
}

func TestUpdateAndRemove_DifferentIDsConcurrent(t *testing.T) {
	s, srv, _ := newTestStore(t, seedLeads()...)
	started, release := parkFirst(srv, apitest.RouteUpdate)
	defer close(release)

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		lead, _ := s.Get("1")
		_, _ = s.Update(ctx, lead)
	}()
	<-started

	if err := s.Remove(ctx, "3", Always); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := s.Get("3"); ok {
		t.Error("lead 3 still present")
	}
	release <- struct{}{}
	<-done
}
