package edit

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/alfredjeanlab/leadconsole/internal/apitest"
	"github.com/alfredjeanlab/leadconsole/internal/client"
	"github.com/alfredjeanlab/leadconsole/internal/model"
	"github.com/alfredjeanlab/leadconsole/internal/store"
)

var ada = model.Lead{ID: "1", Name: "Ada", Email: "ada@x.com", Status: model.StatusNew, AIMessage: "hi"}

func newTestSession(t *testing.T, seed ...model.Lead) (*Session, *store.Store, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer(seed...)
	t.Cleanup(srv.Close)
	st := store.New(client.NewHTTPClient(srv.URL))
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return NewSession(st), st, srv
}

func fill(t *testing.T, s *Session, values map[model.Field]string) {
	t.Helper()
	for f, v := range values {
		if err := s.SetField(f, v); err != nil {
			t.Fatalf("SetField(%s) error = %v", f, err)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	s, _, _ := newTestSession(t)

	if s.State() != Idle {
		t.Fatalf("initial state = %v", s.State())
	}
	if err := s.SetField(model.FieldName, "x"); !errors.Is(err, ErrIdle) {
		t.Errorf("SetField while idle = %v, want ErrIdle", err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrIdle) {
		t.Errorf("Submit while idle = %v, want ErrIdle", err)
	}

	if err := s.OpenNew(); err != nil {
		t.Fatalf("OpenNew() error = %v", err)
	}
	if s.State() != DraftingNew {
		t.Errorf("state = %v, want drafting-new", s.State())
	}
	if err := s.OpenNew(); !errors.Is(err, ErrBusy) {
		t.Errorf("second OpenNew() = %v, want ErrBusy", err)
	}
	if err := s.OpenExisting(ada); !errors.Is(err, ErrBusy) {
		t.Errorf("OpenExisting while drafting = %v, want ErrBusy", err)
	}

	s.Cancel()
	if s.State() != Idle || s.Buffer() != (model.Lead{}) {
		t.Errorf("after Cancel: state %v buffer %+v", s.State(), s.Buffer())
	}

	if err := s.OpenExisting(ada); err != nil {
		t.Fatalf("OpenExisting() error = %v", err)
	}
	if s.State() != EditingExisting {
		t.Errorf("state = %v, want editing-existing", s.State())
	}
}

func TestOpenExisting_RequiresID(t *testing.T) {
	s, _, _ := newTestSession(t)
	err := s.OpenExisting(model.Lead{Name: "no id"})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *model.ValidationError", err)
	}
	if s.State() != Idle {
		t.Errorf("state = %v, want idle", s.State())
	}
}

func TestSetField_UnknownField(t *testing.T) {
	s, _, _ := newTestSession(t)
	_ = s.OpenNew()
	if err := s.SetField("phone", "555"); err == nil {
		t.Error("expected error for unknown field")
	}
}

// Buffer edits never touch the store's snapshot.
func TestBufferIsACopy(t *testing.T) {
	s, st, srv := newTestSession(t, ada)

	orig, _ := st.Get("1")
	if err := s.OpenExisting(orig); err != nil {
		t.Fatal(err)
	}
	fill(t, s, map[model.Field]string{model.FieldName: "Changed", model.FieldStatus: "lost"})

	if got, _ := st.Get("1"); got != ada {
		t.Errorf("snapshot entry changed to %+v", got)
	}
	if got := s.Buffer(); got.Name != "Changed" || got.Status != model.StatusLost {
		t.Errorf("buffer = %+v", got)
	}

	s.Cancel()
	if got, _ := st.Get("1"); got != ada {
		t.Errorf("snapshot entry changed after cancel: %+v", got)
	}
	if srv.Calls(apitest.RouteUpdate) != 0 {
		t.Error("cancel reached the network")
	}
}

func TestSubmitNew(t *testing.T) {
	s, st, _ := newTestSession(t)
	_ = s.OpenNew()
	fill(t, s, map[model.Field]string{
		model.FieldName:      "Bo",
		model.FieldEmail:     "bo@x.com",
		model.FieldStatus:    "contacted",
		model.FieldAIMessage: "hello",
	})

	saved, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if saved.ID == "" {
		t.Error("saved lead has no id")
	}
	if s.State() != Idle || s.Buffer() != (model.Lead{}) {
		t.Errorf("after submit: state %v buffer %+v", s.State(), s.Buffer())
	}
	if got, ok := st.Get(saved.ID); !ok || got.Name != "Bo" {
		t.Errorf("store entry = %+v, %v", got, ok)
	}
}

func TestSubmitNew_Incomplete(t *testing.T) {
	s, st, srv := newTestSession(t)
	_ = s.OpenNew()
	fill(t, s, map[model.Field]string{model.FieldName: "Bo", model.FieldEmail: "bo@x.com"})

	_, err := s.Submit(context.Background())
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Message != model.MsgFillAllFields {
		t.Fatalf("error = %v, want %q", err, model.MsgFillAllFields)
	}
	if srv.Calls(apitest.RouteCreate) != 0 {
		t.Error("invalid draft reached the network")
	}
	if s.State() != DraftingNew || s.Buffer().Name != "Bo" {
		t.Errorf("draft not kept: %v %+v", s.State(), s.Buffer())
	}
	if st.Len() != 0 {
		t.Errorf("snapshot length = %d", st.Len())
	}
}

func TestSubmitExisting(t *testing.T) {
	s, st, _ := newTestSession(t, ada)
	_ = s.OpenExisting(ada)
	fill(t, s, map[model.Field]string{model.FieldStatus: "qualified"})

	saved, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if saved.Status != model.StatusQualified {
		t.Errorf("saved = %+v", saved)
	}
	if got, _ := st.Get("1"); got.Status != model.StatusQualified {
		t.Errorf("store entry = %+v", got)
	}
	if s.State() != Idle {
		t.Errorf("state = %v, want idle", s.State())
	}
}

func TestSubmitExisting_RemoteFailureKeepsBuffer(t *testing.T) {
	s, st, srv := newTestSession(t, ada)
	srv.Fail(apitest.RouteUpdate, http.StatusInternalServerError, "boom")
	_ = s.OpenExisting(ada)
	fill(t, s, map[model.Field]string{model.FieldName: "Ada L."})

	_, err := s.Submit(context.Background())
	var re *client.RemoteError
	if !errors.As(err, &re) || re.StatusCode != http.StatusInternalServerError {
		t.Fatalf("error = %v, want 500 RemoteError", err)
	}
	if s.State() != EditingExisting || s.Buffer().Name != "Ada L." {
		t.Errorf("buffer not kept: %v %+v", s.State(), s.Buffer())
	}
	if got, _ := st.Get("1"); got != ada {
		t.Errorf("snapshot changed to %+v", got)
	}

	srv.Recover(apitest.RouteUpdate)
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("resubmit error = %v", err)
	}
	if got, _ := st.Get("1"); got.Name != "Ada L." {
		t.Errorf("after resubmit: %+v", got)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Idle:            "idle",
		DraftingNew:     "drafting-new",
		EditingExisting: "editing-existing",
		State(9):        "State(9)",
	}
	for st, want := range tests {
		if got := st.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(st), got, want)
		}
	}
}
