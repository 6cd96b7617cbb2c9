package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"connectrpc.com/connect"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/worklog/internal/api"
	"github.com/mmynk/worklog/internal/auth"
	"github.com/mmynk/worklog/internal/changefeed"
	"github.com/mmynk/worklog/internal/middleware"
	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/service"
	"github.com/mmynk/worklog/internal/storage/sqlite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

type backend struct {
	store *sqlite.SQLiteStore
	url   string
	calls atomic.Int64
	http  *http.Client
}

// startBackend runs the real services on a temp database and counts every
// request that reaches the server.
func startBackend(t *testing.T) *backend {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "client.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	recordSvc := service.NewRecordService(store, changefeed.NewHub(nil), nil)
	authSvc := service.NewAuthService(
		auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost), nil, store, jwtManager, nil)
	interceptors := connect.WithInterceptors(
		middleware.NewAuthInterceptor(jwtManager,
			api.CreateRecordProcedure, api.UpdateRecordProcedure, api.DeleteRecordProcedure),
	)

	b := &backend{store: store, http: &http.Client{Transport: &http.Transport{}}}
	mux := http.NewServeMux()
	mux.Handle(api.NewRecordServiceHandler(recordSvc, interceptors))
	mux.Handle(api.NewAuthServiceHandler(authSvc, interceptors))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		mux.ServeHTTP(w, r)
	}))
	b.url = server.URL

	t.Cleanup(func() {
		recordSvc.Shutdown()
		server.Close()
		b.http.CloseIdleConnections()
		store.Close()
	})
	return b
}

func (b *backend) client(t *testing.T) *Client {
	t.Helper()
	return New(b.url, &MemorySession{}, WithHTTPClient(b.http))
}

// signedIn returns a client with a fresh registered account.
func (b *backend) signedIn(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	if err := b.store.CreateApprovalCode(ctx, &models.ApprovalCode{Code: "welcome"}); err != nil {
		t.Fatalf("CreateApprovalCode failed: %v", err)
	}
	c := b.client(t)
	if _, err := c.Register(ctx, "kim@example.com", "secret1", "Kim", "welcome"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return c
}

func ptr[T any](v T) *T { return &v }

func validInput() models.RecordInput {
	return models.RecordInput{
		Date:           models.NewDate(2024, time.March, 5),
		Name:           "Kim",
		Company:        "Acme",
		Location:       "Seoul",
		StartTime:      "22:00",
		EndTime:        "06:00",
		DayHours:       ptr(0.0),
		NightHours:     ptr(6.0),
		LateNightHours: ptr(2.0),
	}
}

func TestMutationChecksHappenBeforeStoreCall(t *testing.T) {
	b := startBackend(t)
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		c := b.client(t)
		before := b.calls.Load()

		if _, err := c.Create(ctx, validInput()); !errors.Is(err, ErrAuthRequired) {
			t.Errorf("Create: expected ErrAuthRequired, got %v", err)
		}
		if _, err := c.Update(ctx, "id", validInput()); !errors.Is(err, ErrAuthRequired) {
			t.Errorf("Update: expected ErrAuthRequired, got %v", err)
		}
		if err := c.Delete(ctx, "id"); !errors.Is(err, ErrAuthRequired) {
			t.Errorf("Delete: expected ErrAuthRequired, got %v", err)
		}
		if n := b.calls.Load() - before; n != 0 {
			t.Errorf("expected no server calls, got %d", n)
		}
	})

	t.Run("session but missing fields", func(t *testing.T) {
		c := b.signedIn(t)
		before := b.calls.Load()

		in := validInput()
		in.Company = ""
		in.StartTime = ""
		_, err := c.Create(ctx, in)

		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected *models.ValidationError, got %v", err)
		}
		if !verr.Has("company") || !verr.Has("start_time") {
			t.Errorf("missing field errors: %v", verr)
		}
		if n := b.calls.Load() - before; n != 0 {
			t.Errorf("expected no server calls, got %d", n)
		}
	})
}

func TestRecordLifecycle(t *testing.T) {
	b := startBackend(t)
	ctx := context.Background()
	c := b.signedIn(t)

	created, err := c.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.EndTime != "06:00" {
		t.Errorf("overnight shift should be stored as entered, got %+v", created)
	}

	in := validInput()
	in.Memo = ptr("covered a shift")
	updated, err := c.Update(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Memo != "covered a shift" || updated.CreatedAt != created.CreatedAt {
		t.Errorf("unexpected update result %+v", updated)
	}

	records, err := c.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != created.ID {
		t.Fatalf("unexpected records %+v", records)
	}

	if err := c.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := c.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.Update(ctx, created.ID, in); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRecords_Empty(t *testing.T) {
	b := startBackend(t)

	records, err := b.client(t).ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", records)
	}
}

func TestExpiredSessionMapsToAuthRequired(t *testing.T) {
	b := startBackend(t)
	c := New(b.url, &MemorySession{token: "not-a-jwt"}, WithHTTPClient(b.http))

	_, err := c.Create(context.Background(), validInput())
	if !errors.Is(err, ErrAuthRequired) {
		t.Errorf("expected ErrAuthRequired, got %v", err)
	}
}

func TestSubscribe(t *testing.T) {
	b := startBackend(t)
	ctx := context.Background()
	c := b.signedIn(t)

	sub, err := c.Subscribe(ctx, models.MaskAll)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	created, err := c.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if ev.Kind != models.ChangeInsert || ev.RecordID != created.ID {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	if _, ok := <-sub.Events(); ok {
		t.Error("events channel should be closed after Unsubscribe")
	}
}

func TestLogout(t *testing.T) {
	b := startBackend(t)
	ctx := context.Background()
	c := b.signedIn(t)

	user, err := c.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.DisplayName != "Kim" {
		t.Errorf("DisplayName = %q, want Kim", user.DisplayName)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if c.SignedIn() {
		t.Error("session should be cleared")
	}
	if _, err := c.CurrentUser(ctx); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("expected ErrAuthRequired after logout, got %v", err)
	}
}
