package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/worklog/internal/api"
	"github.com/mmynk/worklog/internal/auth"
	"github.com/mmynk/worklog/internal/changefeed"
	"github.com/mmynk/worklog/internal/middleware"
	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/storage/sqlite"
)

type testServer struct {
	records *api.RecordServiceClient
	auth    *api.AuthServiceClient
	store   *sqlite.SQLiteStore
	hub     *changefeed.Hub
	token   string
}

// setupTestServer starts both services behind the production interceptors
// and returns clients that send the token held in testServer.token.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	hub := changefeed.NewHub(nil)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	recordSvc := NewRecordService(store, hub, nil)
	authSvc := NewAuthService(
		auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		nil,
		store,
		jwtManager,
		nil,
	)

	interceptors := connect.WithInterceptors(
		middleware.NewAuthInterceptor(jwtManager,
			api.CreateRecordProcedure,
			api.UpdateRecordProcedure,
			api.DeleteRecordProcedure,
			api.GetCurrentUserProcedure,
		),
		middleware.NewLoggingInterceptor(nil),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewRecordServiceHandler(recordSvc, interceptors))
	mux.Handle(api.NewAuthServiceHandler(authSvc, interceptors))
	server := httptest.NewServer(mux)

	ts := &testServer{store: store, hub: hub}
	bearer := connect.WithInterceptors(middleware.NewBearerInterceptor(func() string { return ts.token }))
	ts.records = api.NewRecordServiceClient(http.DefaultClient, server.URL, bearer)
	ts.auth = api.NewAuthServiceClient(http.DefaultClient, server.URL, bearer)

	t.Cleanup(func() {
		recordSvc.Shutdown()
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})
	return ts
}

// signIn registers a fresh account and keeps its token for later calls.
func (ts *testServer) signIn(t *testing.T, email string) *api.User {
	t.Helper()
	ctx := context.Background()
	code := "code-" + email
	if err := ts.store.CreateApprovalCode(ctx, &models.ApprovalCode{Code: code}); err != nil {
		t.Fatalf("CreateApprovalCode failed: %v", err)
	}
	resp, err := ts.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:        email,
		Password:     "secret1",
		ApprovalCode: code,
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	ts.token = resp.Msg.Token
	return resp.Msg.User
}

func ptr[T any](v T) *T { return &v }

func sampleInput(date string) models.RecordInput {
	d, _ := models.ParseDate(date)
	return models.RecordInput{
		Date:      d,
		Name:      "Kim",
		Company:   "Acme",
		Location:  "Seoul",
		StartTime: "09:00",
		EndTime:   "18:00",
		DayHours:  ptr(8.0),
	}
}

func TestCreateRecord(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.signIn(t, "kim@example.com")

	resp, err := ts.records.CreateRecord(context.Background(), connect.NewRequest(&api.CreateRecordRequest{
		Record: sampleInput("2024-03-05"),
	}))
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	rec := resp.Msg.Record
	if rec.ID == "" {
		t.Error("expected generated record ID")
	}
	if rec.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", rec.UserID, user.ID)
	}
	if rec.NightHours != 0 || rec.ExtraAmount != 0 || rec.Memo != "" {
		t.Errorf("optional fields not defaulted: %+v", rec)
	}
}

func TestCreateRecord_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	_, err := ts.records.CreateRecord(context.Background(), connect.NewRequest(&api.CreateRecordRequest{
		Record: sampleInput("2024-03-05"),
	}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	list, err := ts.records.ListRecords(context.Background(), connect.NewRequest(&api.ListRecordsRequest{}))
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(list.Msg.Records) != 0 {
		t.Errorf("expected no records, got %d", len(list.Msg.Records))
	}
}

func TestCreateRecord_Invalid(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "kim@example.com")

	in := sampleInput("2024-03-05")
	in.Name = ""
	in.DayHours = nil
	_, err := ts.records.CreateRecord(context.Background(), connect.NewRequest(&api.CreateRecordRequest{Record: in}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestListRecords_Ordering(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "kim@example.com")
	ctx := context.Background()

	for _, d := range []string{"2024-01-10", "2024-03-01", "2024-02-15"} {
		if _, err := ts.records.CreateRecord(ctx, connect.NewRequest(&api.CreateRecordRequest{Record: sampleInput(d)})); err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
	}

	resp, err := ts.records.ListRecords(ctx, connect.NewRequest(&api.ListRecordsRequest{}))
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	var got []string
	for _, r := range resp.Msg.Records {
		got = append(got, r.Date.String())
	}
	want := []string{"2024-03-01", "2024-02-15", "2024-01-10"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestUpdateRecord(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "kim@example.com")
	ctx := context.Background()

	created, err := ts.records.CreateRecord(ctx, connect.NewRequest(&api.CreateRecordRequest{Record: sampleInput("2024-03-05")}))
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	in := sampleInput("2024-03-06")
	in.Memo = ptr("overtime")
	in.ExtraAmount = ptr(int64(20000))
	resp, err := ts.records.UpdateRecord(ctx, connect.NewRequest(&api.UpdateRecordRequest{
		ID:     created.Msg.Record.ID,
		Record: in,
	}))
	if err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}

	got := resp.Msg.Record
	if got.ID != created.Msg.Record.ID || got.CreatedAt != created.Msg.Record.CreatedAt {
		t.Errorf("identity not preserved: %+v", got)
	}
	if got.UserID != created.Msg.Record.UserID {
		t.Errorf("owner changed from %q to %q", created.Msg.Record.UserID, got.UserID)
	}
	if got.Memo != "overtime" || got.ExtraAmount != 20000 || got.Date.String() != "2024-03-06" {
		t.Errorf("fields not replaced: %+v", got)
	}
}

func TestUpdateRecord_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "kim@example.com")

	_, err := ts.records.UpdateRecord(context.Background(), connect.NewRequest(&api.UpdateRecordRequest{
		ID:     "missing",
		Record: sampleInput("2024-03-05"),
	}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "kim@example.com")
	ctx := context.Background()

	created, err := ts.records.CreateRecord(ctx, connect.NewRequest(&api.CreateRecordRequest{Record: sampleInput("2024-03-05")}))
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}

	if _, err := ts.records.DeleteRecord(ctx, connect.NewRequest(&api.DeleteRecordRequest{ID: created.Msg.Record.ID})); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}

	_, err = ts.records.DeleteRecord(ctx, connect.NewRequest(&api.DeleteRecordRequest{ID: created.Msg.Record.ID}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
}

func TestWatch(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "kim@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := ts.records.Watch(ctx, connect.NewRequest(&api.WatchRequest{}))
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer stream.Close()

	if !stream.Receive() {
		t.Fatalf("stream ended before subscription confirmation: %v", stream.Err())
	}
	if !stream.Msg().Subscribed {
		t.Fatalf("first message should confirm the subscription, got %+v", stream.Msg())
	}

	created, err := ts.records.CreateRecord(ctx, connect.NewRequest(&api.CreateRecordRequest{Record: sampleInput("2024-03-05")}))
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if _, err := ts.records.DeleteRecord(ctx, connect.NewRequest(&api.DeleteRecordRequest{ID: created.Msg.Record.ID})); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}

	for _, want := range []models.ChangeKind{models.ChangeInsert, models.ChangeDelete} {
		if !stream.Receive() {
			t.Fatalf("stream ended: %v", stream.Err())
		}
		ev := stream.Msg().Event
		if ev == nil {
			t.Fatalf("expected event, got %+v", stream.Msg())
		}
		if ev.Kind != want || ev.Table != models.RecordsTable || ev.RecordID != created.Msg.Record.ID {
			t.Errorf("unexpected event %+v, want kind %s", ev, want)
		}
	}
}

func TestWatch_Mask(t *testing.T) {
	ts := setupTestServer(t)
	ts.signIn(t, "kim@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := ts.records.Watch(ctx, connect.NewRequest(&api.WatchRequest{Mask: models.MaskDelete}))
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer stream.Close()
	if !stream.Receive() || !stream.Msg().Subscribed {
		t.Fatalf("missing subscription confirmation: %v", stream.Err())
	}

	created, err := ts.records.CreateRecord(ctx, connect.NewRequest(&api.CreateRecordRequest{Record: sampleInput("2024-03-05")}))
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if _, err := ts.records.DeleteRecord(ctx, connect.NewRequest(&api.DeleteRecordRequest{ID: created.Msg.Record.ID})); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}

	if !stream.Receive() {
		t.Fatalf("stream ended: %v", stream.Err())
	}
	if ev := stream.Msg().Event; ev == nil || ev.Kind != models.ChangeDelete {
		t.Errorf("expected only the delete event, got %+v", stream.Msg())
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	user := ts.signIn(t, "kim@example.com")

	t.Run("current user", func(t *testing.T) {
		resp, err := ts.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
		if err != nil {
			t.Fatalf("GetCurrentUser failed: %v", err)
		}
		if resp.Msg.User.ID != user.ID || resp.Msg.User.DisplayName != "kim" {
			t.Errorf("unexpected user %+v", resp.Msg.User)
		}
	})

	t.Run("login", func(t *testing.T) {
		resp, err := ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "kim@example.com", Password: "secret1"}))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.Msg.Token == "" || resp.Msg.User.ID != user.ID {
			t.Errorf("unexpected login response %+v", resp.Msg)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "kim@example.com", Password: "wrong!"}))
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		if err := ts.store.CreateApprovalCode(ctx, &models.ApprovalCode{Code: "dup"}); err != nil {
			t.Fatal(err)
		}
		_, err := ts.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email: "kim@example.com", Password: "secret1", ApprovalCode: "dup",
		}))
		if connect.CodeOf(err) != connect.CodeAlreadyExists {
			t.Errorf("expected AlreadyExists, got %v", err)
		}
	})

	t.Run("approval code is single use", func(t *testing.T) {
		_, err := ts.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email: "lee@example.com", Password: "secret1", ApprovalCode: "code-kim@example.com",
		}))
		if connect.CodeOf(err) != connect.CodeInvalidArgument {
			t.Errorf("expected InvalidArgument, got %v", err)
		}
	})

	t.Run("no token", func(t *testing.T) {
		ts.token = ""
		_, err := ts.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
		var connectErr *connect.Error
		if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodeUnauthenticated {
			t.Errorf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("oauth not configured", func(t *testing.T) {
		_, err := ts.auth.OAuthURL(ctx, connect.NewRequest(&api.OAuthURLRequest{Provider: "github"}))
		if connect.CodeOf(err) != connect.CodeUnimplemented {
			t.Errorf("expected Unimplemented, got %v", err)
		}
	})
}
