package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "worklog-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testRecord(date models.Date, name string) *models.WorkRecord {
	return &models.WorkRecord{
		Date:      date,
		Name:      name,
		Company:   "Acme",
		Location:  "Seoul",
		StartTime: "09:00",
		EndTime:   "18:00",
		DayHours:  8,
	}
}

func TestSQLiteStoreRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateRecord generates ID and CreatedAt", func(t *testing.T) {
		record := testRecord(models.NewDate(2024, time.January, 10), "Kim")

		if err := store.CreateRecord(ctx, record); err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
		if record.ID == "" {
			t.Error("Expected record ID to be generated")
		}
		if record.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetRecord retrieves complete record", func(t *testing.T) {
		original := testRecord(models.NewDate(2024, time.February, 1), "Lee")
		original.UserID = "user-1"
		original.NightHours = 2
		original.LateNightHours = 1.5
		original.ExtraAmount = 30000
		original.Memo = "overtime"

		if err := store.CreateRecord(ctx, original); err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}

		retrieved, err := store.GetRecord(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if *retrieved != *original {
			t.Errorf("record mismatch:\n got  %+v\n want %+v", *retrieved, *original)
		}
	})

	t.Run("GetRecord returns ErrNotFound for nonexistent record", func(t *testing.T) {
		_, err := store.GetRecord(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("NULL optional columns are defaulted", func(t *testing.T) {
		_, err := store.db.ExecContext(ctx,
			`INSERT INTO work_records (id, date, name, company, location, start_time, end_time, day_hours, created_at)
			 VALUES ('legacy', '2020-05-05', 'Park', 'B', 'Busan', '22:00', '06:00', 4, 1)`,
		)
		if err != nil {
			t.Fatalf("raw insert failed: %v", err)
		}

		record, err := store.GetRecord(ctx, "legacy")
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if record.NightHours != 0 || record.LateNightHours != 0 || record.ExtraAmount != 0 || record.Memo != "" {
			t.Errorf("Expected defaults, got %+v", record)
		}
	})

	t.Run("UpdateRecord replaces fields and preserves identity", func(t *testing.T) {
		original := testRecord(models.NewDate(2024, time.March, 3), "Choi")
		original.UserID = "owner"
		if err := store.CreateRecord(ctx, original); err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}

		replacement := testRecord(models.NewDate(2024, time.March, 4), "Choi")
		replacement.ID = original.ID
		replacement.Company = "Other"
		replacement.DayHours = 6

		if err := store.UpdateRecord(ctx, replacement); err != nil {
			t.Fatalf("UpdateRecord failed: %v", err)
		}
		if replacement.UserID != "owner" || replacement.CreatedAt != original.CreatedAt {
			t.Errorf("identity not preserved: %+v", replacement)
		}

		retrieved, _ := store.GetRecord(ctx, original.ID)
		if retrieved.Company != "Other" || retrieved.DayHours != 6 {
			t.Errorf("fields not replaced: %+v", retrieved)
		}
	})

	t.Run("UpdateRecord returns ErrNotFound for nonexistent record", func(t *testing.T) {
		record := testRecord(models.NewDate(2024, time.March, 4), "Ghost")
		record.ID = "missing"
		if err := store.UpdateRecord(ctx, record); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteRecord removes the record", func(t *testing.T) {
		record := testRecord(models.NewDate(2024, time.April, 4), "Han")
		if err := store.CreateRecord(ctx, record); err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
		if err := store.DeleteRecord(ctx, record.ID); err != nil {
			t.Fatalf("DeleteRecord failed: %v", err)
		}
		if err := store.DeleteRecord(ctx, record.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestListRecordsOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dates := []models.Date{
		models.NewDate(2023, time.December, 1),
		models.NewDate(2024, time.January, 5),
		models.NewDate(2024, time.January, 20),
	}
	for i, d := range dates {
		r := testRecord(d, "Worker")
		r.CreatedAt = int64(100 + i)
		if err := store.CreateRecord(ctx, r); err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
	}

	records, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Date.After(records[i-1].Date) {
			t.Errorf("records not in descending date order: %v before %v", records[i-1].Date, records[i].Date)
		}
	}

	t.Run("empty store returns empty slice", func(t *testing.T) {
		empty := newTestStore(t)
		records, err := empty.ListRecords(ctx)
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if records == nil || len(records) != 0 {
			t.Errorf("Expected empty non-nil slice, got %v", records)
		}
	})
}

func TestApprovalCodes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateApprovalCode(ctx, &models.ApprovalCode{Code: "WELCOME"}); err != nil {
		t.Fatalf("CreateApprovalCode failed: %v", err)
	}

	user := models.NewUser("kim@example.com", "Kim", "hash")
	if err := store.CreateUserWithApprovalCode(ctx, user, "WELCOME"); err != nil {
		t.Fatalf("CreateUserWithApprovalCode failed: %v", err)
	}

	code, err := store.GetApprovalCode(ctx, "WELCOME")
	if err != nil {
		t.Fatalf("GetApprovalCode failed: %v", err)
	}
	if code.Active() || code.UsedBy != user.ID {
		t.Errorf("Expected code to be consumed by %s, got %+v", user.ID, code)
	}

	t.Run("used code cannot be consumed again", func(t *testing.T) {
		other := models.NewUser("lee@example.com", "Lee", "hash")
		err := store.CreateUserWithApprovalCode(ctx, other, "WELCOME")
		if !errors.Is(err, storage.ErrCodeUnavailable) {
			t.Fatalf("Expected ErrCodeUnavailable, got %v", err)
		}

		// The user insert must have been rolled back with the code update.
		got, err := store.GetUserByEmail(ctx, "lee@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got != nil {
			t.Errorf("Expected no user after failed registration, got %+v", got)
		}
	})

	t.Run("unknown code is unavailable", func(t *testing.T) {
		other := models.NewUser("park@example.com", "Park", "hash")
		if err := store.CreateUserWithApprovalCode(ctx, other, "NOPE"); !errors.Is(err, storage.ErrCodeUnavailable) {
			t.Errorf("Expected ErrCodeUnavailable, got %v", err)
		}
	})
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("choi@example.com", "Choi", "")
	user.Provider = models.ProviderGitHub
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := store.GetUserByEmail(ctx, "choi@example.com")
	if err != nil || byEmail == nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.Provider != models.ProviderGitHub {
		t.Errorf("Provider = %q, want github", byEmail.Provider)
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil || byID == nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != user.Email {
		t.Errorf("Email = %q, want %q", byID.Email, user.Email)
	}

	missing, err := store.GetUserByID(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing user, got %v, %v", missing, err)
	}
}
