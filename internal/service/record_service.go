package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"connectrpc.com/connect"

	"github.com/mmynk/worklog/internal/api"
	"github.com/mmynk/worklog/internal/changefeed"
	"github.com/mmynk/worklog/internal/middleware"
	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/storage"
)

var errIDRequired = errors.New("id is required")

// RecordService implements the record RPCs and publishes a change event
// for every successful mutation.
type RecordService struct {
	store  storage.RecordStore
	hub    *changefeed.Hub
	logger *slog.Logger

	done     chan struct{}
	doneOnce sync.Once
}

var _ api.RecordServiceHandler = (*RecordService)(nil)

// NewRecordService creates a RecordService with the given storage backend
// and change feed.
func NewRecordService(store storage.RecordStore, hub *changefeed.Hub, logger *slog.Logger) *RecordService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordService{
		store:  store,
		hub:    hub,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Shutdown ends all open Watch streams. http.Server.Shutdown does not
// cancel running handlers, so the server calls this first.
func (s *RecordService) Shutdown() {
	s.doneOnce.Do(func() { close(s.done) })
}

// ListRecords returns every record, newest date first.
func (s *RecordService) ListRecords(ctx context.Context, req *connect.Request[api.ListRecordsRequest]) (*connect.Response[api.ListRecordsResponse], error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		s.logger.Error("ListRecords failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Debug("ListRecords successful", "count", len(records))
	return connect.NewResponse(&api.ListRecordsResponse{Records: records}), nil
}

// CreateRecord validates and stores a new record owned by the caller.
func (s *RecordService) CreateRecord(ctx context.Context, req *connect.Request[api.CreateRecordRequest]) (*connect.Response[api.CreateRecordResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Msg.Record.Validate(); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	record := req.Msg.Record.Record()
	record.UserID = userID
	if err := s.store.CreateRecord(ctx, &record); err != nil {
		s.logger.Error("CreateRecord failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.publish(models.ChangeInsert, record.ID)
	s.logger.Info("Record created", "record_id", record.ID, "user_id", userID, "date", record.Date)
	return connect.NewResponse(&api.CreateRecordResponse{Record: record}), nil
}

// UpdateRecord replaces the editable fields of an existing record.
func (s *RecordService) UpdateRecord(ctx context.Context, req *connect.Request[api.UpdateRecordRequest]) (*connect.Response[api.UpdateRecordResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errIDRequired)
	}
	if err := req.Msg.Record.Validate(); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	record := req.Msg.Record.Record()
	record.ID = req.Msg.ID
	if err := s.store.UpdateRecord(ctx, &record); err != nil {
		s.logger.Error("UpdateRecord failed", "record_id", req.Msg.ID, "error", err)
		return nil, storeError(err)
	}

	s.publish(models.ChangeUpdate, record.ID)
	s.logger.Info("Record updated", "record_id", record.ID, "user_id", userID)
	return connect.NewResponse(&api.UpdateRecordResponse{Record: record}), nil
}

// DeleteRecord removes a record by ID.
func (s *RecordService) DeleteRecord(ctx context.Context, req *connect.Request[api.DeleteRecordRequest]) (*connect.Response[api.DeleteRecordResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errIDRequired)
	}

	if err := s.store.DeleteRecord(ctx, req.Msg.ID); err != nil {
		s.logger.Error("DeleteRecord failed", "record_id", req.Msg.ID, "error", err)
		return nil, storeError(err)
	}

	s.publish(models.ChangeDelete, req.Msg.ID)
	s.logger.Info("Record deleted", "record_id", req.Msg.ID, "user_id", userID)
	return connect.NewResponse(&api.DeleteRecordResponse{}), nil
}

// Watch streams change events on the records table until the client goes
// away or the service shuts down. The first message confirms the
// subscription.
func (s *RecordService) Watch(ctx context.Context, req *connect.Request[api.WatchRequest], stream *connect.ServerStream[api.WatchResponse]) error {
	sub := s.hub.Subscribe(models.RecordsTable, req.Msg.Mask)
	defer sub.Unsubscribe()

	if err := stream.Send(&api.WatchResponse{Subscribed: true}); err != nil {
		return err
	}
	s.logger.Info("Watch started", "user_id", middleware.GetUserID(ctx), "mask", req.Msg.Mask)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := stream.Send(&api.WatchResponse{Event: &ev}); err != nil {
				return err
			}
		}
	}
}

func (s *RecordService) publish(kind models.ChangeKind, id string) {
	s.hub.Publish(models.ChangeEvent{
		Table:    models.RecordsTable,
		Kind:     kind,
		RecordID: id,
	})
}

// requireUser returns the authenticated caller or an Unauthenticated error.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("sign in required"))
	}
	return userID, nil
}

func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
