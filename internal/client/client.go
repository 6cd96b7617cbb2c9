// Package client is the typed client of the worklog backend. It checks
// sessions and validates input before anything reaches the network.
package client

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/worklog/internal/api"
	"github.com/mmynk/worklog/internal/middleware"
	"github.com/mmynk/worklog/internal/models"
	"github.com/mmynk/worklog/internal/worklist"
)

// Client talks to the record and auth services.
type Client struct {
	records *api.RecordServiceClient
	auth    *api.AuthServiceClient
	session Session
	logger  *slog.Logger
}

var _ worklist.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient connect.HTTPClient
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used for all calls.
func WithHTTPClient(c connect.HTTPClient) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a client for the server at baseURL. session supplies and
// stores the bearer token; a nil session keeps it in memory.
func New(baseURL string, session Session, opts ...Option) *Client {
	o := options{httpClient: http.DefaultClient, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if session == nil {
		session = &MemorySession{}
	}

	bearer := connect.WithInterceptors(middleware.NewBearerInterceptor(session.Token))
	return &Client{
		records: api.NewRecordServiceClient(o.httpClient, baseURL, bearer),
		auth:    api.NewAuthServiceClient(o.httpClient, baseURL, bearer),
		session: session,
		logger:  o.logger,
	}
}

// SignedIn reports whether a session token is present. It does not check
// that the token is still valid.
func (c *Client) SignedIn() bool {
	return c.session.Token() != ""
}

// ListRecords returns every record ordered by date descending.
func (c *Client) ListRecords(ctx context.Context) ([]models.WorkRecord, error) {
	resp, err := c.records.ListRecords(ctx, connect.NewRequest(&api.ListRecordsRequest{}))
	if err != nil {
		return nil, mapError("list records", err)
	}
	records := resp.Msg.Records
	if records == nil {
		records = []models.WorkRecord{}
	}
	return records, nil
}

// checkMutation runs the pre-flight checks shared by Create and Update.
func (c *Client) checkMutation(in *models.RecordInput) error {
	if !c.SignedIn() {
		return ErrAuthRequired
	}
	if in != nil {
		return in.Validate()
	}
	return nil
}

// Create stores a new record. It fails with ErrAuthRequired or a
// *models.ValidationError without contacting the server.
func (c *Client) Create(ctx context.Context, in models.RecordInput) (models.WorkRecord, error) {
	if err := c.checkMutation(&in); err != nil {
		return models.WorkRecord{}, err
	}
	resp, err := c.records.CreateRecord(ctx, connect.NewRequest(&api.CreateRecordRequest{Record: in}))
	if err != nil {
		return models.WorkRecord{}, mapError("create record", err)
	}
	c.logger.Debug("Record created", "record_id", resp.Msg.Record.ID)
	return resp.Msg.Record, nil
}

// Update replaces the editable fields of record id.
func (c *Client) Update(ctx context.Context, id string, in models.RecordInput) (models.WorkRecord, error) {
	if err := c.checkMutation(&in); err != nil {
		return models.WorkRecord{}, err
	}
	resp, err := c.records.UpdateRecord(ctx, connect.NewRequest(&api.UpdateRecordRequest{ID: id, Record: in}))
	if err != nil {
		return models.WorkRecord{}, mapError("update record", err)
	}
	c.logger.Debug("Record updated", "record_id", id)
	return resp.Msg.Record, nil
}

// Delete removes record id. Confirmation is the caller's job.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.checkMutation(nil); err != nil {
		return err
	}
	if _, err := c.records.DeleteRecord(ctx, connect.NewRequest(&api.DeleteRecordRequest{ID: id})); err != nil {
		return mapError("delete record", err)
	}
	c.logger.Debug("Record deleted", "record_id", id)
	return nil
}
