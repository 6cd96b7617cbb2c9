package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// RecordServiceClient calls the record service.
type RecordServiceClient struct {
	listRecords  *connect.Client[ListRecordsRequest, ListRecordsResponse]
	createRecord *connect.Client[CreateRecordRequest, CreateRecordResponse]
	updateRecord *connect.Client[UpdateRecordRequest, UpdateRecordResponse]
	deleteRecord *connect.Client[DeleteRecordRequest, DeleteRecordResponse]
	watch        *connect.Client[WatchRequest, WatchResponse]
}

// NewRecordServiceClient creates a client for the service at baseURL
// (for example http://localhost:8080).
func NewRecordServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RecordServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithCodec()}, opts...)
	return &RecordServiceClient{
		listRecords:  connect.NewClient[ListRecordsRequest, ListRecordsResponse](httpClient, baseURL+ListRecordsProcedure, opts...),
		createRecord: connect.NewClient[CreateRecordRequest, CreateRecordResponse](httpClient, baseURL+CreateRecordProcedure, opts...),
		updateRecord: connect.NewClient[UpdateRecordRequest, UpdateRecordResponse](httpClient, baseURL+UpdateRecordProcedure, opts...),
		deleteRecord: connect.NewClient[DeleteRecordRequest, DeleteRecordResponse](httpClient, baseURL+DeleteRecordProcedure, opts...),
		watch:        connect.NewClient[WatchRequest, WatchResponse](httpClient, baseURL+WatchProcedure, opts...),
	}
}

func (c *RecordServiceClient) ListRecords(ctx context.Context, req *connect.Request[ListRecordsRequest]) (*connect.Response[ListRecordsResponse], error) {
	return c.listRecords.CallUnary(ctx, req)
}

func (c *RecordServiceClient) CreateRecord(ctx context.Context, req *connect.Request[CreateRecordRequest]) (*connect.Response[CreateRecordResponse], error) {
	return c.createRecord.CallUnary(ctx, req)
}

func (c *RecordServiceClient) UpdateRecord(ctx context.Context, req *connect.Request[UpdateRecordRequest]) (*connect.Response[UpdateRecordResponse], error) {
	return c.updateRecord.CallUnary(ctx, req)
}

func (c *RecordServiceClient) DeleteRecord(ctx context.Context, req *connect.Request[DeleteRecordRequest]) (*connect.Response[DeleteRecordResponse], error) {
	return c.deleteRecord.CallUnary(ctx, req)
}

func (c *RecordServiceClient) Watch(ctx context.Context, req *connect.Request[WatchRequest]) (*connect.ServerStreamForClient[WatchResponse], error) {
	return c.watch.CallServerStream(ctx, req)
}

// AuthServiceClient calls the auth service.
type AuthServiceClient struct {
	register       *connect.Client[RegisterRequest, RegisterResponse]
	login          *connect.Client[LoginRequest, LoginResponse]
	oauthURL       *connect.Client[OAuthURLRequest, OAuthURLResponse]
	oauthLogin     *connect.Client[OAuthLoginRequest, OAuthLoginResponse]
	getCurrentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
	logout         *connect.Client[LogoutRequest, LogoutResponse]
}

// NewAuthServiceClient creates a client for the service at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithCodec()}, opts...)
	return &AuthServiceClient{
		register:       connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+RegisterProcedure, opts...),
		login:          connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+LoginProcedure, opts...),
		oauthURL:       connect.NewClient[OAuthURLRequest, OAuthURLResponse](httpClient, baseURL+OAuthURLProcedure, opts...),
		oauthLogin:     connect.NewClient[OAuthLoginRequest, OAuthLoginResponse](httpClient, baseURL+OAuthLoginProcedure, opts...),
		getCurrentUser: connect.NewClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL+GetCurrentUserProcedure, opts...),
		logout:         connect.NewClient[LogoutRequest, LogoutResponse](httpClient, baseURL+LogoutProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) OAuthURL(ctx context.Context, req *connect.Request[OAuthURLRequest]) (*connect.Response[OAuthURLResponse], error) {
	return c.oauthURL.CallUnary(ctx, req)
}

func (c *AuthServiceClient) OAuthLogin(ctx context.Context, req *connect.Request[OAuthLoginRequest]) (*connect.Response[OAuthLoginResponse], error) {
	return c.oauthLogin.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}
