package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// RecordServiceHandler is implemented by the record service.
type RecordServiceHandler interface {
	ListRecords(context.Context, *connect.Request[ListRecordsRequest]) (*connect.Response[ListRecordsResponse], error)
	CreateRecord(context.Context, *connect.Request[CreateRecordRequest]) (*connect.Response[CreateRecordResponse], error)
	UpdateRecord(context.Context, *connect.Request[UpdateRecordRequest]) (*connect.Response[UpdateRecordResponse], error)
	DeleteRecord(context.Context, *connect.Request[DeleteRecordRequest]) (*connect.Response[DeleteRecordResponse], error)
	Watch(context.Context, *connect.Request[WatchRequest], *connect.ServerStream[WatchResponse]) error
}

// NewRecordServiceHandler builds an HTTP handler for svc. The returned path
// is the mount point on a mux.
func NewRecordServiceHandler(svc RecordServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithCodec()}, opts...)
	handlers := map[string]http.Handler{
		ListRecordsProcedure:  connect.NewUnaryHandler(ListRecordsProcedure, svc.ListRecords, opts...),
		CreateRecordProcedure: connect.NewUnaryHandler(CreateRecordProcedure, svc.CreateRecord, opts...),
		UpdateRecordProcedure: connect.NewUnaryHandler(UpdateRecordProcedure, svc.UpdateRecord, opts...),
		DeleteRecordProcedure: connect.NewUnaryHandler(DeleteRecordProcedure, svc.DeleteRecord, opts...),
		WatchProcedure:        connect.NewServerStreamHandler(WatchProcedure, svc.Watch, opts...),
	}
	return "/" + RecordServiceName + "/", route(handlers)
}

// AuthServiceHandler is implemented by the auth service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	OAuthURL(context.Context, *connect.Request[OAuthURLRequest]) (*connect.Response[OAuthURLResponse], error)
	OAuthLogin(context.Context, *connect.Request[OAuthLoginRequest]) (*connect.Response[OAuthLoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error)
	Logout(context.Context, *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler for svc.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithCodec()}, opts...)
	handlers := map[string]http.Handler{
		RegisterProcedure:       connect.NewUnaryHandler(RegisterProcedure, svc.Register, opts...),
		LoginProcedure:          connect.NewUnaryHandler(LoginProcedure, svc.Login, opts...),
		OAuthURLProcedure:       connect.NewUnaryHandler(OAuthURLProcedure, svc.OAuthURL, opts...),
		OAuthLoginProcedure:     connect.NewUnaryHandler(OAuthLoginProcedure, svc.OAuthLogin, opts...),
		GetCurrentUserProcedure: connect.NewUnaryHandler(GetCurrentUserProcedure, svc.GetCurrentUser, opts...),
		LogoutProcedure:         connect.NewUnaryHandler(LogoutProcedure, svc.Logout, opts...),
	}
	return "/" + AuthServiceName + "/", route(handlers)
}

func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
