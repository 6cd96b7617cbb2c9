package middleware

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/worklog/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the authenticated user's email.
	EmailKey contextKey = "email"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithUser returns ctx carrying the given identity.
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, EmailKey, email)
}

// AuthInterceptor validates bearer tokens on incoming calls.
//
// Procedures listed as required are rejected with CodeUnauthenticated when
// the token is missing or invalid. Every other procedure is optional: a
// valid token adds the user to the context, anything else is ignored.
type AuthInterceptor struct {
	jwtManager *auth.JWTManager
	required   map[string]bool
}

var _ connect.Interceptor = (*AuthInterceptor)(nil)

// NewAuthInterceptor creates an interceptor that requires authentication
// for the given procedures.
func NewAuthInterceptor(jwtManager *auth.JWTManager, required ...string) *AuthInterceptor {
	m := make(map[string]bool, len(required))
	for _, p := range required {
		m[p] = true
	}
	return &AuthInterceptor{jwtManager: jwtManager, required: m}
}

// authenticate returns ctx enriched with the caller's identity.
func (i *AuthInterceptor) authenticate(ctx context.Context, procedure, header string) (context.Context, error) {
	token, err := auth.BearerToken(header)
	if err == nil {
		var claims *auth.Claims
		claims, err = i.jwtManager.Validate(token)
		if err == nil {
			return WithUser(ctx, claims.UserID, claims.Email), nil
		}
	}
	if i.required[procedure] {
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}
	return ctx, nil
}

// WrapUnary implements connect.Interceptor.
func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		ctx, err := i.authenticate(ctx, req.Spec().Procedure, req.Header().Get("Authorization"))
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.authenticate(ctx, conn.Spec().Procedure, conn.RequestHeader().Get("Authorization"))
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

// BearerInterceptor attaches a session token to outgoing calls.
type BearerInterceptor struct {
	token func() string
}

var _ connect.Interceptor = (*BearerInterceptor)(nil)

// NewBearerInterceptor creates a client interceptor. token is consulted on
// every call; an empty token sends no header.
func NewBearerInterceptor(token func() string) *BearerInterceptor {
	return &BearerInterceptor{token: token}
}

// WrapUnary implements connect.Interceptor.
func (b *BearerInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			if t := b.token(); t != "" {
				req.Header().Set("Authorization", "Bearer "+t)
			}
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (b *BearerInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if t := b.token(); t != "" {
			conn.RequestHeader().Set("Authorization", "Bearer "+t)
		}
		return conn
	}
}

// WrapStreamingHandler implements connect.Interceptor.
func (b *BearerInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
