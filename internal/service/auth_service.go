package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/worklog/internal/api"
	"github.com/mmynk/worklog/internal/auth"
	"github.com/mmynk/worklog/internal/middleware"
	"github.com/mmynk/worklog/internal/models"
)

// UserLookup reads accounts by ID.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	oauth         *auth.OAuthAuthenticator
	users         UserLookup
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

var _ api.AuthServiceHandler = (*AuthService)(nil)

// NewAuthService creates a new authentication service. oauth may be nil
// when no provider is configured.
func NewAuthService(authenticator auth.Authenticator, oauth *auth.OAuthAuthenticator, users UserLookup, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		oauth:         oauth,
		users:         users,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a new user account, consuming an approval code.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password, req.Msg.ApprovalCode)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrInvalidApprovalCode):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.RegisterResponse{User: api.UserFrom(user), Token: token}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		if errors.Is(err, auth.ErrPasswordNotSet) {
			return nil, connect.NewError(connect.CodeFailedPrecondition, err)
		}
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.LoginResponse{User: api.UserFrom(user), Token: token}), nil
}

// OAuthURL returns the consent page for a provider.
func (s *AuthService) OAuthURL(ctx context.Context, req *connect.Request[api.OAuthURLRequest]) (*connect.Response[api.OAuthURLResponse], error) {
	if s.oauth == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, auth.ErrUnknownProvider)
	}
	url, err := s.oauth.AuthCodeURL(req.Msg.Provider, req.Msg.State)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewResponse(&api.OAuthURLResponse{URL: url}), nil
}

// OAuthLogin completes an OAuth code flow and returns a JWT token.
func (s *AuthService) OAuthLogin(ctx context.Context, req *connect.Request[api.OAuthLoginRequest]) (*connect.Response[api.OAuthLoginResponse], error) {
	s.logger.Info("OAuth login request", "provider", req.Msg.Provider)

	if s.oauth == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, auth.ErrUnknownProvider)
	}
	if req.Msg.Code == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("code is required"))
	}

	user, err := s.oauth.Login(ctx, req.Msg.Provider, req.Msg.Code)
	if err != nil {
		s.logger.Warn("OAuth login failed", "provider", req.Msg.Provider, "error", err)
		if errors.Is(err, auth.ErrUnknownProvider) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeUnauthenticated, err)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in with OAuth", "user_id", user.ID, "provider", req.Msg.Provider)
	return connect.NewResponse(&api.OAuthLoginResponse{User: api.UserFrom(user), Token: token}), nil
}

// Logout is a no-op: sessions are stateless JWTs and the client discards
// its token.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&api.LogoutResponse{}), nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error("GetCurrentUser failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if user == nil {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("user no longer exists"))
	}

	return connect.NewResponse(&api.GetCurrentUserResponse{User: api.UserFrom(user)}), nil
}

func (s *AuthService) issue(user *models.User) (string, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return "", connect.NewError(connect.CodeInternal, err)
	}
	return token, nil
}
