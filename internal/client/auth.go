package client

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/worklog/internal/api"
)

// Register creates an account and stores its session token.
func (c *Client) Register(ctx context.Context, email, password, displayName, approvalCode string) (*api.User, error) {
	resp, err := c.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:        email,
		Password:     password,
		DisplayName:  displayName,
		ApprovalCode: approvalCode,
	}))
	if err != nil {
		return nil, mapError("register", err)
	}
	if err := c.session.SetToken(resp.Msg.Token); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return resp.Msg.User, nil
}

// Login signs in with email and password and stores the session token.
func (c *Client) Login(ctx context.Context, email, password string) (*api.User, error) {
	resp, err := c.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: email, Password: password}))
	if err != nil {
		return nil, mapError("log in", err)
	}
	if err := c.session.SetToken(resp.Msg.Token); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return resp.Msg.User, nil
}

// OAuthURL returns the provider's consent page URL.
func (c *Client) OAuthURL(ctx context.Context, provider, state string) (string, error) {
	resp, err := c.auth.OAuthURL(ctx, connect.NewRequest(&api.OAuthURLRequest{Provider: provider, State: state}))
	if err != nil {
		return "", mapError("start OAuth login", err)
	}
	return resp.Msg.URL, nil
}

// OAuthLogin completes an OAuth sign-in with the code the provider
// returned and stores the session token.
func (c *Client) OAuthLogin(ctx context.Context, provider, code string) (*api.User, error) {
	resp, err := c.auth.OAuthLogin(ctx, connect.NewRequest(&api.OAuthLoginRequest{Provider: provider, Code: code}))
	if err != nil {
		return nil, mapError("complete OAuth login", err)
	}
	if err := c.session.SetToken(resp.Msg.Token); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return resp.Msg.User, nil
}

// CurrentUser returns the signed-in account.
func (c *Client) CurrentUser(ctx context.Context) (*api.User, error) {
	if !c.SignedIn() {
		return nil, ErrAuthRequired
	}
	resp, err := c.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	if err != nil {
		return nil, mapError("get current user", err)
	}
	return resp.Msg.User, nil
}

// Logout tells the server and discards the local session. The session is
// discarded even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	var callErr error
	if c.SignedIn() {
		if _, err := c.auth.Logout(ctx, connect.NewRequest(&api.LogoutRequest{})); err != nil {
			callErr = mapError("log out", err)
		}
	}
	if err := c.session.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return callErr
}
