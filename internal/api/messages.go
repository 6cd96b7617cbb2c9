package api

import "github.com/mmynk/worklog/internal/models"

// Service and procedure names.
const (
	RecordServiceName = "worklog.v1.RecordService"
	AuthServiceName   = "worklog.v1.AuthService"

	ListRecordsProcedure  = "/" + RecordServiceName + "/ListRecords"
	CreateRecordProcedure = "/" + RecordServiceName + "/CreateRecord"
	UpdateRecordProcedure = "/" + RecordServiceName + "/UpdateRecord"
	DeleteRecordProcedure = "/" + RecordServiceName + "/DeleteRecord"
	WatchProcedure        = "/" + RecordServiceName + "/Watch"

	RegisterProcedure       = "/" + AuthServiceName + "/Register"
	LoginProcedure          = "/" + AuthServiceName + "/Login"
	OAuthURLProcedure       = "/" + AuthServiceName + "/OAuthURL"
	OAuthLoginProcedure     = "/" + AuthServiceName + "/OAuthLogin"
	GetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
	LogoutProcedure         = "/" + AuthServiceName + "/Logout"
)

// Record messages.

type ListRecordsRequest struct{}

type ListRecordsResponse struct {
	Records []models.WorkRecord `json:"records"`
}

type CreateRecordRequest struct {
	Record models.RecordInput `json:"record"`
}

type CreateRecordResponse struct {
	Record models.WorkRecord `json:"record"`
}

type UpdateRecordRequest struct {
	ID     string             `json:"id"`
	Record models.RecordInput `json:"record"`
}

type UpdateRecordResponse struct {
	Record models.WorkRecord `json:"record"`
}

type DeleteRecordRequest struct {
	ID string `json:"id"`
}

type DeleteRecordResponse struct{}

// WatchRequest opens a change stream on the records table.
type WatchRequest struct {
	// Mask selects change kinds; zero means all.
	Mask models.EventMask `json:"mask,omitempty"`
}

// WatchResponse is one message of the change stream. The first message of
// every stream has Subscribed set and no event; it tells the client that
// the server-side subscription is live.
type WatchResponse struct {
	Subscribed bool                `json:"subscribed,omitempty"`
	Event      *models.ChangeEvent `json:"event,omitempty"`
}

// Auth messages.

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Provider    string `json:"provider"`
	CreatedAt   int64  `json:"created_at"`
}

// UserFrom converts a stored user, dropping the password hash.
func UserFrom(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Provider:    u.Provider,
		CreatedAt:   u.CreatedAt,
	}
}

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	DisplayName  string `json:"display_name,omitempty"`
	ApprovalCode string `json:"approval_code"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type OAuthURLRequest struct {
	Provider string `json:"provider"`
	State    string `json:"state"`
}

type OAuthURLResponse struct {
	URL string `json:"url"`
}

type OAuthLoginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type OAuthLoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}
