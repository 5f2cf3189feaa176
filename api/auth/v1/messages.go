// Package authv1 holds the wire messages of the rmcs.auth.v1 services. They
// are hand-maintained Go structs with no .proto source and travel as JSON
// over Connect; see package authv1connect for the handlers and clients.
package authv1

import "time"

// Flow names accepted by LoginKeyRequest.
const (
	FlowAPI  = "api"
	FlowUser = "user"
)

// LoginKeyRequest asks for the public transport key of a login flow.
type LoginKeyRequest struct{}

// LoginKeyResponse carries a PKIX DER encoded public key.
type LoginKeyResponse struct {
	PublicKey []byte `json:"public_key"`
}

// ApiLoginRequest authenticates an Api. Password is a JWE compact string
// sealed to the Api flow transport key. PublicKey is the caller's PKIX DER
// key the signing keys are sealed to.
type ApiLoginRequest struct {
	ApiId     string `json:"api_id"`
	Password  string `json:"password"`
	PublicKey []byte `json:"public_key"`
}

// ApiLoginResponse carries the sealed root and access keys and the Api's
// procedure → roles table.
type ApiLoginResponse struct {
	RootKey   string              `json:"root_key"`
	AccessKey string              `json:"access_key"`
	Access    map[string][]string `json:"access"`
}

// UserLoginRequest authenticates a user or root. Password is sealed to the
// user flow transport key.
type UserLoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// UserToken is the token pair minted for one role grant.
type UserToken struct {
	ApiId        string `json:"api_id"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserLoginResponse struct {
	UserId    string      `json:"user_id"`
	AuthToken string      `json:"auth_token"`
	Tokens    []UserToken `json:"tokens"`
}

// UserRefreshRequest exchanges a (possibly expired) access token and its
// refresh token for a new pair. ApiId selects the signing key.
type UserRefreshRequest struct {
	ApiId        string `json:"api_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserRefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserLogoutRequest ends the session batch of AuthToken.
type UserLogoutRequest struct {
	UserId    string `json:"user_id"`
	AuthToken string `json:"auth_token"`
}

type UserLogoutResponse struct{}

// User is the public view of a user record.
type User struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type ReadUserRequest struct {
	UserId string `json:"user_id"`
}

type ReadUserResponse struct {
	User *User `json:"user"`
}

// Session is the public view of a session record.
type Session struct {
	TokenId   int32     `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Ip        string    `json:"ip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListUserSessionsRequest struct {
	UserId string `json:"user_id"`
}

type ListUserSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

// ChangeUserPasswordRequest replaces a user's password. Password is sealed
// to the user flow transport key.
type ChangeUserPasswordRequest struct {
	UserId   string `json:"user_id"`
	Password string `json:"password"`
}

type ChangeUserPasswordResponse struct{}

// Api is the public view of an Api record.
type Api struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

type ReadApiRequest struct {
	ApiId string `json:"api_id"`
}

type ReadApiResponse struct {
	Api *Api `json:"api"`
}

type ListProcedureAccessRequest struct {
	ApiId string `json:"api_id"`
}

type ListProcedureAccessResponse struct {
	Access map[string][]string `json:"access"`
}

// RoleGrant is a role held by a user. Durations are in seconds.
type RoleGrant struct {
	ApiId           string `json:"api_id"`
	Role            string `json:"role"`
	Multi           bool   `json:"multi"`
	IpLock          bool   `json:"ip_lock"`
	AccessDuration  int32  `json:"access_duration"`
	RefreshDuration int32  `json:"refresh_duration"`
}

type ListUserRoleGrantsRequest struct {
	UserId string `json:"user_id"`
}

type ListUserRoleGrantsResponse struct {
	Grants []RoleGrant `json:"grants"`
}

func (r *ReadUserRequest) GetUserId() string {
	if r == nil {
		return ""
	}
	return r.UserId
}

func (r *ListUserSessionsRequest) GetUserId() string {
	if r == nil {
		return ""
	}
	return r.UserId
}

func (r *ChangeUserPasswordRequest) GetUserId() string {
	if r == nil {
		return ""
	}
	return r.UserId
}
