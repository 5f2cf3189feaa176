package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Api is a machine identity. Its access key signs every access token minted
// for roles that belong to it and is replaced on every Api login.
type Api struct {
	bun.BaseModel `bun:"table:apis,alias:a"`

	ID           string    `bun:"id,pk,type:uuid"`
	Name         string    `bun:"name,notnull,unique"`
	Address      string    `bun:"address"`
	Category     string    `bun:"category"`
	Description  string    `bun:"description"`
	PasswordHash string    `bun:"password_hash,notnull"`
	AccessKey    []byte    `bun:"access_key,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Procedure is a named RPC of an Api.
type Procedure struct {
	bun.BaseModel `bun:"table:procedures,alias:p"`

	ID          string `bun:"id,pk,type:uuid"`
	ApiID       string `bun:"api_id,notnull,type:uuid,unique:api_procedure"`
	Name        string `bun:"name,notnull,unique:api_procedure"`
	Description string `bun:"description"`
}

// Role is a named permission set of an Api with its session policy.
// Durations are stored in seconds.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID              string `bun:"id,pk,type:uuid"`
	ApiID           string `bun:"api_id,notnull,type:uuid,unique:api_role"`
	Name            string `bun:"name,notnull,unique:api_role"`
	Multi           bool   `bun:"multi,notnull,default:false"`
	IPLock          bool   `bun:"ip_lock,notnull,default:false"`
	AccessDuration  int32  `bun:"access_duration,notnull"`
	RefreshDuration int32  `bun:"refresh_duration,notnull"`
}

// RoleProcedure links a Role to a Procedure it may invoke.
type RoleProcedure struct {
	bun.BaseModel `bun:"table:role_procedures,alias:rp"`

	RoleID      string `bun:"role_id,pk,type:uuid"`
	ProcedureID string `bun:"procedure_id,pk,type:uuid"`
}

// User is a human identity.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk,type:uuid"`
	Name         string    `bun:"name,notnull,unique"`
	Email        string    `bun:"email"`
	Phone        string    `bun:"phone"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// UserRole grants a Role to a User.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID string `bun:"user_id,pk,type:uuid"`
	RoleID string `bun:"role_id,pk,type:uuid"`
}

// Session is one row per minted access token. AccessID is the numeric token
// id carried in the token's jti claim. All sessions created by one login
// share AuthTokenHash. Only SHA256 hashes of opaque tokens are stored.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	AccessID         int32     `bun:"access_id,pk,autoincrement"`
	UserID           string    `bun:"user_id,notnull,type:uuid"`
	AuthTokenHash    string    `bun:"auth_token_hash,notnull"`
	RefreshTokenHash string    `bun:"refresh_token_hash,notnull,unique"`
	ExpiresAt        time.Time `bun:"expires_at,notnull"`
	IP               *string   `bun:"ip"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// RoleGrant is the read model of a UserRole joined with its Role and the
// Role's Api. It is never persisted directly.
type RoleGrant struct {
	ApiID           string `bun:"api_id"`
	RoleID          string `bun:"role_id"`
	Role            string `bun:"role"`
	Multi           bool   `bun:"multi"`
	IPLock          bool   `bun:"ip_lock"`
	AccessDuration  int32  `bun:"access_duration"`
	RefreshDuration int32  `bun:"refresh_duration"`
	AccessKey       []byte `bun:"access_key"`
}

// ProcedureAccess pairs a procedure name with a role permitted to call it.
type ProcedureAccess struct {
	Procedure string `bun:"procedure"`
	Role      string `bun:"role"`
}
