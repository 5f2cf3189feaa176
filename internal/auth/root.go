package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
)

const (
	// RootName is both the login name and the role name of the root identity.
	RootName = "root"

	// RootLoginDelay is the fixed wait applied to every root password check.
	RootLoginDelay = 500 * time.Millisecond
)

// RootID is the sentinel id (all bits set) of the root identity. It doubles
// as the Api id of the root grant.
var RootID = uuid.UUID{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// Root is the bootstrap root identity. It is built once from process
// configuration and shared read-only.
type Root struct {
	password        []byte
	key             []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
	delay           time.Duration
}

// NewRoot creates the root identity. An empty password disables root login.
func NewRoot(password string, key []byte, accessDuration, refreshDuration time.Duration) *Root {
	return &Root{
		password:        []byte(password),
		key:             append([]byte(nil), key...),
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		delay:           RootLoginDelay,
	}
}

// IsRootName reports whether name designates the root identity or role.
func IsRootName(name string) bool { return name == RootName }

// IsRootID reports whether id is the root sentinel in any UUID text form.
func IsRootID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed == RootID
}

// Key returns a copy of the root signing key.
func (r *Root) Key() []byte { return append([]byte(nil), r.key...) }

func (r *Root) AccessDuration() time.Duration  { return r.accessDuration }
func (r *Root) RefreshDuration() time.Duration { return r.refreshDuration }

// VerifyPassword compares plain to the configured root password in constant
// time and then waits RootLoginDelay regardless of the outcome. The wait
// honours ctx cancellation, in which case ctx.Err() is returned.
func (r *Root) VerifyPassword(ctx context.Context, plain []byte) error {
	ok := len(r.password) > 0 && subtle.ConstantTimeCompare(plain, r.password) == 1

	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if !ok {
		return ErrPasswordMismatch
	}
	return nil
}
