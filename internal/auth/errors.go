package auth

import "errors"

var (
	// ErrKeyImport indicates a caller-supplied public key could not be parsed.
	ErrKeyImport = errors.New("public key import failed")
	// ErrDecrypt indicates a ciphertext could not be opened with the transport key.
	ErrDecrypt = errors.New("decryption failed")
	// ErrPasswordMismatch indicates the presented password does not match.
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrInvalidHash indicates a stored password hash is malformed.
	ErrInvalidHash = errors.New("invalid password hash")
	// ErrTokenInvalid indicates a malformed or unverifiable session token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired indicates a session token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)
