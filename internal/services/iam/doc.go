// Package iam implements the login, session and authorization core of the
// RMCS API.
//
// It provides:
//
//   - Api and User login flows over encrypted password transport
//   - Session lifecycle rules (creation, refresh rotation, eviction, revocation)
//   - A per-procedure role guard and an identity guard for RPC handlers
//
// Request Flow:
//
//	LoginKey → client seals password → ApiLogin / UserLogin → session tokens
//	       ↓
//	   RPC with bearer → Guard.Authorize(procedure) → handler
//
// Roles are compared as plain, case-sensitive strings in exactly one place,
// AccessMap.Permits. The root role bypasses the map.
package iam
