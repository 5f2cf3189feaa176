package iam

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/terraconstructs/rmcs/internal/repository"
)

// memoryStore is an in-memory backing store for all repositories.
type memoryStore struct {
	mu             sync.Mutex
	apis           map[string]*models.Api
	procedures     map[string]*models.Procedure
	roles          map[string]*models.Role
	roleProcedures map[[2]string]bool
	users          map[string]*models.User
	userRoles      map[[2]string]bool
	sessions       map[int32]*models.Session
	nextAccessID   int32

	// failSessions makes every session write fail.
	failSessions error
	// shortBatch drops this many rows from every session batch.
	shortBatch int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		apis:           map[string]*models.Api{},
		procedures:     map[string]*models.Procedure{},
		roles:          map[string]*models.Role{},
		roleProcedures: map[[2]string]bool{},
		users:          map[string]*models.User{},
		userRoles:      map[[2]string]bool{},
		sessions:       map[int32]*models.Session{},
	}
}

type memApis struct{ s *memoryStore }
type memProcedures struct{ s *memoryStore }
type memRoles struct{ s *memoryStore }
type memUsers struct{ s *memoryStore }
type memSessions struct{ s *memoryStore }

var (
	_ repository.ApiRepository       = memApis{}
	_ repository.ProcedureRepository = memProcedures{}
	_ repository.RoleRepository      = memRoles{}
	_ repository.UserRepository      = memUsers{}
	_ repository.SessionRepository   = memSessions{}
)

func (r memApis) Create(_ context.Context, api *models.Api) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *api
	r.s.apis[api.ID] = &cp
	return nil
}

func (r memApis) GetByID(_ context.Context, id string) (*models.Api, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	api, ok := r.s.apis[id]
	if !ok {
		return nil, fmt.Errorf("api %s: %w", id, repository.ErrNotFound)
	}
	cp := *api
	return &cp, nil
}

func (r memApis) GetByName(_ context.Context, name string) (*models.Api, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, api := range r.s.apis {
		if api.Name == name {
			cp := *api
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("api %q: %w", name, repository.ErrNotFound)
}

func (r memApis) List(_ context.Context) ([]models.Api, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Api
	for _, api := range r.s.apis {
		out = append(out, *api)
	}
	return out, nil
}

func (r memApis) UpdateAccessKey(_ context.Context, id string, key []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	api, ok := r.s.apis[id]
	if !ok {
		return fmt.Errorf("api %s: %w", id, repository.ErrNotFound)
	}
	api.AccessKey = append([]byte(nil), key...)
	return nil
}

func (r memProcedures) Create(_ context.Context, p *models.Procedure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.procedures[p.ID] = &cp
	return nil
}

func (r memProcedures) GetByName(_ context.Context, apiID, name string) (*models.Procedure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.procedures {
		if p.ApiID == apiID && p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("procedure %q: %w", name, repository.ErrNotFound)
}

func (r memProcedures) ListAccess(_ context.Context, apiID string) ([]models.ProcedureAccess, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.ProcedureAccess
	for _, p := range r.s.procedures {
		if p.ApiID != apiID {
			continue
		}
		linked := false
		for link := range r.s.roleProcedures {
			if link[1] == p.ID {
				out = append(out, models.ProcedureAccess{Procedure: p.Name, Role: r.s.roles[link[0]].Name})
				linked = true
			}
		}
		if !linked {
			out = append(out, models.ProcedureAccess{Procedure: p.Name})
		}
	}
	return out, nil
}

func (r memRoles) Create(_ context.Context, role *models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *role
	r.s.roles[role.ID] = &cp
	return nil
}

func (r memRoles) GetByName(_ context.Context, apiID, name string) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, role := range r.s.roles {
		if role.ApiID == apiID && role.Name == name {
			cp := *role
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("role %q: %w", name, repository.ErrNotFound)
}

func (r memRoles) AssignProcedure(_ context.Context, roleID, procedureID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.roleProcedures[[2]string{roleID, procedureID}] = true
	return nil
}

func (r memRoles) AssignToUser(_ context.Context, userID, roleID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.userRoles[[2]string{userID, roleID}] = true
	return nil
}

func (r memRoles) ListGrantsForUser(_ context.Context, userID string) ([]models.RoleGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.RoleGrant
	for link := range r.s.userRoles {
		if link[0] != userID {
			continue
		}
		role := r.s.roles[link[1]]
		api := r.s.apis[role.ApiID]
		out = append(out, models.RoleGrant{
			ApiID:           role.ApiID,
			RoleID:          role.ID,
			Role:            role.Name,
			Multi:           role.Multi,
			IPLock:          role.IPLock,
			AccessDuration:  role.AccessDuration,
			RefreshDuration: role.RefreshDuration,
			AccessKey:       append([]byte(nil), api.AccessKey...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByName(_ context.Context, name string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Name == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", name, repository.ErrNotFound)
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	u.PasswordHash = hash
	return nil
}

func (r memSessions) CreateBatch(_ context.Context, sessions []*models.Session) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSessions != nil {
		return 0, r.s.failSessions
	}
	n := len(sessions) - r.s.shortBatch
	for i := 0; i < n; i++ {
		r.s.nextAccessID++
		sessions[i].AccessID = r.s.nextAccessID
		cp := *sessions[i]
		r.s.sessions[cp.AccessID] = &cp
	}
	return n, nil
}

func (r memSessions) GetByAccessID(_ context.Context, id int32) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSessions != nil {
		return nil, r.s.failSessions
	}
	s, ok := r.s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", id, repository.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (r memSessions) ListByAuthTokenHash(_ context.Context, hash string) ([]models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Session
	for _, s := range r.s.sessions {
		if s.AuthTokenHash == hash {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r memSessions) ListByUser(_ context.Context, userID string) ([]models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Session
	for _, s := range r.s.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccessID < out[j].AccessID })
	return out, nil
}

func (r memSessions) RotateRefreshToken(_ context.Context, id int32, oldHash, newHash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.sessions[id]
	if !ok || s.RefreshTokenHash != oldHash {
		return false, nil
	}
	s.RefreshTokenHash = newHash
	return true, nil
}

func (r memSessions) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, s := range r.s.sessions {
		if s.UserID == userID {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r memSessions) DeleteByAuthTokenHash(_ context.Context, hash, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, s := range r.s.sessions {
		if s.AuthTokenHash == hash && s.UserID == userID {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}
