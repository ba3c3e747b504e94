// Package admin holds the single administrator record used to gate the
// management menu. Credentials are stored as given; hardening credential
// storage is outside this system's scope.
package admin

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotRegistered      = errors.New("admin_not_registered")
	ErrAlreadyRegistered  = errors.New("admin_already_registered")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// Registry stores at most one admin and the sessions issued to them.
type Registry struct {
	mu       sync.Mutex
	username string
	password string
	sessions map[uuid.UUID]struct{}
}

// New constructs an empty registry with no admin registered.
func New() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]struct{})}
}

// Registered reports whether an admin record exists.
func (r *Registry) Registered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.username != ""
}

// Register stores the admin credentials. Only one admin may exist.
func (r *Registry) Register(username, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.username != "" {
		return ErrAlreadyRegistered
	}
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}
	r.username = username
	r.password = password
	return nil
}

// Login verifies the credentials and issues a session token.
func (r *Registry) Login(username, password string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.username == "" {
		return uuid.Nil, ErrNotRegistered
	}
	if username != r.username || password != r.password {
		return uuid.Nil, ErrInvalidCredentials
	}
	token := uuid.New()
	r.sessions[token] = struct{}{}
	return token, nil
}

// ValidSession reports whether the token was issued by Login and not revoked.
func (r *Registry) ValidSession(token uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[token]
	return ok
}

// Logout revokes the session token.
func (r *Registry) Logout(token uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
}

// Username returns the registered admin's name, if any.
func (r *Registry) Username() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.username
}
