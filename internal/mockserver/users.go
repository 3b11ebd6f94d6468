// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/volzer-tui/internal/model"
	"github.com/jeranaias/volzer-tui/internal/validate"
)

// DefaultRole is given to every registered account.
const DefaultRole = "Étudiant"

var (
	// ErrEmailTaken is returned when registering an address twice.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned by ByID.
	ErrUserNotFound = errors.New("user not found")
)

type user struct {
	details model.UserDetails
	hash    []byte
}

// UserStore is the in-memory account table of the mock backend.
type UserStore struct {
	mu      sync.RWMutex
	byEmail map[string]*user
	byID    map[model.UserID]*user
	cost    int
	now     func() time.Time
}

// NewUserStore creates an empty table. cost is the bcrypt cost; values
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewUserStore(cost int) *UserStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &UserStore{
		byEmail: make(map[string]*user),
		byID:    make(map[model.UserID]*user),
		cost:    cost,
		now:     time.Now,
	}
}

// Create registers an account from a validated registration.
func (s *UserStore) Create(d model.RegistrationData) (model.UserDetails, error) {
	email := validate.NormalizeEmail(d.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(d.Password), s.cost)
	if err != nil {
		return model.UserDetails{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return model.UserDetails{}, ErrEmailTaken
	}

	prenom := strings.TrimSpace(d.Prenom)
	nom := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(d.Nom), prenom))
	if nom == "" {
		nom = strings.TrimSpace(d.Nom)
	}

	u := &user{
		details: model.UserDetails{
			UserRecord: model.UserRecord{
				ID:     model.UserID(uuid.NewString()),
				Prenom: prenom,
				Nom:    nom,
				Email:  email,
				Role:   DefaultRole,
			},
			Specialite:      d.Filiere,
			DateInscription: s.now().UTC().Format(time.RFC3339),
			Telephone:       strings.TrimSpace(d.Telephone),
		},
		hash: hash,
	}
	s.byEmail[email] = u
	s.byID[u.details.ID] = u
	return u.details, nil
}

// Authenticate checks a password. Unknown emails still cost one bcrypt
// comparison.
func (s *UserStore) Authenticate(email, password string) (model.UserDetails, error) {
	s.mu.RLock()
	u, ok := s.byEmail[validate.NormalizeEmail(email)]
	s.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return model.UserDetails{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return model.UserDetails{}, ErrInvalidCredentials
	}
	return u.details, nil
}

// ByID returns the account with id.
func (s *UserStore) ByID(id model.UserID) (model.UserDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return model.UserDetails{}, ErrUserNotFound
	}
	return u.details, nil
}

// Len returns the number of accounts.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("volzer-dummy-password"), bcrypt.MinCost)
