package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"braintrain/backend/internal/user/domain"
)

type memStore struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byPhone map[string]*domain.User
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]*domain.User{}, byPhone: map[string]*domain.User{}}
}

func (m *memStore) add(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[u.ID] = &cp
	m.byPhone[u.Phone] = &cp
}

func (m *memStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memStore) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byPhone[phone], nil
}

func (m *memStore) UpdateProfile(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.byID[u.ID]; ok {
		cur.FullName = u.FullName
		cur.DOB = u.DOB
		cur.Gender = u.Gender
	}
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		delete(m.byPhone, u.Phone)
		delete(m.byID, id)
	}
	return nil
}

type sweepRecorder struct {
	mu    sync.Mutex
	users []string
}

func (s *sweepRecorder) DeleteAllByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, userID)
	return nil
}

func TestGet(t *testing.T) {
	store := newMemStore()
	store.add(&domain.User{ID: "u1", Phone: "+84901234567", PasswordHash: "h"})
	svc := NewService(store, &sweepRecorder{}, &sweepRecorder{})

	user, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if user.Phone != "+84901234567" {
		t.Errorf("Phone = %q", user.Phone)
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Get missing: err = %v, want ErrUserNotFound", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	store := newMemStore()
	store.add(&domain.User{ID: "u1", Phone: "+84901234567", PasswordHash: "h"})
	svc := NewService(store, &sweepRecorder{}, &sweepRecorder{})

	dob := time.Date(1995, 3, 14, 0, 0, 0, 0, time.UTC)
	// The raw local form resolves to the same account.
	user, err := svc.UpdateProfile(context.Background(), "0901234567", "An Nguyen", &dob, "female")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.FullName != "An Nguyen" || user.Gender != "female" {
		t.Errorf("profile = %q/%q", user.FullName, user.Gender)
	}

	stored, _ := store.GetByID(context.Background(), "u1")
	if stored.FullName != "An Nguyen" || stored.DOB == nil || !stored.DOB.Equal(dob) {
		t.Errorf("stored profile not updated: %+v", stored)
	}
}

func TestUpdateProfile_UnknownPhone(t *testing.T) {
	svc := NewService(newMemStore(), &sweepRecorder{}, &sweepRecorder{})
	if _, err := svc.UpdateProfile(context.Background(), "0900000000", "x", nil, ""); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestDelete_SweepsOwnedRows(t *testing.T) {
	store := newMemStore()
	store.add(&domain.User{ID: "u1", Phone: "+84901234567", PasswordHash: "h"})
	passcodes := &sweepRecorder{}
	tokens := &sweepRecorder{}
	svc := NewService(store, passcodes, tokens)

	if err := svc.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(passcodes.users) != 1 || passcodes.users[0] != "u1" {
		t.Errorf("passcode sweep = %v", passcodes.users)
	}
	if len(tokens.users) != 1 || tokens.users[0] != "u1" {
		t.Errorf("token sweep = %v", tokens.users)
	}
	if u, _ := store.GetByID(context.Background(), "u1"); u != nil {
		t.Error("user row still present")
	}
}

func TestDelete_Unknown(t *testing.T) {
	svc := NewService(newMemStore(), &sweepRecorder{}, &sweepRecorder{})
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}
