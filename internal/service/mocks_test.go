package service

import (
	"context"
	"sync"

	"induction-portal/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock type for the domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockVideoCompletionService lets progression tests script ledger answers chapter by chapter.
type MockVideoCompletionService struct {
	mock.Mock
}

func (m *MockVideoCompletionService) RecordProgress(ctx context.Context, session *domain.Session, chapterID string, progress VideoProgress) (*domain.VideoCompletion, error) {
	args := m.Called(ctx, session, chapterID, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoCompletion), args.Error(1)
}

func (m *MockVideoCompletionService) MarkCompleted(ctx context.Context, session *domain.Session, chapterID, submissionID string, totalSeconds *int) (*domain.VideoCompletion, error) {
	args := m.Called(ctx, session, chapterID, submissionID, totalSeconds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoCompletion), args.Error(1)
}

func (m *MockVideoCompletionService) Completion(ctx context.Context, session *domain.Session, chapterID, submissionID string) (*domain.VideoCompletion, error) {
	args := m.Called(ctx, session, chapterID, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoCompletion), args.Error(1)
}

func (m *MockVideoCompletionService) VideoURL(ctx context.Context, session *domain.Session, chapterID, submissionID string) (string, error) {
	args := m.Called(ctx, session, chapterID, submissionID)
	return args.String(0), args.Error(1)
}

func (m *MockVideoCompletionService) IsCompleted(ctx context.Context, submission *domain.Submission, chapter *domain.Chapter) (bool, error) {
	args := m.Called(ctx, submission, chapter.ID)
	return args.Bool(0), args.Error(1)
}

// memUsers is a minimal user store for services that only read users.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUsers(users ...*domain.User) *memUsers {
	m := &memUsers{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.NewConflictError("An account with this email already exists")
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}
