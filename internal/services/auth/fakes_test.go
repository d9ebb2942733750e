package auth

import (
	"context"
	"fmt"
	"sync"

	"artemis/internal/domain/models"
	"artemis/internal/repository"
	"artemis/internal/storage"

	"github.com/google/uuid"
)

// fakeStore is an in-memory TokenStore with the same miss semantics as the
// redis repository.
type fakeStore struct {
	mu      sync.Mutex
	tokens  map[string]*models.TokenRecord
	userMap map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens:  make(map[string]*models.TokenRecord),
		userMap: make(map[string]string),
	}
}

func mapKey(endType models.EndType, userID uuid.UUID) string {
	return string(endType) + ":" + userID.String()
}

func (s *fakeStore) CacheToken(_ context.Context, symbol string, record *models.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.tokens[symbol] = &copied
	return nil
}

func (s *fakeStore) FindToken(_ context.Context, symbol string, _ bool) (*models.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tokens[symbol]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *fakeStore) RemoveToken(_ context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, symbol)
	return nil
}

func (s *fakeStore) BindUserToken(_ context.Context, endType models.EndType, userID uuid.UUID, symbol string, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userMap[mapKey(endType, userID)] = symbol
	return nil
}

func (s *fakeStore) FindUserToken(_ context.Context, endType models.EndType, userID uuid.UUID, _ bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbol, ok := s.userMap[mapKey(endType, userID)]
	if !ok {
		return "", repository.ErrTokenNotFound
	}
	return symbol, nil
}

func (s *fakeStore) UnbindUserToken(_ context.Context, endType models.EndType, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userMap, mapKey(endType, userID))
	return nil
}

// fakeUsers implements UserSaver and UserProvider over maps.
type fakeUsers struct {
	mu         sync.Mutex
	byName     map[string]*models.User
	roles      map[uuid.UUID][]models.RoleInfo
	userClaims map[uuid.UUID][]models.UserClaim
	roleClaims map[uuid.UUID][]models.UserClaim
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byName:     make(map[string]*models.User),
		roles:      make(map[uuid.UUID][]models.RoleInfo),
		userClaims: make(map[uuid.UUID][]models.UserClaim),
		roleClaims: make(map[uuid.UUID][]models.UserClaim),
	}
}

func (f *fakeUsers) SaveUser(_ context.Context, userName, email, passHash string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byName[userName]; exists {
		return uuid.Nil, fmt.Errorf("save user: %w", storage.ErrUserExists)
	}
	id := uuid.New()
	f.byName[userName] = &models.User{ID: id, UserName: userName, Email: email, PassHash: passHash}
	return id, nil
}

func (f *fakeUsers) UpdatePassHash(_ context.Context, id uuid.UUID, passHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			u.PassHash = passHash
			return nil
		}
	}
	return storage.ErrUserNotFound
}

func (f *fakeUsers) User(_ context.Context, userName string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byName[userName]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) UserRoles(_ context.Context, userID uuid.UUID) ([]models.RoleInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[userID], nil
}

func (f *fakeUsers) UserClaims(_ context.Context, userID uuid.UUID) ([]models.UserClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userClaims[userID], nil
}

func (f *fakeUsers) RoleClaims(_ context.Context, roleIDs []uuid.UUID) ([]models.UserClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var claims []models.UserClaim
	for _, id := range roleIDs {
		claims = append(claims, f.roleClaims[id]...)
	}
	return claims, nil
}

// recorder collects audit events.
type recorder struct {
	mu     sync.Mutex
	topics []models.Topic
}

func (r *recorder) SendEvent(_ map[string]interface{}, topic models.Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}
