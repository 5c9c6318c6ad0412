package service

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/stock-inventory/internal/model"
	"github.com/iliyamo/stock-inventory/internal/queue"
	"github.com/iliyamo/stock-inventory/internal/repository"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, u model.NewUser) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) UpdateRefreshToken(ctx context.Context, hash *string, userID int64) error {
	return m.Called(ctx, hash, userID).Error(0)
}

type mockCompanies struct{ mock.Mock }

func (m *mockCompanies) NameTaken(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockCompanies) GetByID(ctx context.Context, id int64) (model.Company, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Company), args.Error(1)
}

func (m *mockCompanies) Create(ctx context.Context, ownerID int64, c model.NewCompany) (int64, error) {
	args := m.Called(ctx, ownerID, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCompanies) Update(ctx context.Context, companyID int64, p model.CompanyPatch) error {
	return m.Called(ctx, companyID, p).Error(0)
}

func (m *mockCompanies) Delete(ctx context.Context, companyID int64) error {
	return m.Called(ctx, companyID).Error(0)
}

type mockMembers struct{ mock.Mock }

func (m *mockMembers) List(ctx context.Context, companyID int64) ([]model.CompanyUser, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]model.CompanyUser), args.Error(1)
}

func (m *mockMembers) Remove(ctx context.Context, companyID, userID int64) error {
	return m.Called(ctx, companyID, userID).Error(0)
}

func (m *mockMembers) UpdateRole(ctx context.Context, companyID, userID int64, role model.Role) error {
	return m.Called(ctx, companyID, userID, role).Error(0)
}

type mockProducts struct{ mock.Mock }

func (m *mockProducts) List(ctx context.Context, companyID int64, q model.ProductQuery) ([]model.Product, error) {
	args := m.Called(ctx, companyID, q)
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *mockProducts) Count(ctx context.Context, companyID int64) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProducts) Search(ctx context.Context, companyID int64, q model.ProductQuery) ([]model.Product, error) {
	args := m.Called(ctx, companyID, q)
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *mockProducts) CountSearch(ctx context.Context, companyID int64, term string) (int64, error) {
	args := m.Called(ctx, companyID, term)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProducts) GetByID(ctx context.Context, companyID, productID int64) (model.Product, error) {
	args := m.Called(ctx, companyID, productID)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockProducts) Create(ctx context.Context, p model.NewProduct) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockProducts) Update(ctx context.Context, companyID, productID int64, p model.ProductPatch) error {
	return m.Called(ctx, companyID, productID, p).Error(0)
}

func (m *mockProducts) Delete(ctx context.Context, companyID, productID int64) error {
	return m.Called(ctx, companyID, productID).Error(0)
}

// recorder collects published events and invalidated companies.
type recorder struct {
	mu          sync.Mutex
	events      []queue.Event
	invalidated []int64
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Invalidate(_ context.Context, companyID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, companyID)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// memUsers is a stateful user table used where a session must survive
// several calls.
type memUsers struct {
	mu    sync.Mutex
	users map[int64]model.User
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{users: map[int64]model.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u model.NewUser) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.users) + 1)
	m.users[id] = model.User{ID: id, Name: u.Name, LastName: u.LastName, Email: u.Email, Phone: u.Phone, PasswordHash: u.PasswordHash}
	return id, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) UpdateRefreshToken(_ context.Context, hash *string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	if hash == nil {
		u.RefreshTokenHash = nil
	} else {
		h := *hash
		u.RefreshTokenHash = &h
	}
	m.users[userID] = u
	return nil
}

func (m *memUsers) storedHash(id int64) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].RefreshTokenHash
}
