package testutil

import (
	"github.com/stretchr/testify/mock"

	"github.com/TheMichaelB/pinvault/internal/state"
)

// MockStore is a testify mock of state.Store.
type MockStore struct {
	mock.Mock
}

var _ state.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Get(name string) ([]byte, error) {
	args := m.Called(name)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Put(name string, value []byte) error {
	return m.Called(name, value).Error(0)
}

func (m *MockStore) Delete(name string) error {
	return m.Called(name).Error(0)
}

func (m *MockStore) List() ([]string, error) {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Reset() error {
	return m.Called().Error(0)
}

func (m *MockStore) Migrate(target state.Store) error {
	return m.Called(target).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}
