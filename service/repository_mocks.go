package service

import (
	"context"

	"scoreboard/models"

	"github.com/stretchr/testify/mock"
)

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) FetchUnscored(ctx context.Context, limit int) ([]*models.GameRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameRecord), args.Error(1)
}

func (m *MockGameRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.GameRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameRecord), args.Error(1)
}

func (m *MockGameRepository) FirstGameID(ctx context.Context, name, src string) (int64, error) {
	args := m.Called(ctx, name, src)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGameRepository) MarkScored(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGameRepository) UnscoreAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGameRepository) UnscoreAllOfPlayer(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockPlayerStatsRepository is a mock implementation of PlayerStatsRepository
type MockPlayerStatsRepository struct {
	mock.Mock
}

func (m *MockPlayerStatsRepository) Get(ctx context.Context, name string) (*models.PlayerStats, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStats), args.Error(1)
}

func (m *MockPlayerStatsRepository) Set(ctx context.Context, name string, stats *models.PlayerStats) error {
	args := m.Called(ctx, name, stats)
	return args.Error(0)
}

func (m *MockPlayerStatsRepository) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockPlayerStatsRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockGlobalStatRepository is a mock implementation of GlobalStatRepository
type MockGlobalStatRepository struct {
	mock.Mock
}

func (m *MockGlobalStatRepository) Get(ctx context.Context, key string, dst any) (bool, error) {
	args := m.Called(ctx, key, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockGlobalStatRepository) Set(ctx context.Context, key string, value any) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockGlobalStatRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGlobalStatRepository) DeletePlayerStreaks(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockBlacklistRepository is a mock implementation of BlacklistRepository
type MockBlacklistRepository struct {
	mock.Mock
}

func (m *MockBlacklistRepository) All(ctx context.Context) ([]*models.BlacklistEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BlacklistEntry), args.Error(1)
}

func (m *MockBlacklistRepository) Add(ctx context.Context, name, src string) error {
	args := m.Called(ctx, name, src)
	return args.Error(0)
}

// MockStore is a mock implementation of Store. Transactions run fn against the same
// mock repositories.
type MockStore struct {
	mock.Mock
	games     GameRepository
	stats     PlayerStatsRepository
	globals   GlobalStatRepository
	blacklist BlacklistRepository
}

// SetRepositories sets the repositories returned by the store
func (m *MockStore) SetRepositories(games GameRepository, stats PlayerStatsRepository, globals GlobalStatRepository, blacklist BlacklistRepository) {
	m.games = games
	m.stats = stats
	m.globals = globals
	m.blacklist = blacklist
}

func (m *MockStore) GameRepository() GameRepository {
	return m.games
}

func (m *MockStore) PlayerStatsRepository() PlayerStatsRepository {
	return m.stats
}

func (m *MockStore) GlobalStatRepository() GlobalStatRepository {
	return m.globals
}

func (m *MockStore) BlacklistRepository() BlacklistRepository {
	return m.blacklist
}

func (m *MockStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}
