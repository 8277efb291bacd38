package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"scoreboard/models"
)

// memoryStore is an in-memory Store. Stats are stored as JSON like the real tables
// so cached values never alias stored ones.
type memoryStore struct {
	games     map[int64]*models.GameRecord
	stats     map[string][]byte
	globals   map[string][]byte
	blacklist []*models.BlacklistEntry

	setCalls  int
	failOnSet error
	failTx    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		games:   make(map[int64]*models.GameRecord),
		stats:   make(map[string][]byte),
		globals: make(map[string][]byte),
	}
}

func (s *memoryStore) addGame(g *models.GameRecord) {
	if g.ID == 0 {
		g.ID = int64(len(s.games) + 1)
	}
	s.games[g.ID] = g
}

func (s *memoryStore) storedStats(name string) *models.PlayerStats {
	data, ok := s.stats[name]
	if !ok {
		return nil
	}
	var stats models.PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		panic(err)
	}
	return &stats
}

func (s *memoryStore) GameRepository() GameRepository               { return memoryGames{s} }
func (s *memoryStore) PlayerStatsRepository() PlayerStatsRepository { return memoryStats{s} }
func (s *memoryStore) GlobalStatRepository() GlobalStatRepository   { return memoryGlobals{s} }
func (s *memoryStore) BlacklistRepository() BlacklistRepository     { return memoryBlacklist{s} }

func (s *memoryStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	if s.failTx != nil {
		return s.failTx
	}
	return fn(s)
}

type memoryGames struct{ s *memoryStore }

func (r memoryGames) FetchUnscored(ctx context.Context, limit int) ([]*models.GameRecord, error) {
	var out []*models.GameRecord
	for _, g := range r.s.games {
		if !g.Scored {
			c := *g
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memoryGames) GetByIDs(ctx context.Context, ids []int64) ([]*models.GameRecord, error) {
	var out []*models.GameRecord
	for _, id := range ids {
		if g, ok := r.s.games[id]; ok {
			c := *g
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memoryGames) FirstGameID(ctx context.Context, name, src string) (int64, error) {
	var first int64
	for id, g := range r.s.games {
		if g.Name == name && g.Src == src && (first == 0 || id < first) {
			first = id
		}
	}
	return first, nil
}

func (r memoryGames) MarkScored(ctx context.Context, id int64) error {
	if g, ok := r.s.games[id]; ok {
		g.Scored = true
	}
	return nil
}

func (r memoryGames) UnscoreAll(ctx context.Context) error {
	for _, g := range r.s.games {
		g.Scored = false
	}
	return nil
}

func (r memoryGames) UnscoreAllOfPlayer(ctx context.Context, name string) error {
	for _, g := range r.s.games {
		if g.Name == name {
			g.Scored = false
		}
	}
	return nil
}

type memoryStats struct{ s *memoryStore }

func (r memoryStats) Get(ctx context.Context, name string) (*models.PlayerStats, error) {
	return r.s.storedStats(name), nil
}

func (r memoryStats) Set(ctx context.Context, name string, stats *models.PlayerStats) error {
	r.s.setCalls++
	if r.s.failOnSet != nil {
		return r.s.failOnSet
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	r.s.stats[name] = data
	return nil
}

func (r memoryStats) Delete(ctx context.Context, name string) error {
	delete(r.s.stats, name)
	return nil
}

func (r memoryStats) DeleteAll(ctx context.Context) error {
	r.s.stats = make(map[string][]byte)
	return nil
}

type memoryGlobals struct{ s *memoryStore }

func (r memoryGlobals) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, ok := r.s.globals[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (r memoryGlobals) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.s.globals[key] = data
	return nil
}

func (r memoryGlobals) DeleteAll(ctx context.Context) error {
	r.s.globals = make(map[string][]byte)
	return nil
}

func (r memoryGlobals) DeletePlayerStreaks(ctx context.Context, name string) error {
	key := models.StreakName(name)

	var active models.ActiveStreaks
	if ok, err := r.Get(ctx, models.GlobalStatActiveStreaks, &active); err != nil {
		return err
	} else if ok {
		delete(active, key)
		if err := r.Set(ctx, models.GlobalStatActiveStreaks, active); err != nil {
			return err
		}
	}

	var completed models.CompletedStreaks
	if ok, err := r.Get(ctx, models.GlobalStatCompletedStreaks, &completed); err != nil {
		return err
	} else if ok {
		kept := completed[:0]
		for _, streak := range completed {
			if !strings.EqualFold(streak.Name, key) {
				kept = append(kept, streak)
			}
		}
		return r.Set(ctx, models.GlobalStatCompletedStreaks, kept)
	}
	return nil
}

type memoryBlacklist struct{ s *memoryStore }

func (r memoryBlacklist) All(ctx context.Context) ([]*models.BlacklistEntry, error) {
	return r.s.blacklist, nil
}

func (r memoryBlacklist) Add(ctx context.Context, name, src string) error {
	r.s.blacklist = append(r.s.blacklist, &models.BlacklistEntry{
		ID:        int64(len(r.s.blacklist) + 1),
		Name:      name,
		Src:       src,
		CreatedAt: time.Now(),
	})
	return nil
}
