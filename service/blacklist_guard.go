package service

import (
	"context"
	"fmt"

	"scoreboard/config"

	log "github.com/sirupsen/logrus"
)

// BlacklistGuard answers whether a player/server pair is excluded from scoring.
// It combines the static bot and griefer tables with blacklist entries learned by
// grief detection and persisted in the store.
type BlacklistGuard struct {
	bots     map[string]struct{}
	griefers map[string]map[string]struct{}
	repo     BlacklistRepository

	// learned maps player name to blacklisted servers. Repeated additions of the
	// same pair are kept; membership does not depend on it.
	learned map[string][]string
	loaded  bool
}

// NewBlacklistGuard creates a guard over the static tables and the learned blacklist
func NewBlacklistGuard(tables *config.Tables, repo BlacklistRepository) *BlacklistGuard {
	return &BlacklistGuard{
		bots:     tables.Bots,
		griefers: tables.Griefers,
		repo:     repo,
		learned:  make(map[string][]string),
	}
}

// Preload fills the learned blacklist from the store. It must run before scoring.
func (g *BlacklistGuard) Preload(ctx context.Context) error {
	entries, err := g.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load blacklisted players: %w", err)
	}
	for _, entry := range entries {
		g.remember(entry.Name, entry.Src)
	}
	g.loaded = true

	log.WithField("entries", len(entries)).Debug("Loaded learned blacklist")
	return nil
}

// Loaded reports whether Preload has completed
func (g *BlacklistGuard) Loaded() bool {
	return g.loaded
}

// IsBlacklisted reports whether games by name on src must be skipped
func (g *BlacklistGuard) IsBlacklisted(name, src string) bool {
	if _, ok := g.bots[name]; ok {
		return true
	}
	if _, ok := g.griefers[name][src]; ok {
		return true
	}
	for _, s := range g.learned[name] {
		if s == src {
			return true
		}
	}
	return false
}

// Add blacklists name on src in memory and persists the pair
func (g *BlacklistGuard) Add(ctx context.Context, name, src string) error {
	g.remember(name, src)
	if err := g.repo.Add(ctx, name, src); err != nil {
		return fmt.Errorf("failed to persist blacklist entry for %s on %s: %w", name, src, err)
	}
	return nil
}

// LearnedSources returns the servers learned for name, duplicates included
func (g *BlacklistGuard) LearnedSources(name string) []string {
	return g.learned[name]
}

func (g *BlacklistGuard) remember(name, src string) {
	g.learned[name] = append(g.learned[name], src)
}
