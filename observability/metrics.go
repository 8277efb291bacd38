package observability

import (
	"context"
	"fmt"
	"time"

	"scoreboard/events"
	"scoreboard/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
)

// RunMetrics collects the metrics of one scoring run on a private registry.
// A batch job has no scrape endpoint, so the registry is pushed when the run ends.
type RunMetrics struct {
	registry *prometheus.Registry

	GamesProcessed   *prometheus.CounterVec
	Achievements     *prometheus.CounterVec
	StreaksCompleted prometheus.Counter
	GriefsDetected   prometheus.Counter
	CacheEvictions   *prometheus.CounterVec
	RunDuration      prometheus.Gauge
	RunPlayers       prometheus.Gauge
	LastSuccess      prometheus.Gauge
}

// NewRunMetrics creates and registers the run metrics
func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		GamesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      GamesProcessedTotal,
			Help:      "Games marked scored, by result",
		}, []string{LabelResult}),
		Achievements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      AchievementsTotal,
			Help:      "Achievements unlocked or incremented",
		}, []string{LabelAchievement}),
		StreaksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      StreaksCompletedTotal,
			Help:      "Streaks finalized by a qualifying loss",
		}),
		GriefsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      GriefsDetectedTotal,
			Help:      "Streak-ending losses judged griefs",
		}),
		CacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      CacheEvictionsTotal,
			Help:      "Stats cache entries flushed to the store on eviction",
		}, []string{LabelCache}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      RunDurationSeconds,
			Help:      "Wall time of the last scoring run",
		}),
		RunPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      RunPlayers,
			Help:      "Distinct players seen by the last scoring run",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      RunLastSuccessTimestamp,
			Help:      "Unix time the last scoring run completed",
		}),
	}

	m.registry.MustRegister(
		m.GamesProcessed,
		m.Achievements,
		m.StreaksCompleted,
		m.GriefsDetected,
		m.CacheEvictions,
		m.RunDuration,
		m.RunPlayers,
		m.LastSuccess,
	)
	return m
}

// HandleEvent counts a scoring event. It is registered on the event bus.
func (m *RunMetrics) HandleEvent(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.GameScoredEvent:
		result := ResultScored
		if e.Blacklisted {
			result = ResultBlacklisted
		}
		m.GamesProcessed.WithLabelValues(result).Inc()
	case events.AchievementUnlockedEvent:
		m.Achievements.WithLabelValues(e.Achievement).Inc()
	case events.StreakCompletedEvent:
		m.StreaksCompleted.Inc()
	case events.GriefDetectedEvent:
		m.GriefsDetected.Inc()
	}
}

// ObserveEviction counts one eviction from the named cache
func (m *RunMetrics) ObserveEviction(cache string) {
	m.CacheEvictions.WithLabelValues(cache).Inc()
}

// RecordRun records the totals of a finished run. Malformed games produce no events,
// so they are counted here.
func (m *RunMetrics) RecordRun(summary *models.ScoringSummary) {
	m.GamesProcessed.WithLabelValues(ResultInvalid).Add(float64(summary.Invalid))
	m.RunDuration.Set(summary.Duration.Seconds())
	m.RunPlayers.Set(float64(summary.PlayerCount()))
	m.LastSuccess.Set(float64(time.Now().Unix()))
}

// Push sends the registry to the Pushgateway at url, grouped by run id
func (m *RunMetrics) Push(ctx context.Context, url, runID string) error {
	err := push.New(url, JobName).
		Gatherer(m.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}

	log.WithFields(log.Fields{
		"url":    url,
		"run_id": runID,
	}).Debug("Pushed run metrics")
	return nil
}
