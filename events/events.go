package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeGameScored          EventType = "game_scored"
	EventTypeAchievementUnlocked EventType = "achievement_unlocked"
	EventTypeStreakCompleted     EventType = "streak_completed"
	EventTypeGriefDetected       EventType = "grief_detected"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// GameScoredEvent is emitted once a game has been durably marked scored
type GameScoredEvent struct {
	GameID      int64  `json:"game_id"`
	Player      string `json:"player"`
	Src         string `json:"src"`
	Won         bool   `json:"won"`
	Blacklisted bool   `json:"blacklisted"`
}

func (e GameScoredEvent) Type() EventType {
	return EventTypeGameScored
}

// AchievementUnlockedEvent represents an achievement added or a counter incremented
type AchievementUnlockedEvent struct {
	Player      string `json:"player"`
	Achievement string `json:"achievement"`
	GameID      int64  `json:"game_id"`
	Count       int64  `json:"count,omitempty"`
}

func (e AchievementUnlockedEvent) Type() EventType {
	return EventTypeAchievementUnlocked
}

// StreakCompletedEvent represents a streak finalized by a qualifying loss
type StreakCompletedEvent struct {
	Player        string    `json:"player"`
	Wins          []int64   `json:"wins"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	StreakBreaker int64     `json:"streak_breaker"`
}

func (e StreakCompletedEvent) Type() EventType {
	return EventTypeStreakCompleted
}

// GriefDetectedEvent represents a streak-ending loss judged a grief
type GriefDetectedEvent struct {
	Player     string `json:"player"`
	Src        string `json:"src"`
	GameID     int64  `json:"game_id"`
	StreakWins int    `json:"streak_wins"`
}

func (e GriefDetectedEvent) Type() EventType {
	return EventTypeGriefDetected
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// DefaultQueueSize is the number of events a subscription buffers before Emit blocks
const DefaultQueueSize = 256

var allEventTypes = []EventType{
	EventTypeGameScored,
	EventTypeAchievementUnlocked,
	EventTypeStreakCompleted,
	EventTypeGriefDetected,
}

type delivery struct {
	ctx   context.Context
	event Event
}

// subscription is one handler with its own queue and worker goroutine.
// Events reach the handler in emit order.
type subscription struct {
	id      int
	types   map[EventType]struct{}
	handler Handler
	queue   chan delivery
}

// Bus manages event subscriptions and dispatching.
// Every subscription has a single worker fed by a bounded queue, so a slow handler
// slows Emit down instead of piling up goroutines.
type Bus struct {
	mu        sync.RWMutex
	subs      []*subscription
	queueSize int
	closed    bool
	pending   sync.WaitGroup // events queued or being handled
	workers   sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return NewBusWithQueueSize(DefaultQueueSize)
}

// NewBusWithQueueSize creates a bus whose subscriptions buffer at most size events
func NewBusWithQueueSize(size int) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{queueSize: size}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.subscribe([]EventType{eventType}, handler)
}

// SubscribeAll adds a handler for every event type. The handler sees all events
// in the order they were emitted.
func (b *Bus) SubscribeAll(handler Handler) {
	b.subscribe(allEventTypes, handler)
}

func (b *Bus) subscribe(eventTypes []EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		log.Warn("Subscribe on closed event bus ignored")
		return
	}

	sub := &subscription{
		id:      len(b.subs),
		types:   make(map[EventType]struct{}, len(eventTypes)),
		handler: handler,
		queue:   make(chan delivery, b.queueSize),
	}
	for _, t := range eventTypes {
		sub.types[t] = struct{}{}
	}
	b.subs = append(b.subs, sub)

	b.workers.Add(1)
	go b.run(sub)

	log.WithFields(log.Fields{
		"eventTypes":   eventTypes,
		"handlerCount": len(b.subs),
	}).Debug("Subscribed handler to event types")
}

func (b *Bus) run(sub *subscription) {
	defer b.workers.Done()
	for d := range sub.queue {
		b.deliver(sub, d)
	}
}

func (b *Bus) deliver(sub *subscription, d delivery) {
	defer b.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"eventType":    d.event.Type(),
				"handlerIndex": sub.id,
				"panic":        r,
			}).Error("Event handler panicked")
		}
	}()
	sub.handler(d.ctx, d.event)
}

// Emit queues an event for every subscribed handler. It blocks while a handler's
// queue is full. Events emitted after Close are dropped.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		log.WithField("eventType", event.Type()).Warn("Emit on closed event bus dropped")
		return
	}

	for _, sub := range b.subs {
		if _, ok := sub.types[event.Type()]; !ok {
			continue
		}
		b.pending.Add(1)
		sub.queue <- delivery{ctx: ctx, event: event}
	}
}

// Wait blocks until every event emitted so far has been handled
func (b *Bus) Wait() {
	b.pending.Wait()
}

// Close drains the queues and stops the workers. The bus accepts no events afterwards.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.queue)
	}
	b.mu.Unlock()

	b.workers.Wait()
}

// TransactionalBus holds the events of one game until the game is durably scored.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the number of stashed events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush emits the pending events; called after the game is marked scored
func (b *TransactionalBus) Flush(ctx context.Context) {
	if b.real != nil {
		for _, ev := range b.pending {
			b.real.Emit(ctx, ev)
		}
	}
	b.pending = nil
}

// Discard drops the pending events; called when a game fails part way
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
