package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

const (
	DriverPoolSize = 10
	WorkerPoolSize = 5
)

// Assignment strategies selectable by configuration.
const (
	StrategyRoundRobin = "round_robin"
	StrategyRandom     = "random"
)

var (
	ErrEmptyPool       = errors.New("assignment pool is empty")
	ErrUnknownStrategy = errors.New("unknown assignment strategy")
)

// AssignmentContext describes what is being assigned.
type AssignmentContext struct {
	OrderID  string
	Quantity int
	ZoneID   string
}

// AssignmentPolicy picks one member of pool.
type AssignmentPolicy interface {
	Select(pool []string, actx AssignmentContext) (string, error)
}

// DriverPool returns "Driver 1" through "Driver 10".
func DriverPool() []string {
	return numberedPool("Driver", DriverPoolSize)
}

// WorkerPool returns "Worker 1" through "Worker 5".
func WorkerPool() []string {
	return numberedPool("Worker", WorkerPoolSize)
}

func numberedPool(prefix string, size int) []string {
	pool := make([]string, 0, size)
	for i := 1; i <= size; i++ {
		pool = append(pool, fmt.Sprintf("%s %d", prefix, i))
	}
	return pool
}

// RoundRobin cycles through the pool in order. It is safe for concurrent use.
type RoundRobin struct {
	mu   sync.Mutex
	next int
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

func (r *RoundRobin) Select(pool []string, _ AssignmentContext) (string, error) {
	if len(pool) == 0 {
		return "", ErrEmptyPool
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	choice := pool[r.next%len(pool)]
	r.next = (r.next + 1) % len(pool)
	return choice, nil
}

// Random picks uniformly from a seeded source, so a fixed seed gives a fixed sequence.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Select(pool []string, _ AssignmentContext) (string, error) {
	if len(pool) == 0 {
		return "", ErrEmptyPool
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return pool[r.rng.Intn(len(pool))], nil
}

// NewAssignmentPolicy builds the policy named by strategy. Empty selects round robin.
func NewAssignmentPolicy(strategy string, seed int64) (AssignmentPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyRoundRobin:
		return NewRoundRobin(), nil
	case StrategyRandom:
		return NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

var (
	_ AssignmentPolicy = (*RoundRobin)(nil)
	_ AssignmentPolicy = (*Random)(nil)
)
