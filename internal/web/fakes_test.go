package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
)

// memStore is an in-memory core.Store.
type memStore struct {
	mu        sync.Mutex
	users     []core.StoredUser
	nextID    int64
	insertErr error
	pingErr   error
}

func (m *memStore) InsertUsers(_ context.Context, rows []core.UserRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	for _, r := range rows {
		m.nextID++
		m.users = append(m.users, core.StoredUser{
			ID:             m.nextID,
			Name:           r.Name,
			Age:            r.Age,
			Address:        r.Address,
			AdditionalInfo: r.AdditionalInfo,
			CreatedAt:      time.Now(),
		})
	}
	return int64(len(rows)), nil
}

func (m *memStore) Ages(context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ages := make([]int, len(m.users))
	for i, u := range m.users {
		ages[i] = u.Age
	}
	return ages, nil
}

func (m *memStore) ListUsers(_ context.Context, limit int) ([]core.StoredUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := min(limit, len(m.users))
	return append([]core.StoredUser(nil), m.users[:n]...), nil
}

func (m *memStore) DeleteUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.users))
	m.users = nil
	return n, nil
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) EnsureSchema(context.Context) error { return nil }

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

var errConnReset = errors.New("write tcp 10.0.0.2:5432: connection reset by peer")

// testConfig returns a configuration with rate limiting and auth off.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			ReadTimeout:    5 * time.Second,
			IdleTimeout:    5 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Driver:         config.DriverSQLite,
			ConnectTimeout: time.Second,
		},
		Import: config.ImportConfig{
			BatchSize:     2,
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       10 * time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}
