package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockStreamClient is an in-memory StreamClient for testing
type MockStreamClient struct {
	mu      sync.Mutex
	Streams map[string][]map[string]string
	// FailFirst fails that many publishes before succeeding
	FailFirst int
	calls     int
}

// NewMockStreamClient creates an empty MockStreamClient
func NewMockStreamClient() *MockStreamClient {
	return &MockStreamClient{Streams: make(map[string][]map[string]string)}
}

func (m *MockStreamClient) PublishToStream(ctx context.Context, stream string, key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.calls <= m.FailFirst {
		return fmt.Errorf("mock publish failure %d", m.calls)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.Streams[stream] = append(m.Streams[stream], map[string]string{key: string(data)})
	return nil
}

func (m *MockStreamClient) StreamLength(ctx context.Context, stream string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.Streams[stream])), nil
}

// Calls returns the number of publish attempts
func (m *MockStreamClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockStreamClient) Close() error {
	return nil
}
