package types

import "sync"

// MockLogger is a no-op Logger that records every message it receives so
// tests can assert on diagnostics without wiring a real zap core.
type MockLogger struct {
	mu       sync.Mutex
	Messages []string
}

func (m *MockLogger) record(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
}

func (m *MockLogger) Debug(msg string, fields ...interface{})  { m.record(msg) }
func (m *MockLogger) Info(msg string, fields ...interface{})   { m.record(msg) }
func (m *MockLogger) Warn(msg string, fields ...interface{})   { m.record(msg) }
func (m *MockLogger) Error(msg string, fields ...interface{})  { m.record(msg) }
func (m *MockLogger) Fatalf(msg string, fields ...interface{}) { m.record(msg) }
