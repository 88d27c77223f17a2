package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csms/core/internal/cache"
)

func TestManager_GetOrCreateReusesSession(t *testing.T) {
	sender := &recordingSender{}
	m := NewManager(Config{}, newFakeStoreForSession(), cache.New(time.Minute), sender.send, nil, nil)
	defer func() {
		for _, s := range m.All() {
			s.Close()
		}
	}()

	s1 := m.GetOrCreate("CP-1")
	s2 := m.GetOrCreate("CP-1")
	assert.Same(t, s1, s2)
}

func TestManager_RemoveStopsSession(t *testing.T) {
	sender := &recordingSender{}
	m := NewManager(Config{}, newFakeStoreForSession(), cache.New(time.Minute), sender.send, nil, nil)

	s := m.GetOrCreate("CP-1")
	require.NoError(t, s.Connect())
	m.Remove("CP-1")

	_, ok := m.Get("CP-1")
	assert.False(t, ok)
}

func TestManager_All(t *testing.T) {
	sender := &recordingSender{}
	m := NewManager(Config{}, newFakeStoreForSession(), cache.New(time.Minute), sender.send, nil, nil)
	defer func() {
		for _, s := range m.All() {
			s.Close()
		}
	}()

	m.GetOrCreate("CP-1")
	m.GetOrCreate("CP-2")
	assert.Len(t, m.All(), 2)
}
