package repo

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUsers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.CreateUser(ctx, "pilot", "p@example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	_, err = m.CreateUser(ctx, "pilot", "x@example.com", "hash")
	assert.Error(t, err)

	got, hash, err := m.GetBylogin(ctx, "pilot")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, "hash", hash)

	got, _, err = m.GetBylogin(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestMemoryConfigs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first, err := m.SaveConfig(ctx, 1, "first", []byte(`{"a":1}`))
	require.NoError(t, err)
	second, err := m.SaveConfig(ctx, 1, "second", []byte(`{"a":2}`))
	require.NoError(t, err)
	_, err = m.SaveConfig(ctx, 2, "foreign", []byte(`{}`))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	list, err := m.ListConfigs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Name)
	assert.Equal(t, "first", list[1].Name)

	got, err := m.GetConfig(ctx, 1, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got.Payload)

	_, err = m.GetConfig(ctx, 2, first.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(m.DeleteConfig(ctx, 2, first.ID), ErrNotFound))
	assert.True(t, errors.Is(m.DeleteConfig(ctx, 1, uuid.New()), ErrNotFound))

	require.NoError(t, m.DeleteConfig(ctx, 1, first.ID))
	_, err = m.GetConfig(ctx, 1, first.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryHistory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var entries []HistoryEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, HistoryEntry{RecordedAt: start.AddDate(0, 0, i), Ratio: 1 + float64(i)/10})
	}
	require.NoError(t, m.AppendHistory(ctx, 1, entries...))

	all, err := m.ListHistory(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, entries, all)

	last, err := m.ListHistory(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, entries[3:], last)

	last[0].Ratio = 99
	again, err := m.ListHistory(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, entries[3].Ratio, again[0].Ratio)
}

func TestMemoryConfigsSavedAtSameInstant(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := m.SaveConfig(ctx, 1, name, []byte(`{}`))
		require.NoError(t, err)
	}

	first, err := m.ListConfigs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, first, 5)
	for i := 1; i < len(first); i++ {
		assert.Negative(t, bytes.Compare(first[i-1].ID[:], first[i].ID[:]))
	}
	for i := 0; i < 10; i++ {
		again, err := m.ListConfigs(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	db, err := Open("")
	assert.Error(t, err)
	assert.Nil(t, db)
}
