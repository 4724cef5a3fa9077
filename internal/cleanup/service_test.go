package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) CleanupUnverified(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestCleanupReturnsCount(t *testing.T) {
	store := &mockStore{}
	store.On("CleanupUnverified", mock.Anything).Return(3, nil)

	svc := NewService(store, 0, nil)
	n, err := svc.Cleanup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	store.AssertExpectations(t)
}

func TestCleanupNegativeCountIsError(t *testing.T) {
	store := &mockStore{}
	store.On("CleanupUnverified", mock.Anything).Return(-1, nil)

	svc := NewService(store, 0, nil)
	_, err := svc.Cleanup(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative count")
}

func TestCleanupPropagatesBackendError(t *testing.T) {
	store := &mockStore{}
	backendErr := errors.New("connection refused")
	store.On("CleanupUnverified", mock.Anything).Return(0, backendErr)

	svc := NewService(store, 0, nil)
	_, err := svc.Cleanup(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, backendErr))
}

func TestRunExecutesImmediatelyAndStopsOnCancel(t *testing.T) {
	store := &mockStore{}
	called := make(chan struct{}, 1)
	store.On("CleanupUnverified", mock.Anything).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	}).Return(0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	svc := NewService(store, time.Hour, nil)
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("cleanup was not run on start")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}

func TestRunSwallowsErrors(t *testing.T) {
	store := &mockStore{}
	store.On("CleanupUnverified", mock.Anything).Return(0, errors.New("boom"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	svc := NewService(store, time.Hour, nil)
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	// the failing first run must not panic or exit the loop
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
