package databricks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/databricks/databricks-sdk-go/service/iam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGoroutines = 50

var errTestInvalidToken = errors.New("invalid token")

// identitySession counts identity checks. Other Session methods are unused.
type identitySession struct {
	Session
	checks   *atomic.Int32
	failures int32
	delay    time.Duration
}

func (s *identitySession) CurrentUser(_ context.Context) (*iam.User, error) {
	n := s.checks.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if n <= s.failures {
		return nil, errTestInvalidToken
	}
	return &iam.User{UserName: "someone@example.com"}, nil
}

func countingConnector(checks *atomic.Int32, connects *atomic.Int32, failures int32, delay time.Duration) Connector {
	return func(_ context.Context, _ Config) (Session, error) {
		connects.Add(1)
		return &identitySession{checks: checks, failures: failures, delay: delay}, nil
	}
}

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider(Config{Host: "https://example.cloud.databricks.com"})
	assert.Equal(t, DefaultWaitTimeout, p.Config().WaitTimeout)

	p = NewProvider(Config{WaitTimeout: time.Minute})
	assert.Equal(t, time.Minute, p.Config().WaitTimeout)
}

func TestProvider_MemoizesSession(t *testing.T) {
	var checks, connects atomic.Int32
	p := NewProvider(Config{}, WithConnector(countingConnector(&checks, &connects, 0, 0)))

	first, err := p.Session(context.Background())
	require.NoError(t, err)

	for range 10 {
		s, err := p.Session(context.Background())
		require.NoError(t, err)
		assert.Same(t, first, s)
	}

	assert.Equal(t, int32(1), checks.Load())
	assert.Equal(t, int32(1), connects.Load())
}

func TestProvider_FailureNotCached(t *testing.T) {
	var checks, connects atomic.Int32
	p := NewProvider(Config{}, WithConnector(countingConnector(&checks, &connects, 1, 0)))

	_, err := p.Session(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errTestInvalidToken)
	assert.Contains(t, err.Error(), "verifying databricks credentials")

	s, err := p.Session(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, int32(2), checks.Load())

	_, err = p.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), checks.Load())
}

func TestProvider_ConnectorError(t *testing.T) {
	errBadProfile := errors.New("profile not found")
	p := NewProvider(Config{}, WithConnector(func(context.Context, Config) (Session, error) {
		return nil, errBadProfile
	}))

	_, err := p.Session(context.Background())
	require.ErrorIs(t, err, errBadProfile)
	assert.Contains(t, err.Error(), "connecting to databricks")
	assert.Error(t, p.Ready(context.Background()))
}

func TestProvider_ConcurrentColdStart(t *testing.T) {
	var checks, connects atomic.Int32
	p := NewProvider(Config{}, WithConnector(countingConnector(&checks, &connects, 0, 20*time.Millisecond)))

	start := make(chan struct{})
	sessions := make([]Session, testGoroutines)
	var wg sync.WaitGroup
	for i := range testGoroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			s, err := p.Session(context.Background())
			assert.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), checks.Load())
	assert.Equal(t, int32(1), connects.Load())
	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
}

func TestProvider_CancelledCallerDoesNotPoison(t *testing.T) {
	var checks, connects atomic.Int32
	p := NewProvider(Config{}, WithConnector(countingConnector(&checks, &connects, 0, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := p.Session(ctx)
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.NoError(t, p.Ready(context.Background()))
	assert.Equal(t, int32(1), checks.Load())
}
