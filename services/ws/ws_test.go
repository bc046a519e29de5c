package ws

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/rss-feed-notifier/g"
	"github.com/darkkaiser/rss-feed-notifier/model"
	"github.com/darkkaiser/rss-feed-notifier/services/ws/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(ctx context.Context, text, callerID string) string { return text }

type nopTrigger struct{}

func (nopTrigger) Trigger(callerID string) bool { return true }

type nopHistory struct{}

func (nopHistory) Recent(ctx context.Context, n int) ([]*model.HistoryEntry, error) { return nil, nil }

func freePort(t *testing.T) int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

func TestService_RunAndStop(t *testing.T) {
	assert := assert.New(t)

	config := g.DefaultAppConfig()
	config.WS.ListenPort = freePort(t)

	s := NewService(config, handler.New(nopDispatcher{}, nopTrigger{}, nopHistory{}))

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	wg.Add(1)
	s.Run(ctx, wg)

	// 이미 시작된 서비스
	wg.Add(1)
	s.Run(ctx, wg)

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", config.WS.ListenPort)
	assert.Eventually(func() bool {
		res, err := http.Get(url)
		if err != nil {
			return false
		}
		defer res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		t.Fatal("웹 서비스가 중지되지 않았습니다.")
	}

	assert.False(s.running)

	_, err := http.Get(url)
	assert.Error(err)
}
