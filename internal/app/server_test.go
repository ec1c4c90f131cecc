package app

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Philipp01105/logging-framework/internal/config"
)

// TestServer_E1_EndToEndIngestAndPersist exercises the full wiring — ingest
// -> ring buffer -> processor pool -> storage sink — through a live TCP
// connection, mirroring spec.md's E1 scenario end to end.
func TestServer_E1_EndToEndIngestAndPersist(t *testing.T) {
	cfg := config.Defaults()
	cfg.ServerPort = 0
	cfg.MetricsPort = 0
	cfg.BufferSize = 5
	cfg.ThreadPoolSize = 1
	cfg.StorageDirectory = t.TempDir()

	srv, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(done)
	}()

	var addr net.Addr
	require.Eventually(t, func() bool {
		addr = srv.Addr()
		return addr != nil
	}, time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	r := bufio.NewReader(conn)
	_, err = r.ReadString('\n') // greeting
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		_, err := conn.Write([]byte("INFO|A|h|m" + string(rune('0'+i)) + "|\n"))
		require.NoError(t, err)
		reply, err := r.ReadString('\n')
		require.NoError(t, err)
		require.Contains(t, reply, "OK:QUEUED:")
	}

	// Five records stay below the worker's batch target of 10, so they are
	// flushed by the 5s batch timeout; allow for that plus a poll interval.
	require.Eventually(t, func() bool {
		recs, err := srv.sink.GetByApplication("A", 0)
		return err == nil && len(recs) == 5
	}, 7*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
