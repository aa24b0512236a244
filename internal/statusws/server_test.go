package statusws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tiroq/mutewatch/internal/ipc"
	"github.com/tiroq/mutewatch/testutil"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	s := New()
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	url := "ws://" + s.Addr() + "/status"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) *ipc.StatusSnapshot {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var snap ipc.StatusSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return &snap
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)

	s.Broadcast(&ipc.StatusSnapshot{State: "muted", IntervalMS: 200, IconSize: 100})

	snap := readSnapshot(t, conn)
	if snap.State != "muted" {
		t.Errorf("state: got %q, want muted", snap.State)
	}
	if snap.IntervalMS != 200 || snap.IconSize != 100 {
		t.Errorf("snapshot fields lost: %+v", snap)
	}
}

func TestNewSubscriberGetsLatestSnapshot(t *testing.T) {
	s := startServer(t)

	s.Broadcast(&ipc.StatusSnapshot{State: "unmuted"})

	conn := dial(t, s)
	snap := readSnapshot(t, conn)
	if snap.State != "unmuted" {
		t.Errorf("replayed state: got %q, want unmuted", snap.State)
	}
}

func TestBroadcastFansOut(t *testing.T) {
	s := startServer(t)
	a := dial(t, s)
	b := dial(t, s)

	testutil.WaitForCondition(t, func() bool { return s.ClientCount() == 2 },
		2*time.Second, "both subscribers registered")

	s.Broadcast(&ipc.StatusSnapshot{State: "unknown", Detail: "Zoom is not running"})

	for _, conn := range []*websocket.Conn{a, b} {
		snap := readSnapshot(t, conn)
		if snap.State != "unknown" || snap.Detail == "" {
			t.Errorf("fan-out snapshot: %+v", snap)
		}
	}
}

func TestSubscribeDuringBroadcastStorm(t *testing.T) {
	// Subscribers connecting mid-stream must get their replay frame
	// without ever racing the broadcast writer on the same connection.
	// The race detector fails this test if the two paths can write a
	// connection concurrently.
	s := startServer(t)

	stop := make(chan struct{})
	storm := make(chan struct{})
	go func() {
		defer close(storm)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			s.Broadcast(&ipc.StatusSnapshot{State: "muted", IntervalMS: i})
		}
	}()

	for i := 0; i < 50; i++ {
		conn := dial(t, s)
		readSnapshot(t, conn)
	}

	close(stop)
	<-storm
}

func TestBroadcastSurvivesGoneClient(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	testutil.WaitForCondition(t, func() bool { return s.ClientCount() == 1 },
		2*time.Second, "subscriber registered")
	_ = conn.Close()

	// Both writes must be absorbed without panicking; the second one
	// runs against an already-pruned client set.
	s.Broadcast(&ipc.StatusSnapshot{State: "muted"})
	s.Broadcast(&ipc.StatusSnapshot{State: "unmuted"})
}
