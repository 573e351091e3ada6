package accesslistener

import (
	"net"
	"testing"
	"time"
)

func mustBind(t *testing.T) *AccessListener {
	t.Helper()
	al, err := Bind(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	al.Start()
	t.Cleanup(al.Shutdown)
	return al
}

func TestDropsConnectionsUntilActivated(t *testing.T) {
	al := mustBind(t)

	conn, err := net.DialTimeout("tcp", al.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	select {
	case ev := <-al.Events():
		t.Fatalf("expected no event while inactive, got %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDeliversConnectionsOnceActivated(t *testing.T) {
	al := mustBind(t)
	al.Activate(true)

	conn, err := net.DialTimeout("tcp", al.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	select {
	case ev := <-al.Events():
		if ev.Conn == nil || ev.Quit {
			t.Fatalf("expected a connection event, got %+v", ev)
		}
		ev.Conn.Close()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for accepted connection")
	}
}

func TestPauseDeliversQuitEvent(t *testing.T) {
	al := mustBind(t)
	al.Activate(true)

	al.Pause()

	select {
	case ev := <-al.Events():
		if !ev.Quit {
			t.Fatalf("expected a Quit event, got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Quit event")
	}
}

func TestShutdownUnblocksAcceptLoop(t *testing.T) {
	al, err := Bind(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	al.Start()

	done := make(chan struct{})
	go func() {
		al.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return in time")
	}

	// A second Shutdown call must not panic or block.
	al.Shutdown()
}
