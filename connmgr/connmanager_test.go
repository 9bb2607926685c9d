package connmgr

import (
	"net"
	"testing"
	"time"

	"github.com/triadag/triad/wire"
)

func TestConnectAndReceiveMessage(t *testing.T) {
	server := New(Config{})
	if err := server.Bind("127.0.0.1"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := server.Listen(0); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer server.Stop()

	port := server.listener.Addr().(*net.TCPAddr).Port

	client := New(Config{})
	defer client.Stop()
	if err := client.Connect("127.0.0.1", uint16(port)); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if got := client.GetOutboundNum(); got != 1 {
		t.Fatalf("expected 1 outbound connection, got %d", got)
	}

	if err := client.Send(1, &wire.MsgGetAddr{}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var msg Message
	done := make(chan bool, 1)
	go func() {
		done <- server.ReceiveMessage(&msg)
	}()

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("ReceiveMessage returned false unexpectedly")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	if _, ok := msg.Msg.(*wire.MsgGetAddr); !ok {
		t.Fatalf("expected *wire.MsgGetAddr, got %T", msg.Msg)
	}
}

func TestQuitQueueUnblocksReceiveMessage(t *testing.T) {
	m := New(Config{})
	defer m.Stop()

	done := make(chan bool, 1)
	go func() {
		var msg Message
		done <- m.ReceiveMessage(&msg)
	}()

	m.QuitQueue()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected ReceiveMessage to return false after QuitQueue")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReceiveMessage did not unblock after QuitQueue")
	}
}
