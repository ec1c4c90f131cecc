package ingest

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/Philipp01105/logging-framework/internal/ringbuffer"
)

func startTestAcceptor(t *testing.T, maxClients int, ring *ringbuffer.Ring) (*Acceptor, string) {
	t.Helper()
	a, err := NewAcceptor(0, maxClients, ring, nil, nil)
	if err != nil {
		t.Fatalf("NewAcceptor: %v", err)
	}
	go a.Serve()
	t.Cleanup(a.Shutdown)
	return a, a.Addr().String()
}

func TestAcceptor_GreetingAndPing(t *testing.T) {
	ring := ringbuffer.New(10)
	_, addr := startTestAcceptor(t, 5, ring)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	greeting, _ := r.ReadString('\n')
	if len(greeting) < len("OK:CONNECTED:") || greeting[:13] != "OK:CONNECTED:" {
		t.Fatalf("greeting = %q, want OK:CONNECTED: prefix", greeting)
	}

	conn.Write([]byte("CMD:PING\n"))
	reply, _ := r.ReadString('\n')
	if reply != "OK:PONG\n" {
		t.Errorf("reply = %q, want OK:PONG", reply)
	}
}

func TestAcceptor_E4_UnknownCommand(t *testing.T) {
	ring := ringbuffer.New(10)
	_, addr := startTestAcceptor(t, 5, ring)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	r.ReadString('\n') // greeting

	conn.Write([]byte("CMD:UNKNOWN\n"))
	reply, _ := r.ReadString('\n')
	if reply != "ERROR:UNKNOWN_COMMAND:UNKNOWN\n" {
		t.Errorf("reply = %q, want ERROR:UNKNOWN_COMMAND:UNKNOWN", reply)
	}
}

func TestAcceptor_E6_EmptyAndOversizeLines(t *testing.T) {
	ring := ringbuffer.New(10)
	_, addr := startTestAcceptor(t, 5, ring)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	r.ReadString('\n') // greeting

	conn.Write([]byte("\n"))
	reply, _ := r.ReadString('\n')
	if reply != "ERROR:EMPTY_MESSAGE\n" {
		t.Errorf("empty line reply = %q, want ERROR:EMPTY_MESSAGE", reply)
	}

	big := make([]byte, 11000)
	for i := range big {
		big[i] = 'x'
	}
	conn.Write(append(big, '\n'))
	reply, _ = r.ReadString('\n')
	if reply != "ERROR:INVALID_MESSAGE_FORMAT\n" {
		t.Errorf("oversize line reply = %q, want ERROR:INVALID_MESSAGE_FORMAT", reply)
	}
}

func TestAcceptor_LogLineQueuedAndEnriched(t *testing.T) {
	ring := ringbuffer.New(10)
	_, addr := startTestAcceptor(t, 5, ring)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	r.ReadString('\n') // greeting

	conn.Write([]byte("INFO|billing|host-1|payment accepted|k=v\n"))
	reply, _ := r.ReadString('\n')
	if len(reply) < len("OK:QUEUED:") || reply[:10] != "OK:QUEUED:" {
		t.Fatalf("reply = %q, want OK:QUEUED: prefix", reply)
	}

	rec, ok := ring.TryDequeue()
	if !ok {
		t.Fatal("expected a record in the ring")
	}
	if rec.Metadata["client_ip"] == "" || rec.Metadata["client_id"] == "" || rec.Metadata["category"] == "" {
		t.Errorf("expected enrichment metadata, got %+v", rec.Metadata)
	}
}

func TestAcceptor_DisconnectCommandClosesConnection(t *testing.T) {
	ring := ringbuffer.New(10)
	_, addr := startTestAcceptor(t, 5, ring)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	r.ReadString('\n') // greeting

	conn.Write([]byte("CMD:DISCONNECT\n"))
	reply, _ := r.ReadString('\n')
	if reply != "OK:DISCONNECTING\n" {
		t.Errorf("reply = %q, want OK:DISCONNECTING", reply)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Error("expected connection to be closed after DISCONNECT")
	}
}

func TestAcceptor_AdmissionCapRejectsBeyondMaxClients(t *testing.T) {
	ring := ringbuffer.New(10)
	_, addr := startTestAcceptor(t, 1, ring)

	held, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer held.Close()
	bufio.NewReader(held).ReadString('\n') // consume greeting, keep slot occupied

	rejected, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer rejected.Close()

	rejected.SetReadDeadline(time.Now().Add(1 * time.Second))
	buf := make([]byte, 1)
	if _, err := rejected.Read(buf); err == nil {
		t.Error("expected the over-cap connection to be closed without a reply")
	}
}
