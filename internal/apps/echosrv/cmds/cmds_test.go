package echosrv

import (
	"bytes"
	"context"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/0xa1bed0/echosrv/internal/networking/echo"
	"github.com/0xa1bed0/echosrv/internal/runtime"
	"github.com/0xa1bed0/echosrv/internal/version"
)

// lockedBuffer lets a test read command output while the command still runs.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDefaultAddr(t *testing.T) {
	t.Setenv(addrEnv, "")
	if got := defaultAddr(); got != fallbackAddr {
		t.Fatalf("defaultAddr() = %q, want %q", got, fallbackAddr)
	}

	t.Setenv(addrEnv, "10.0.0.1:9000")
	if got := defaultAddr(); got != "10.0.0.1:9000" {
		t.Fatalf("defaultAddr() = %q, want %q", got, "10.0.0.1:9000")
	}
}

func TestReadLinesSkipsBlankLines(t *testing.T) {
	t.Parallel()

	lines, err := readLines(strings.NewReader("first\n\nsecond\r\nthird"))
	if err != nil {
		t.Fatalf("readLines failed: %v", err)
	}
	want := []string{"first", "second", "third"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("readLines = %q, want %q", lines, want)
	}
}

func TestSendMessagesWithSeveralClients(t *testing.T) {
	t.Parallel()

	server, err := echo.BindAnyLocal(context.Background())
	if err != nil {
		t.Fatalf("BindAnyLocal failed: %v", err)
	}
	handle, err := server.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	defer handle.Shutdown(context.Background())

	var out bytes.Buffer
	opts := &sendOptions{addr: handle.LocalAddr().String(), timeout: time.Second, clients: 3}
	if err := sendMessages(context.Background(), &out, opts, []string{"alpha", "beta"}); err != nil {
		t.Fatalf("sendMessages failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	sort.Strings(lines)
	want := []string{"[0] alpha", "[0] beta", "[1] alpha", "[1] beta", "[2] alpha", "[2] beta"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("output = %q, want %q", lines, want)
	}
	if got := handle.Stats().Received; got != 6 {
		t.Fatalf("Received = %d, want 6", got)
	}
}

func TestSendMessagesUnreachableServer(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	opts := &sendOptions{addr: addr, timeout: time.Second, clients: 1}
	if err := sendMessages(context.Background(), &bytes.Buffer{}, opts, []string{"hello"}); err == nil {
		t.Fatal("expected sendMessages to fail without a server")
	}
}

func TestVersionCmd(t *testing.T) {
	rt := runtime.NewWithParent(context.Background())
	defer rt.CancelCtx()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.ExecuteContext(rt.Ctx()); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	want := version.Get()
	if version.IsPrerelease(version.Version) {
		want += " (development build)"
	}
	if got := strings.TrimSpace(out.String()); got != want {
		t.Fatalf("version output = %q, want %q", got, want)
	}
}

func TestPrintMessagesStopsCleanly(t *testing.T) {
	t.Parallel()

	server, err := echo.BindAnyLocal(context.Background())
	if err != nil {
		t.Fatalf("BindAnyLocal failed: %v", err)
	}
	handle, err := server.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := printMessages(ctx, handle); err != nil {
		t.Fatalf("printMessages on cancelled context = %v, want nil", err)
	}

	if err := handle.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	// With the accept loop gone and no clients, the queue is closed.
	if err := printMessages(context.Background(), handle); err != nil {
		t.Fatalf("printMessages on closed queue = %v, want nil", err)
	}
}

func TestServeCmdEchoesUntilCancelled(t *testing.T) {
	rt := runtime.NewWithParent(context.Background())

	out := &lockedBuffer{}
	root := newRootCmd()
	root.SetOut(out)
	root.SetArgs([]string{"serve", "--addr", "127.0.0.1:0", "--print-messages"})

	errs := make(chan error, 1)
	go func() {
		errs <- root.ExecuteContext(rt.Ctx())
	}()

	var addr string
	deadline := time.Now().Add(5 * time.Second)
	for addr == "" {
		if time.Now().After(deadline) {
			rt.CancelCtx()
			t.Fatalf("serve did not report its address, output: %q", out.String())
		}
		if s := out.String(); strings.HasPrefix(s, "listening on ") {
			addr = strings.TrimSpace(strings.TrimPrefix(s, "listening on "))
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	client, err := echo.Connect(context.Background(), addr)
	if err != nil {
		rt.CancelCtx()
		t.Fatalf("Connect failed: %v", err)
	}
	if err := client.SendAndAwait(context.Background(), "hello serve", time.Second); err != nil {
		rt.CancelCtx()
		t.Fatalf("SendAndAwait failed: %v", err)
	}
	client.Close()

	rt.CancelCtx()
	select {
	case err := <-errs:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
	if err := rt.Wait(); err != nil {
		t.Fatalf("runtime reported failure: %v", err)
	}

	if _, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		t.Fatal("server still accepting after shutdown")
	}
}
