package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/0xa1bed0/echosrv/internal/logs"
)

const defaultShutdownTimeout = 5 * time.Second

// Runtime owns the process-wide context and every goroutine started
// through GoNamed. The context is cancelled on SIGINT/SIGTERM, on the
// first panicking goroutine, or explicitly via CancelCtx.
type Runtime struct {
	ctx        context.Context    // global context
	cancelFunc context.CancelFunc // cancelFunc of global context
	stopSignal context.CancelFunc // releases the signal.NotifyContext registration

	mu sync.Mutex

	wg              sync.WaitGroup
	shutdownTimeout time.Duration

	firstFailErr error
}

type runtimeKey struct{}

// New creates a Runtime whose context is cancelled when the process
// receives SIGINT or SIGTERM.
func New() *Runtime {
	return newRuntime(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// NewWithParent creates a Runtime bound to parent without installing
// signal handlers.
func NewWithParent(parent context.Context) *Runtime {
	return newRuntime(parent)
}

func newRuntime(parent context.Context, signals ...os.Signal) *Runtime {
	stopSignal := context.CancelFunc(func() {})
	if len(signals) > 0 {
		parent, stopSignal = signal.NotifyContext(parent, signals...)
	}
	baseCtx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		cancelFunc:      cancel,
		stopSignal:      stopSignal,
		shutdownTimeout: defaultShutdownTimeout,
	}
	// The runtime travels in the context so cobra commands can pick it up
	// from cmd.Context() at their root. Nothing below the command layer
	// should call FromContext.
	rt.ctx = context.WithValue(baseCtx, runtimeKey{}, rt)
	return rt
}

func (rt *Runtime) CancelCtx() {
	rt.cancelFunc()
}

func (rt *Runtime) Ctx() context.Context {
	return rt.ctx
}

func (rt *Runtime) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		rt.shutdownTimeout = d
	}
}

func FromContext(ctx context.Context) *Runtime {
	v := ctx.Value(runtimeKey{})
	if v == nil {
		return nil
	}
	rt, _ := v.(*Runtime)
	return rt
}

func FromContextOrPanic(ctx context.Context) *Runtime {
	rt := FromContext(ctx)
	if rt == nil {
		panic(errors.New("runtime not found in this context"))
	}
	return rt
}

// GoNamed runs fn in a new goroutine, with panic recovery.
//
// Contract:
//   - If fn panics, the panic is recovered, wrapped into an error, recorded
//     as the first failure (if none yet), and the context is cancelled.
//   - Runtime.Wait() will wait for all such goroutines and return the first error.
func (rt *Runtime) GoNamed(name string, fn func()) {
	if name == "" {
		name = "anonymous"
	}
	rt.wg.Go(func() {
		logs.Debugf("%s goroutine start", name)
		defer func() {
			if r := recover(); r != nil {
				rt.fail(fmt.Errorf("%s: panic: %v\n%s", name, r, debug.Stack()))
			}
		}()

		fn()
		logs.Debugf("%s goroutine finish", name)
	})
}

// GoErr is GoNamed for functions that can fail. A non-nil error is
// recorded as the first failure and cancels the context.
func (rt *Runtime) GoErr(name string, fn func(ctx context.Context) error) {
	rt.GoNamed(name, func() {
		if err := fn(rt.ctx); err != nil {
			rt.fail(fmt.Errorf("%s: %w", name, err))
		}
	})
}

func (rt *Runtime) fail(err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.firstFailErr == nil {
		rt.firstFailErr = err
		// cancel everyone on first failure
		rt.cancelFunc()
	}
}

func (rt *Runtime) Wait() error {
	rt.wg.Wait()

	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.firstFailErr
}

// OnShutdown runs fn once the runtime context is cancelled. fn receives a
// fresh context bounded by the shutdown timeout.
func (rt *Runtime) OnShutdown(fn func(ctx context.Context)) {
	rt.GoNamed("OnShutdown", func() {
		<-rt.ctx.Done()

		cleanupCtx, cancel := context.WithTimeout(context.Background(), rt.shutdownTimeout)
		defer cancel()

		fn(cleanupCtx)
	})
}

// Finalize handles both panic and normal exit.
// Call it in a defer at the top of main.
func (rt *Runtime) Finalize(appName, helpHint string, execErr *error) {
	defer rt.stopSignal()

	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "%s panic: %v\n", appName, r)
		fmt.Fprintf(os.Stderr, "%s\n", debug.Stack())
		fmt.Fprintln(os.Stderr, "")
		if helpHint != "" {
			fmt.Fprintln(os.Stderr, helpHint)
		}

		// cancel & wait so OnShutdown hooks run
		rt.CancelCtx()
		_ = rt.Wait()

		logs.Close()
		os.Exit(1)
	}

	// trigger OnShutdown hooks
	rt.CancelCtx()
	waitErr := rt.Wait()

	exitCode := 0
	if execErr != nil && *execErr != nil {
		logs.Errorf("%s error: %v", appName, *execErr)
		if helpHint != "" {
			fmt.Fprintln(os.Stderr, helpHint)
		}
		exitCode = 1
	} else if waitErr != nil {
		logs.Errorf("%s fail reason: %v", appName, waitErr)
		exitCode = 1
	}

	logs.Close()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
