package echo

//go:generate mockgen -source=hook.go -destination=mocks/hook.go -package=mocks

// MessageHook observes every line a connection handler receives. It is
// called synchronously from the handler goroutine before the line is
// echoed back, and may be called from many handlers at once:
// implementations must synchronise any state they mutate.
type MessageHook interface {
	// OnMessage receives the peer address ("host:port") and the line
	// including its trailing newline.
	OnMessage(peer, line string)
}

// HookFunc adapts a plain function to MessageHook.
type HookFunc func(peer, line string)

func (f HookFunc) OnMessage(peer, line string) {
	f(peer, line)
}
