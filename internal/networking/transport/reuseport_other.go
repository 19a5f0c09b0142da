//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package transport

import "errors"

func setReusePort(fd uintptr) error {
	return errors.New("SO_REUSEPORT is not supported on this platform")
}
