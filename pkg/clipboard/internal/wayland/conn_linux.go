//go:build linux

package wayland

import (
	"fmt"
	"syscall"
)

// conn is a buffered Wayland socket that also collects fds passed with
// SCM_RIGHTS.
type conn struct {
	fd         int
	in         []byte
	pendingFds []int
}

func dial(sockPath string) (*conn, error) {
	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := syscall.Connect(fd, &syscall.SockaddrUnix{Name: sockPath}); err != nil {
		syscall.Close(fd) //nolint:errcheck
		return nil, err
	}
	return &conn{fd: fd}, nil
}

func (c *conn) close() {
	for _, fd := range c.pendingFds {
		syscall.Close(fd) //nolint:errcheck
	}
	syscall.Close(c.fd) //nolint:errcheck
}

func (c *conn) send(object uint32, opcode uint16, args ...[]byte) error {
	_, err := syscall.Write(c.fd, frame(object, opcode, concat(args...)))
	return err
}

// recv returns the next event. fd is -1 unless one arrived with it.
func (c *conn) recv() (msg message, fd int, err error) {
	fd = -1
	for {
		if m, rest, ok := unframe(c.in); ok {
			c.in = rest
			if len(c.pendingFds) > 0 {
				fd = c.pendingFds[0]
				c.pendingFds = c.pendingFds[1:]
			}
			return m, fd, nil
		}

		buf := make([]byte, 4096)
		oob := make([]byte, syscall.CmsgSpace(4*8))
		n, oobn, _, _, err := syscall.Recvmsg(c.fd, buf, oob, 0)
		if err != nil {
			return message{}, -1, err
		}
		if n == 0 {
			return message{}, -1, fmt.Errorf("wayland: connection closed")
		}
		c.in = append(c.in, buf[:n]...)

		if oobn == 0 {
			continue
		}
		scms, err := syscall.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			continue
		}
		for _, scm := range scms {
			if rights, err := syscall.ParseUnixRights(&scm); err == nil {
				c.pendingFds = append(c.pendingFds, rights...)
			}
		}
	}
}

// recvDiscardFd is recv for events that never carry data to serve.
func (c *conn) recvDiscardFd() (message, error) {
	msg, fd, err := c.recv()
	if fd >= 0 {
		syscall.Close(fd) //nolint:errcheck
	}
	return msg, err
}
