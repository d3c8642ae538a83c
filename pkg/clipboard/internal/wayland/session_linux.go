//go:build linux

package wayland

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"
)

// Object ids in the client range, assigned in request order.
const (
	idDisplay   uint32 = 1
	idRegistry  uint32 = 2
	idSync      uint32 = 3
	idSeat      uint32 = 4
	idDCManager uint32 = 5
	idDCSource  uint32 = 6
	idDCDevice  uint32 = 7
	idClaimSync uint32 = 8
)

const (
	ifaceSeat      = "wl_seat"
	ifaceDCManager = "zwlr_data_control_manager_v1"
)

// Session is one connection that owns, or is about to own, the selection.
type Session struct {
	c         *conn
	seat      uint32
	dcManager uint32
}

// SocketPath returns the compositor socket from XDG_RUNTIME_DIR and
// WAYLAND_DISPLAY.
func SocketPath() (string, error) {
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		return "", fmt.Errorf("wayland: XDG_RUNTIME_DIR not set")
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	if filepath.IsAbs(display) {
		return display, nil
	}
	return filepath.Join(runtime, display), nil
}

// Dial connects to the compositor and looks up the seat and the
// data-control manager.
func Dial() (*Session, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	c, err := dial(path)
	if err != nil {
		return nil, fmt.Errorf("wayland: connect %s: %w", path, err)
	}
	s := &Session{c: c}
	if err := s.discover(); err != nil {
		c.close()
		return nil, err
	}
	return s, nil
}

func (s *Session) Close() {
	s.c.close()
}

// discover collects registry globals up to the first sync round trip.
func (s *Session) discover() error {
	if err := s.c.send(idDisplay, 1 /*get_registry*/, encodeUint32(idRegistry)); err != nil {
		return err
	}
	if err := s.c.send(idDisplay, 0 /*sync*/, encodeUint32(idSync)); err != nil {
		return err
	}

	var seatFound, managerFound bool
	for {
		msg, err := s.c.recvDiscardFd()
		if err != nil {
			return err
		}
		if msg.object == idSync && msg.opcode == 0 /*done*/ {
			break
		}
		if msg.object != idRegistry || msg.opcode != 0 /*global*/ || len(msg.payload) < 4 {
			continue
		}
		name := le.Uint32(msg.payload[:4])
		iface, _, err := decodeString(msg.payload[4:])
		if err != nil {
			continue
		}
		switch iface {
		case ifaceSeat:
			s.seat, seatFound = name, true
		case ifaceDCManager:
			s.dcManager, managerFound = name, true
		}
	}

	if !seatFound {
		return fmt.Errorf("wayland: %s not found", ifaceSeat)
	}
	if !managerFound {
		return fmt.Errorf("wayland: %s not found (compositor may not support wlr-data-control)", ifaceDCManager)
	}
	return nil
}

func (s *Session) bind(name uint32, iface string, version, id uint32) error {
	return s.c.send(idRegistry, 0 /*bind*/,
		encodeUint32(name), encodeString(iface), encodeUint32(version), encodeUint32(id))
}

// Claim offers every media type and sets the selection, waiting for the
// compositor to acknowledge the requests.
func (s *Session) Claim(types []string) error {
	if err := s.bind(s.seat, ifaceSeat, 1, idSeat); err != nil {
		return err
	}
	if err := s.bind(s.dcManager, ifaceDCManager, 2, idDCManager); err != nil {
		return err
	}
	if err := s.c.send(idDCManager, 0 /*create_data_source*/, encodeUint32(idDCSource)); err != nil {
		return err
	}
	for _, t := range types {
		if err := s.c.send(idDCSource, 0 /*offer*/, encodeString(t)); err != nil {
			return err
		}
	}
	if err := s.c.send(idDCManager, 1 /*get_data_device*/, encodeUint32(idDCDevice), encodeUint32(idSeat)); err != nil {
		return err
	}
	if err := s.c.send(idDCDevice, 0 /*set_selection*/, encodeUint32(idDCSource)); err != nil {
		return err
	}
	if err := s.c.send(idDisplay, 0 /*sync*/, encodeUint32(idClaimSync)); err != nil {
		return err
	}

	for {
		msg, err := s.c.recvDiscardFd()
		if err != nil {
			return err
		}
		if msg.object == idClaimSync && msg.opcode == 0 /*done*/ {
			return nil
		}
	}
}

// ServeRequests answers paste requests until the selection is cancelled or
// the compositor goes away.
func (s *Session) ServeRequests(formats map[string][]byte) error {
	for {
		msg, fd, err := s.c.recv()
		if err != nil {
			return nil
		}
		if msg.object != idDCSource {
			if fd >= 0 {
				syscall.Close(fd) //nolint:errcheck
			}
			continue
		}

		switch msg.opcode {
		case 0: // send
			mimeType, _, _ := decodeString(msg.payload)
			if fd >= 0 {
				if data, ok := formats[mimeType]; ok {
					syscall.Write(fd, data) //nolint:errcheck
				}
				syscall.Close(fd) //nolint:errcheck
			}
		case 1: // cancelled
			if fd >= 0 {
				syscall.Close(fd) //nolint:errcheck
			}
			return nil
		}
	}
}

// Serve claims the selection for formats and blocks until another client
// replaces it. claimed, when set, runs once the compositor has acknowledged
// the claim and before paste requests are served.
func Serve(formats map[string][]byte, claimed func()) error {
	s, err := Dial()
	if err != nil {
		return err
	}
	defer s.Close()

	types := make([]string, 0, len(formats))
	for t := range formats {
		types = append(types, t)
	}
	sort.Strings(types)

	if err := s.Claim(types); err != nil {
		return err
	}
	if claimed != nil {
		claimed()
	}
	return s.ServeRequests(formats)
}
