package pap

import (
	"fmt"
	"io"
)

// ReadStatus reads the single status byte the peer sends after a
// path-bearing request. 0x00 is success; any other value is a generic
// failure carrying no further meaning.
func ReadStatus(r io.Reader) error {
	b, err := readExact(r, 1, "read status")
	if err != nil {
		return err
	}
	if b[0] != StatusOK {
		return &Error{
			Kind:    ErrRemoteOperationFailed,
			Op:      "read status",
			Message: fmt.Sprintf("peer returned status 0x%02x", b[0]),
			Status:  b[0],
		}
	}
	return nil
}

// requestPath sends the operative path frame and consults the peer's
// status byte before anything else happens on the connection.
func (s *session) requestPath(path string) error {
	if err := s.writeFrame([]byte(path), "send path"); err != nil {
		return err
	}

	err := ReadStatus(s)
	if err != nil {
		s.logger.Error("path %q rejected: %v", path, err)
		return err
	}
	s.emit(EventStatusReceived, "ok")
	return nil
}
