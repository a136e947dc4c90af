package pap

import (
	"unicode/utf8"
)

// list requests dir and collects entry frames in the order received.
// A zero-length frame ends the listing; nothing after it is read.
func (s *session) list(dir string) ([]string, error) {
	if err := s.requestPath(dir); err != nil {
		return nil, err
	}
	s.transition(StateListing)

	entries := []string{}
	for {
		payload, err := s.codec.ReadEntry(s)
		if err != nil {
			return nil, err
		}
		if len(payload) == 0 {
			break
		}
		if !utf8.Valid(payload) {
			return nil, &Error{Kind: ErrProtocol, Op: "read entry", Message: "entry is not valid UTF-8"}
		}
		s.emit(EventFrameReceived, frameSummary("received", payload))
		entries = append(entries, string(payload))
	}

	s.logger.Info("listed %q: %d entries", dir, len(entries))
	return entries, nil
}
