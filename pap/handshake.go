package pap

// handshake sends the unlock signal, the optional username frame and the
// mode selector, in that order. The peer acknowledges none of them.
func (s *session) handshake(username string, mode Mode) error {
	if err := s.writeByte(s.config.UnlockSignal, "send unlock"); err != nil {
		return err
	}

	if username != "" {
		if err := s.writeFrame([]byte(username), "send username"); err != nil {
			return err
		}
	}
	s.transition(StateHandshakeSent)

	if err := s.writeByte(byte(mode), "send mode"); err != nil {
		return err
	}
	s.transition(StateModeSelected)

	s.logger.Info("handshake complete: user=%q mode=%s", username, mode)
	return nil
}
