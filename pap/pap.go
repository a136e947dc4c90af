// Package pap implements the client side of PAP, a minimal file transfer
// protocol spoken over a single TCP connection.
//
// A PAP connection carries exactly one operation. The client opens the
// connection, sends the unlock signal, an optional username frame and a
// one-byte mode selector, and then performs a download, an upload or a
// directory listing. Every path-bearing request is answered by a single
// status byte from the peer before any body bytes move.
//
// Wire format, in order:
//
//	0x01                          unlock signal
//	[len:4][username]             optional, used by the peer for "~" expansion
//	'D' | 'U' | 'L'               mode selector
//	[len:4][path]                 operative path
//	status:1                      0x00 success, anything else failure
//
// followed by one of:
//
//	download: [len:4][filename] then raw bytes until the peer closes
//	upload:   raw bytes until the client closes
//	list:     zero or more [len:4][entry] frames, then a zero-length frame
//
// Frame lengths are unsigned 32-bit big-endian and must lie in [1, 4096].
package pap

import (
	"fmt"
	"strings"
)

// Wire constants
const (
	// DefaultUnlockSignal is the first byte of every session
	DefaultUnlockSignal = 0x01

	// StatusOK is the only status byte that signals success
	StatusOK = 0x00

	// MaxFrameLength is the largest payload a frame may carry
	MaxFrameLength = 4096

	// DefaultChunkSize is the read/write unit for file bodies
	DefaultChunkSize = 4096

	// frameHeaderLen is the size of the big-endian length prefix
	frameHeaderLen = 4
)

// Mode selects the single operation a connection performs.
type Mode byte

const (
	ModeDownload Mode = 'D'
	ModeUpload   Mode = 'U'
	ModeList     Mode = 'L'
)

func (m Mode) String() string {
	switch m {
	case ModeDownload:
		return "download"
	case ModeUpload:
		return "upload"
	case ModeList:
		return "list"
	default:
		return fmt.Sprintf("mode(0x%02x)", byte(m))
	}
}

// ParseMode converts a command-line mode name into a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "download", "d":
		return ModeDownload, nil
	case "upload", "u":
		return ModeUpload, nil
	case "list", "l", "ls":
		return ModeList, nil
	}
	return 0, NewError(ErrProtocol, fmt.Sprintf("unknown mode %q", name))
}

// State is the per-connection protocol state.
//
// Connecting → HandshakeSent → ModeSelected → {Transferring | Listing} → Closed.
// Closed is reachable from every state and no state is re-entered.
type State int

const (
	StateConnecting State = iota
	StateHandshakeSent
	StateModeSelected
	StateTransferring
	StateListing
	StateClosed
)

var stateNames = []string{
	"Connecting",
	"HandshakeSent",
	"ModeSelected",
	"Transferring",
	"Listing",
	"Closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// canTransition reports whether moving from s to next keeps the state
// machine moving forward.
func (s State) canTransition(next State) bool {
	if s == StateClosed {
		return false
	}
	if next == StateClosed {
		return true
	}
	switch s {
	case StateConnecting:
		return next == StateHandshakeSent
	case StateHandshakeSent:
		return next == StateModeSelected
	case StateModeSelected:
		return next == StateTransferring || next == StateListing
	}
	return false
}
