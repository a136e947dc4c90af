package pap

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// openSource opens an upload source read-only. It runs before any
// network I/O so a missing file never costs a connection.
func openSource(localPath string) (*os.File, os.FileInfo, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &Error{Kind: ErrLocalFileNotFound, Op: "open source", Message: localPath, Err: err}
		}
		return nil, nil, &Error{Kind: ErrIO, Op: "open source", Message: localPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, nil, &Error{Kind: ErrLocalFileNotFound, Op: "open source", Message: localPath + " is not a regular file"}
	}

	file, err := os.Open(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &Error{Kind: ErrLocalFileNotFound, Op: "open source", Message: localPath, Err: err}
		}
		return nil, nil, &Error{Kind: ErrIO, Op: "open source", Message: localPath, Err: err}
	}
	return file, info, nil
}

// upload requests target and streams src after the peer accepts. No
// length prefix or trailer is sent: the peer sees the end of the body
// when the connection is closed after upload returns.
func (s *session) upload(target string, src io.Reader, size int64) (*TransferResult, error) {
	if err := s.requestPath(target); err != nil {
		return nil, err
	}

	s.transition(StateTransferring)
	s.logger.Info("uploading %d bytes -> %q", size, target)
	s.callbacks.OnFileStart(target, size)

	tracker := NewProgressTracker(s.callbacks.OnProgress, s.config.ProgressInterval)
	tracker.Start(target, size)

	buf := make([]byte, s.config.ChunkSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := s.Write(buf[:n]); werr != nil {
				return nil, ioError("send body", werr)
			}
			tracker.Add(int64(n))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, &Error{Kind: ErrIO, Op: "read source", Err: rerr}
		}
	}

	duration := tracker.Complete()
	sent := tracker.Transferred()
	s.callbacks.OnFileComplete(target, sent, duration)
	s.logger.Info("upload complete: %d bytes in %v", sent, duration)

	return &TransferResult{
		RemotePath: target,
		Bytes:      sent,
		Duration:   duration,
	}, nil
}
