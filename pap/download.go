package pap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// download requests remotePath and streams the body into destDir.
// The body has no length prefix: it ends when a read reports that the
// peer closed its side. A failure mid-body leaves the partial file on
// disk.
func (s *session) download(remotePath, destDir string) (*TransferResult, error) {
	if err := s.requestPath(remotePath); err != nil {
		return nil, err
	}

	rawName, err := s.codec.ReadFrame(s)
	if err != nil {
		return nil, err
	}
	s.emit(EventFrameReceived, frameSummary("received", rawName))

	filename, err := localName(rawName)
	if err != nil {
		return nil, err
	}

	if destDir == "" {
		destDir = "."
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, &Error{Kind: ErrIO, Op: "create directory", Message: destDir, Err: err}
	}

	localPath := filepath.Join(destDir, filename)
	file, err := s.callbacks.OnFileCreate(localPath)
	if err != nil {
		return nil, &Error{Kind: ErrIO, Op: "create file", Message: localPath, Err: err}
	}
	closed := false
	defer func() {
		if !closed {
			file.Close()
		}
	}()

	s.transition(StateTransferring)
	s.logger.Info("downloading %q -> %s", remotePath, localPath)
	s.callbacks.OnFileStart(filename, 0)

	tracker := NewProgressTracker(s.callbacks.OnProgress, s.config.ProgressInterval)
	tracker.Start(filename, 0)

	buf := make([]byte, s.config.ChunkSize)
	for {
		n, rerr := s.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return nil, &Error{Kind: ErrIO, Op: "write file", Message: localPath, Err: werr}
			}
			tracker.Add(int64(n))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, ioError("read body", rerr)
		}
	}

	closed = true
	if err := file.Close(); err != nil {
		return nil, &Error{Kind: ErrIO, Op: "close file", Message: localPath, Err: err}
	}

	duration := tracker.Complete()
	written := tracker.Transferred()
	s.callbacks.OnFileComplete(filename, written, duration)
	s.logger.Info("download complete: %d bytes in %v", written, duration)

	return &TransferResult{
		RemotePath: remotePath,
		LocalPath:  localPath,
		Bytes:      written,
		Duration:   duration,
	}, nil
}

// localName reduces the peer's suggested filename to a bare base name so
// it cannot point outside the destination directory.
func localName(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", &Error{Kind: ErrProtocol, Op: "read filename", Message: "filename is not valid UTF-8"}
	}
	name := strings.ReplaceAll(string(raw), "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return "", &Error{Kind: ErrProtocol, Op: "read filename", Message: fmt.Sprintf("unusable filename %q", raw)}
	}
	return name, nil
}
