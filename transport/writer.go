package transport

import (
	"context"
	"io"
)

// ChunkWriter is the sender side of a connection.
type ChunkWriter interface {
	// WriteChunk writes one chunk in full.
	WriteChunk(p []byte) error
	// CloseWrite half-closes the connection, signalling end of stream.
	CloseWrite() error
}

// PeerWaiter waits for the remote end to close after a half-close.
type PeerWaiter interface {
	WaitPeerClose(ctx context.Context) error
}

// StreamWriter adapts an io.Writer and a half-close function to ChunkWriter.
type StreamWriter struct {
	w          io.Writer
	closeWrite func() error
}

// NewStreamWriter creates a ChunkWriter. closeWrite may be nil.
func NewStreamWriter(w io.Writer, closeWrite func() error) *StreamWriter {
	return &StreamWriter{w: w, closeWrite: closeWrite}
}

// WriteChunk implements ChunkWriter.
func (s *StreamWriter) WriteChunk(p []byte) error {
	if _, err := s.w.Write(p); err != nil {
		return wrap(OpWrite, err)
	}
	return nil
}

// CloseWrite implements ChunkWriter.
func (s *StreamWriter) CloseWrite() error {
	if s.closeWrite == nil {
		return nil
	}
	return wrap(OpClose, s.closeWrite())
}
