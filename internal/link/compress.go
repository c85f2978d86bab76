package link

import (
	"fmt"
	"net"

	"github.com/klauspost/compress/zstd"
)

// compressedConn wraps a net.Conn with zstd streaming compression.
// Writes are compressed by the encoder; reads are decompressed by the decoder.
type compressedConn struct {
	net.Conn
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// newCompressedConn wraps conn with zstd streaming compression at the
// fastest level. Both peers must agree to compress.
func newCompressedConn(conn net.Conn) (*compressedConn, error) {
	encoder, err := zstd.NewWriter(conn,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(conn, zstd.WithDecoderConcurrency(1))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &compressedConn{
		Conn:    conn,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

func (c *compressedConn) Read(p []byte) (int, error) {
	return c.decoder.Read(p)
}

func (c *compressedConn) Write(p []byte) (int, error) {
	return c.encoder.Write(p)
}

// Flush emits a syncable zstd frame so the peer can decode everything
// written so far.
func (c *compressedConn) Flush() error {
	return c.encoder.Flush()
}

// Close shuts down the encoder, closes the underlying conn (to unblock the
// decoder), then releases the decoder.
func (c *compressedConn) Close() error {
	c.encoder.Close()
	err := c.Conn.Close()
	c.decoder.Close()
	return err
}
