package link

import (
	"context"
	"io"
	"log/slog"
)

// Service is the device side of the link. Receive and Transmit each serve
// exactly one peer from the port.
type Service struct {
	port   *Port
	logger *slog.Logger
}

// NewService creates a service on port.
func NewService(port *Port, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{port: port, logger: logger}
}

// Receive waits for a sender and streams its file into dst. The transfer
// is refused with CodeTooLarge when the announced size exceeds maxBytes.
// It returns the bytes written and the name the sender announced.
func (s *Service) Receive(ctx context.Context, dst io.Writer, maxBytes int64) (int64, string, error) {
	const op = "receive"
	for {
		sess, err := s.port.open(ctx, op)
		if err != nil {
			return 0, "", err
		}
		first, err := sess.readFrame(op)
		if err != nil {
			sess.close()
			return 0, "", err
		}
		if first.Type == FramePull {
			sess.logger.Info("refusing pull while receiving")
			_ = sess.sendAck(op, CodeProtocol, "device is receiving")
			sess.close()
			continue
		}

		n, name, err := sess.recvFile(op, first, dst, maxBytes)
		sess.close()
		if err != nil {
			s.logger.Debug("receive failed", "session", sess.id, "code", Code(err), "error", err)
		}
		return n, name, err
	}
}

// Transmit waits for a client to pull and sends size bytes from src under
// name.
func (s *Service) Transmit(ctx context.Context, name string, size int64, src io.Reader) error {
	const op = "send"
	for {
		sess, err := s.port.open(ctx, op)
		if err != nil {
			return err
		}
		first, err := sess.readFrame(op)
		if err != nil {
			sess.close()
			return err
		}
		if first.Type != FramePull {
			sess.logger.Info("refusing sender while transmitting", "frame", first.Type)
			_ = sess.sendAck(op, CodeProtocol, "device is sending")
			sess.close()
			continue
		}

		err = sess.sendFile(op, name, size, src)
		sess.close()
		return err
	}
}
