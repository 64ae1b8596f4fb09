package protocolclient

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/marmos91/filewire/internal/cryptoenvelope"
	"github.com/marmos91/filewire/internal/frame"
	"github.com/marmos91/filewire/internal/logger"
	"github.com/marmos91/filewire/internal/wire"
)

// uploadAndReconcile encrypts and chunks the transfer file, sends every
// chunk, and runs the CRC reconciliation loop: up to maxStageAttempts
// full upload+verify cycles before giving up with ErrChecksumFailed.
func (d *Driver) uploadAndReconcile(ctx context.Context, clientID [16]byte) (*Result, error) {
	lc := logger.FromContext(ctx).WithStage("upload")
	ctx = logger.WithContext(ctx, lc)

	plaintext, err := d.readFile()
	if err != nil {
		return nil, err
	}

	ciphertext, err := cryptoenvelope.Encrypt(d.sessionKey, plaintext)
	if err != nil {
		return nil, &StageError{Stage: "upload", Attempt: 1, Err: err}
	}

	fileName := filepath.Base(d.transfer.FilePath)
	expectedCRC := cryptoenvelope.MemCRC(plaintext)

	var lastErr error
	for attempt := 1; attempt <= maxStageAttempts; attempt++ {
		start := time.Now()
		serverCRC, chunkCount, err := d.sendChunks(ctx, clientID, fileName, uint32(len(plaintext)), ciphertext)
		d.metrics.ObserveStageDuration("upload", time.Since(start).Seconds())
		if err != nil {
			lastErr = err
			logger.WarnCtx(ctx, "upload attempt failed", logger.Attempt(attempt), logger.Err(err))
			d.metrics.ObserveRetry("upload")
			continue
		}

		if serverCRC == expectedCRC {
			if err := d.sendCRCOutcome(ctx, clientID, frame.CodeCRCOK); err != nil {
				return nil, err
			}
			d.metrics.AddBytesSent(len(ciphertext))
			return &Result{
				FileName:   fileName,
				BytesSent:  len(ciphertext),
				ChunksSent: chunkCount,
				CRC:        serverCRC,
			}, nil
		}

		d.metrics.ObserveCRCMismatch()
		logger.WarnCtx(ctx, "checksum mismatch", logger.CRC(expectedCRC), logger.ExpectedCRC(serverCRC), logger.Attempt(attempt))

		if attempt == maxStageAttempts {
			if err := d.sendCRCOutcome(ctx, clientID, frame.CodeCRCAbort); err != nil {
				logger.WarnCtx(ctx, "failed to notify server of abort", logger.Err(err))
			}
			return nil, &StageError{Stage: "reconcile", Attempt: attempt, Err: ErrChecksumFailed}
		}
		if err := d.sendCRCOutcome(ctx, clientID, frame.CodeCRCRetry); err != nil {
			return nil, err
		}
	}

	return nil, &StageError{Stage: "upload", Attempt: maxStageAttempts, Err: fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)}
}

// sendChunks writes every ciphertext chunk as its own SEND_FILE request,
// then reads the single terminal response and returns the server's
// reported CRC.
func (d *Driver) sendChunks(ctx context.Context, clientID [16]byte, fileName string, origSize uint32, ciphertext []byte) (uint32, int, error) {
	chunks := wire.SplitChunks(ciphertext, frame.ChunkSize)
	if len(chunks) == 0 {
		chunks = [][]byte{{}}
	}
	total := uint16(len(chunks))

	packetNumber := uint16(1)
	for _, chunk := range chunks {
		payload := frame.NewSendFilePayload(fileName, origSize, packetNumber, total, chunk)
		header := frame.RequestHeader{
			ClientID:    clientID,
			Version:     frame.ProtocolVersion,
			Code:        frame.CodeSendFile,
			PayloadSize: payload.PayloadSize(),
		}
		if err := d.conn.SendExact(header.Encode()); err != nil {
			return 0, 0, err
		}
		if err := d.conn.SendExact(payload.Encode()); err != nil {
			return 0, 0, err
		}
		logger.DebugCtx(ctx, "sent chunk", logger.ChunkIndex(int(packetNumber), int(total)))
		packetNumber++
	}

	respHeaderBuf, err := d.conn.RecvExact(frame.ResponseHeaderSize)
	if err != nil {
		return 0, 0, err
	}
	respHeader, err := frame.ParseResponseHeader(respHeaderBuf)
	if err != nil {
		return 0, 0, err
	}
	var body []byte
	if respHeader.PayloadSize > 0 {
		body, err = d.conn.RecvExact(int(respHeader.PayloadSize))
		if err != nil {
			return 0, 0, err
		}
	}

	if respHeader.Code == frame.CodeGeneralError {
		return 0, 0, fmt.Errorf("%w: server reported GENERAL_ERROR for SEND_FILE", frame.ErrUnexpectedResponse)
	}
	resp, err := frame.Decode(respHeader.Code, body)
	if err != nil {
		return 0, 0, err
	}
	fileOK, ok := resp.(frame.FileOkPayload)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unexpected payload %T for SEND_FILE", frame.ErrUnexpectedResponse, resp)
	}
	return fileOK.CRC32, len(chunks), nil
}

// sendCRCOutcome sends one of CRC_OK, CRC_RETRY, or CRC_ABORT and
// consumes the server's MESSAGE_OK acknowledgement.
func (d *Driver) sendCRCOutcome(ctx context.Context, clientID [16]byte, code uint16) error {
	payload := frame.NewNamePayload(d.transfer.DisplayName)
	resp, err := d.roundTrip(ctx, clientID, code, payload)
	if err != nil {
		return err
	}
	switch resp.(type) {
	case frame.MessageOKPayload:
		return nil
	case frame.GeneralErrorPayload:
		return fmt.Errorf("%w: server rejected CRC outcome %d", frame.ErrUnexpectedResponse, code)
	default:
		return fmt.Errorf("%w: unexpected payload %T for CRC outcome", frame.ErrUnexpectedResponse, resp)
	}
}
