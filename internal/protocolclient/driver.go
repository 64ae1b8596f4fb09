// Package protocolclient drives the REGISTER/LOGIN → SEND_PUBLIC_KEY →
// SEND_FILE → CRC reconciliation state machine over a transport.Conn. It
// is the one package that knows the order requests must be sent in and
// how many times a stage may be retried before the run fails.
package protocolclient

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/marmos91/filewire/internal/cryptoenvelope"
	"github.com/marmos91/filewire/internal/frame"
	"github.com/marmos91/filewire/internal/logger"
	"github.com/marmos91/filewire/internal/metrics"
	"github.com/marmos91/filewire/internal/session"
	"github.com/marmos91/filewire/internal/transport"
	"github.com/marmos91/filewire/internal/wire"
)

// maxStageAttempts bounds the retry loop for REGISTER, LOGIN, the key
// exchange, and the upload: three tries total, the third failure is
// terminal.
const maxStageAttempts = 3

// Result summarizes one completed run for the CLI's final report.
type Result struct {
	ClientID    [16]byte
	DisplayName string
	FileName    string
	BytesSent   int
	ChunksSent  int
	CRC         uint32
	Registered  bool // true if this run took the REGISTER branch, false for LOGIN
}

// Driver holds everything one client run needs: the transport connection,
// the transfer request, the persisted or freshly generated identity, and
// an optional metrics recorder.
type Driver struct {
	conn     *transport.Conn
	transfer *session.TransferInfo
	identity *session.Identity
	metrics  *metrics.Recorder

	sessionKey []byte
}

// New builds a Driver for one run. identity may be nil, meaning no prior
// me.info was found and the run must REGISTER.
func New(conn *transport.Conn, transfer *session.TransferInfo, identity *session.Identity, rec *metrics.Recorder) *Driver {
	return &Driver{conn: conn, transfer: transfer, identity: identity, metrics: rec}
}

// Run drives the full state machine to completion: identify (register or
// login), exchange keys, upload the file, and reconcile the checksum. On
// a fresh REGISTER, the caller is responsible for persisting the
// returned identity via session.SaveIdentity; Run itself never touches
// disk beyond reading the file being transferred.
func (d *Driver) Run(ctx context.Context) (*Result, *session.Identity, error) {
	registered := d.identity == nil

	var clientID [16]byte
	var newIdentity *session.Identity
	if registered {
		id, err := d.register(ctx)
		if err != nil {
			return nil, nil, err
		}
		newIdentity = id
		clientID = id.ClientID
	} else {
		if err := d.login(ctx, d.identity.ClientID); err != nil {
			return nil, nil, err
		}
		clientID = d.identity.ClientID
	}

	res, err := d.uploadAndReconcile(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	res.ClientID = clientID
	res.DisplayName = d.transfer.DisplayName
	res.Registered = registered
	return res, newIdentity, nil
}

// register runs the REGISTER → SEND_PUBLIC_KEY sequence, generating a
// fresh keypair and returning the resulting identity on success. It does
// not write the identity to disk; Run's caller does.
func (d *Driver) register(ctx context.Context) (*session.Identity, error) {
	lc := logger.FromContext(ctx).WithStage("register")
	ctx = logger.WithContext(ctx, lc)

	clientID, err := withRetriesT(d, ctx, "register", func(attempt int) ([16]byte, error) {
		return d.sendRegister(ctx)
	})
	if err != nil {
		return nil, err
	}

	kp, err := cryptoenvelope.GenerateKeyPair()
	if err != nil {
		return nil, &StageError{Stage: "keyExchange", Attempt: 1, Err: err}
	}

	sessionKey, err := withRetriesT(d, ctx, "keyExchange", func(attempt int) ([]byte, error) {
		return d.sendPublicKey(ctx, clientID, kp)
	})
	if err != nil {
		return nil, err
	}
	d.sessionKey = sessionKey

	id := &session.Identity{
		DisplayName: d.transfer.DisplayName,
		ClientID:    clientID,
		PrivateKey:  kp.Private,
	}
	return id, nil
}

// login runs the LOGIN sequence for a previously registered client.
func (d *Driver) login(ctx context.Context, clientID [16]byte) error {
	lc := logger.FromContext(ctx).WithStage("login").WithClientID(wire.BytesToHex(clientID[:]))
	ctx = logger.WithContext(ctx, lc)

	sessionKey, err := withRetriesT(d, ctx, "login", func(attempt int) ([]byte, error) {
		return d.sendLogin(ctx, clientID)
	})
	if err != nil {
		return err
	}
	d.sessionKey = sessionKey
	return nil
}

// withRetriesT runs fn up to maxStageAttempts times, timing each attempt
// and recording a retry metric and a warning log after each failed one. It
// gives up with ErrRetriesExhausted wrapped in a StageError once the
// budget is spent.
func withRetriesT[T any](d *Driver, ctx context.Context, stage string, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= maxStageAttempts; attempt++ {
		start := time.Now()
		v, err := fn(attempt)
		d.metrics.ObserveStageDuration(stage, time.Since(start).Seconds())
		if err == nil {
			return v, nil
		}
		lastErr = err
		logger.WarnCtx(ctx, "stage attempt failed", logger.Stage(stage), logger.Attempt(attempt), logger.Err(err))
		d.metrics.ObserveRetry(stage)
	}
	return zero, &StageError{Stage: stage, Attempt: maxStageAttempts, Err: fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)}
}

// sendRegister sends one REGISTER attempt and returns the assigned
// client_id on REGISTER_OK.
func (d *Driver) sendRegister(ctx context.Context) ([16]byte, error) {
	var zero [16]byte
	payload := frame.NewNamePayload(d.transfer.DisplayName)
	resp, err := d.roundTrip(ctx, zero, frame.CodeRegister, payload)
	if err != nil {
		return zero, err
	}

	switch p := resp.(type) {
	case frame.RegisterOKPayload:
		return p.ClientID, nil
	case frame.RegisterFailPayload:
		return zero, fmt.Errorf("%w: server rejected registration", frame.ErrUnexpectedResponse)
	default:
		return zero, fmt.Errorf("%w: unexpected payload %T for REGISTER", frame.ErrUnexpectedResponse, resp)
	}
}

// sendLogin sends one LOGIN attempt and returns the unwrapped session
// key on LOGIN_OK_SEND_AES.
func (d *Driver) sendLogin(ctx context.Context, clientID [16]byte) ([]byte, error) {
	payload := frame.NewNamePayload(d.transfer.DisplayName)
	resp, err := d.roundTrip(ctx, clientID, frame.CodeLogin, payload)
	if err != nil {
		return nil, err
	}

	switch p := resp.(type) {
	case frame.LoginOKSendAESPayload:
		return cryptoenvelope.UnwrapSessionKey(d.identity.PrivateKey, p.WrappedKey)
	case frame.LoginFailPayload:
		return nil, fmt.Errorf("%w: server rejected login", frame.ErrUnexpectedResponse)
	default:
		return nil, fmt.Errorf("%w: unexpected payload %T for LOGIN", frame.ErrUnexpectedResponse, resp)
	}
}

// sendPublicKey sends one SEND_PUBLIC_KEY attempt and returns the
// unwrapped session key on AES_SEND_KEY.
func (d *Driver) sendPublicKey(ctx context.Context, clientID [16]byte, kp cryptoenvelope.KeyPair) ([]byte, error) {
	der, err := kp.PublicKeyDER()
	if err != nil {
		return nil, err
	}
	payload := frame.NewSendPublicKeyPayload(d.transfer.DisplayName, der)
	resp, err := d.roundTrip(ctx, clientID, frame.CodeSendPublicKey, payload)
	if err != nil {
		return nil, err
	}

	p, ok := resp.(frame.AESSendKeyPayload)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected payload %T for SEND_PUBLIC_KEY", frame.ErrUnexpectedResponse, resp)
	}
	return cryptoenvelope.UnwrapSessionKey(kp.Private, p.WrappedKey)
}

// roundTrip encodes one request frame, sends it, reads back the
// response header and body, and decodes the response payload.
func (d *Driver) roundTrip(ctx context.Context, clientID [16]byte, code uint16, payload frame.RequestPayload) (frame.ResponsePayload, error) {
	header := frame.RequestHeader{
		ClientID:    clientID,
		Version:     frame.ProtocolVersion,
		Code:        code,
		PayloadSize: payload.PayloadSize(),
	}

	logger.DebugCtx(ctx, "sending request", logger.RequestCode(code))
	if err := d.conn.SendExact(header.Encode()); err != nil {
		return nil, err
	}
	if err := d.conn.SendExact(payload.Encode()); err != nil {
		return nil, err
	}

	respHeaderBuf, err := d.conn.RecvExact(frame.ResponseHeaderSize)
	if err != nil {
		return nil, err
	}
	respHeader, err := frame.ParseResponseHeader(respHeaderBuf)
	if err != nil {
		return nil, err
	}

	var body []byte
	if respHeader.PayloadSize > 0 {
		body, err = d.conn.RecvExact(int(respHeader.PayloadSize))
		if err != nil {
			return nil, err
		}
	}

	logger.DebugCtx(ctx, "received response", logger.ResponseCode(respHeader.Code))
	if respHeader.Code == frame.CodeGeneralError {
		return frame.GeneralErrorPayload{}, nil
	}
	return frame.Decode(respHeader.Code, body)
}

// readFile reads the full plaintext of the file named in d.transfer.
func (d *Driver) readFile() ([]byte, error) {
	content, err := os.ReadFile(d.transfer.FilePath)
	if err != nil {
		return nil, fmt.Errorf("protocolclient: read %q: %w", d.transfer.FilePath, err)
	}
	return content, nil
}
