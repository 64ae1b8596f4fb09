package frame

import (
	"fmt"

	"github.com/marmos91/filewire/internal/wire"
)

// ResponsePayload is the tagged-variant interface every response payload
// kind implements; it exists purely as a marker so Decode can return a
// single type for callers to type-switch on.
type ResponsePayload interface {
	isResponsePayload()
}

// RegisterOKPayload carries the client_id the server assigned.
type RegisterOKPayload struct {
	ClientID [ClientIDSize]byte
}

func (RegisterOKPayload) isResponsePayload() {}

// RegisterFailPayload is empty: REGISTER_FAIL carries no body.
type RegisterFailPayload struct{}

func (RegisterFailPayload) isResponsePayload() {}

// AESSendKeyPayload carries the client_id and the RSA-OAEP-wrapped
// session key.
type AESSendKeyPayload struct {
	ClientID   [ClientIDSize]byte
	WrappedKey []byte
}

func (AESSendKeyPayload) isResponsePayload() {}

// FileOkPayload carries the server's view of the uploaded file: its
// echoed content_size, the file name, and the CRC-32 it computed
// independently over the reassembled plaintext.
//
// Layout (279 bytes total; resolves the source's off-by-one between
// content_size/file_name, see DESIGN.md):
//
//	offset 0..16    client_id
//	offset 16..20   content_size (u32 LE)
//	offset 20..275  file_name[255]
//	offset 275..279 crc32 (u32 LE)
type FileOkPayload struct {
	ClientID    [ClientIDSize]byte
	ContentSize uint32
	FileName    [NameFieldSize]byte
	CRC32       uint32
}

func (FileOkPayload) isResponsePayload() {}

// FileOkPayloadSize is the fixed wire size of FileOkPayload.
const FileOkPayloadSize = ClientIDSize + 4 + NameFieldSize + 4

// MessageOKPayload carries only the client_id, acknowledging CRC_OK,
// CRC_RETRY, or CRC_ABORT.
type MessageOKPayload struct {
	ClientID [ClientIDSize]byte
}

func (MessageOKPayload) isResponsePayload() {}

// LoginOKSendAESPayload carries the client_id and a freshly wrapped
// session key, issued on a successful LOGIN.
type LoginOKSendAESPayload struct {
	ClientID   [ClientIDSize]byte
	WrappedKey []byte
}

func (LoginOKSendAESPayload) isResponsePayload() {}

// LoginFailPayload carries the client_id the server could not find a
// matching session for.
type LoginFailPayload struct {
	ClientID [ClientIDSize]byte
}

func (LoginFailPayload) isResponsePayload() {}

// GeneralErrorPayload is empty: GENERAL_ERROR carries no body.
type GeneralErrorPayload struct{}

func (GeneralErrorPayload) isResponsePayload() {}

// wrappedKeySize is the observed RSA-OAEP ciphertext length for a
// 1024-bit modulus.
const wrappedKeySize = 128

// Decode dispatches on code and decodes body into the matching response
// payload. payload_size is validated against the expected fixed length
// for every code except the two wrapped-key-carrying variants, whose
// length is derived from the observed total (16 + 128).
func Decode(code uint16, body []byte) (ResponsePayload, error) {
	switch code {
	case CodeRegisterOK:
		if len(body) != ClientIDSize {
			return nil, fmt.Errorf("%w: REGISTER_OK payload %d bytes, want %d", ErrMalformedFrame, len(body), ClientIDSize)
		}
		var p RegisterOKPayload
		copy(p.ClientID[:], body)
		return p, nil

	case CodeRegisterFail:
		if len(body) != 0 {
			return nil, fmt.Errorf("%w: REGISTER_FAIL payload %d bytes, want 0", ErrMalformedFrame, len(body))
		}
		return RegisterFailPayload{}, nil

	case CodeAESSendKey:
		if len(body) != ClientIDSize+wrappedKeySize {
			return nil, fmt.Errorf("%w: AES_SEND_KEY payload %d bytes, want %d", ErrMalformedFrame, len(body), ClientIDSize+wrappedKeySize)
		}
		var p AESSendKeyPayload
		copy(p.ClientID[:], body[:ClientIDSize])
		p.WrappedKey = append([]byte(nil), body[ClientIDSize:]...)
		return p, nil

	case CodeFileOK:
		if len(body) != FileOkPayloadSize {
			return nil, fmt.Errorf("%w: FILE_OK payload %d bytes, want %d", ErrMalformedFrame, len(body), FileOkPayloadSize)
		}
		var p FileOkPayload
		copy(p.ClientID[:], body[0:16])
		contentSize, err := wire.UnpackU32(body, 16)
		if err != nil {
			return nil, err
		}
		p.ContentSize = contentSize
		copy(p.FileName[:], body[20:275])
		crc, err := wire.UnpackU32(body, 275)
		if err != nil {
			return nil, err
		}
		p.CRC32 = crc
		return p, nil

	case CodeMessageOK:
		if len(body) != ClientIDSize {
			return nil, fmt.Errorf("%w: MESSAGE_OK payload %d bytes, want %d", ErrMalformedFrame, len(body), ClientIDSize)
		}
		var p MessageOKPayload
		copy(p.ClientID[:], body)
		return p, nil

	case CodeLoginOKSendAES:
		if len(body) != ClientIDSize+wrappedKeySize {
			return nil, fmt.Errorf("%w: LOGIN_OK_SEND_AES payload %d bytes, want %d", ErrMalformedFrame, len(body), ClientIDSize+wrappedKeySize)
		}
		var p LoginOKSendAESPayload
		copy(p.ClientID[:], body[:ClientIDSize])
		p.WrappedKey = append([]byte(nil), body[ClientIDSize:]...)
		return p, nil

	case CodeLoginFail:
		if len(body) != ClientIDSize {
			return nil, fmt.Errorf("%w: LOGIN_FAIL payload %d bytes, want %d", ErrMalformedFrame, len(body), ClientIDSize)
		}
		var p LoginFailPayload
		copy(p.ClientID[:], body)
		return p, nil

	case CodeGeneralError:
		if len(body) != 0 {
			return nil, fmt.Errorf("%w: GENERAL_ERROR payload %d bytes, want 0", ErrMalformedFrame, len(body))
		}
		return GeneralErrorPayload{}, nil

	default:
		return nil, fmt.Errorf("%w: code %d", ErrUnexpectedResponse, code)
	}
}
