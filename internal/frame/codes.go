package frame

// Request op codes.
const (
	CodeRegister       uint16 = 825
	CodeSendPublicKey  uint16 = 826
	CodeLogin          uint16 = 827
	CodeSendFile       uint16 = 828
	CodeCRCOK          uint16 = 900
	CodeCRCRetry       uint16 = 901
	CodeCRCAbort       uint16 = 902
)

// Response status codes.
const (
	CodeRegisterOK      uint16 = 1600
	CodeRegisterFail    uint16 = 1601
	CodeAESSendKey      uint16 = 1602
	CodeFileOK          uint16 = 1603
	CodeMessageOK       uint16 = 1604
	CodeLoginOKSendAES  uint16 = 1605
	CodeLoginFail       uint16 = 1606
	CodeGeneralError    uint16 = 1607
)

// ProtocolVersion is the constant version byte carried in every request
// header.
const ProtocolVersion uint8 = 3

// NameFieldSize is the fixed, NUL-padded wire width of any name or
// file_name field.
const NameFieldSize = 255

// PublicKeyFieldSize is the fixed DER-encoded RSA-1024 public key size
// on the wire. The spec's own observed-wire-length estimate of 160 bytes
// assumes a small public exponent; Go's crypto/rsa always generates
// keys with exponent 65537, whose PKIX DER encoding is 162 bytes for a
// 1024-bit modulus. Using 160 here would silently truncate the DER
// (corrupting the key), so this is calibrated to the actual encoded
// length rather than the spec's approximation — see DESIGN.md.
const PublicKeyFieldSize = 162

// ClientIDSize is the fixed width of the opaque client identifier.
const ClientIDSize = 16

// ChunkSize is the fixed upload chunk size used by SendFile.
const ChunkSize = 1024
