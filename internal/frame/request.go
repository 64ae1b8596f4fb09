package frame

import "github.com/marmos91/filewire/internal/wire"

// RequestPayload is the tagged-variant interface every request payload
// kind implements. Encode returns the raw payload bytes that follow the
// request header on the wire.
type RequestPayload interface {
	Encode() []byte
	// PayloadSize is the true total payload length and equals
	// len(Encode()) for every variant; it lets the request header be
	// built without encoding the payload first.
	PayloadSize() uint32
}

// NamePayload is the payload shape shared by REGISTER, LOGIN, CRC_OK,
// CRC_RETRY, and CRC_ABORT: a single 255-byte NUL-padded name field.
type NamePayload struct {
	Name [NameFieldSize]byte
}

// NewNamePayload builds a NamePayload from a display name, padding or
// truncating it to the fixed wire width.
func NewNamePayload(name string) NamePayload {
	var p NamePayload
	copy(p.Name[:], wire.PadOrTruncate([]byte(name), NameFieldSize))
	return p
}

func (p NamePayload) Encode() []byte {
	return append([]byte(nil), p.Name[:]...)
}

func (p NamePayload) PayloadSize() uint32 {
	return NameFieldSize
}

// SendPublicKeyPayload is the canonical SEND_PUBLIC_KEY payload: the
// display name followed by the DER public key. (The source carries
// duplicate/inconsistent declarations for this packet; this is the one
// that matches the server's documented expectation of name || pubkey.)
type SendPublicKeyPayload struct {
	Name      [NameFieldSize]byte
	PublicKey [PublicKeyFieldSize]byte
}

// NewSendPublicKeyPayload builds a SendPublicKeyPayload.
func NewSendPublicKeyPayload(name string, publicKey []byte) SendPublicKeyPayload {
	var p SendPublicKeyPayload
	copy(p.Name[:], wire.PadOrTruncate([]byte(name), NameFieldSize))
	copy(p.PublicKey[:], publicKey)
	return p
}

func (p SendPublicKeyPayload) Encode() []byte {
	buf := make([]byte, 0, NameFieldSize+PublicKeyFieldSize)
	buf = append(buf, p.Name[:]...)
	buf = append(buf, p.PublicKey[:]...)
	return buf
}

func (p SendPublicKeyPayload) PayloadSize() uint32 {
	return NameFieldSize + PublicKeyFieldSize
}

// SendFilePayload is one SEND_FILE chunk. Content holds that chunk's raw
// ciphertext bytes; OrigFileSize is the plaintext length and is constant
// across all chunks of one upload.
type SendFilePayload struct {
	ContentSize   uint32
	OrigFileSize  uint32
	PacketNumber  uint16
	TotalPackets  uint16
	FileName      [NameFieldSize]byte
	Content       []byte
}

// NewSendFilePayload builds a SendFilePayload for one chunk of an upload.
func NewSendFilePayload(fileName string, origFileSize uint32, packetNumber, totalPackets uint16, content []byte) SendFilePayload {
	var p SendFilePayload
	copy(p.FileName[:], wire.PadOrTruncate([]byte(fileName), NameFieldSize))
	p.ContentSize = uint32(len(content))
	p.OrigFileSize = origFileSize
	p.PacketNumber = packetNumber
	p.TotalPackets = totalPackets
	p.Content = content
	return p
}

func (p SendFilePayload) Encode() []byte {
	buf := make([]byte, 0, int(p.PayloadSize()))
	buf = append(buf, wire.PackU32(p.ContentSize)...)
	buf = append(buf, wire.PackU32(p.OrigFileSize)...)
	buf = append(buf, wire.PackU16(p.PacketNumber)...)
	buf = append(buf, wire.PackU16(p.TotalPackets)...)
	buf = append(buf, p.FileName[:]...)
	buf = append(buf, p.Content...)
	return buf
}

// PayloadSize returns the true total payload length: the four fixed
// header fields (4+4+2+2), the 255-byte file_name field, and the
// content chunk. The source computes this as contentSize+12, omitting
// file_name entirely; a strict server decoder requires the true total,
// so that buggy shortcut is deliberately not reproduced here (see
// DESIGN.md's Open Question resolution).
func (p SendFilePayload) PayloadSize() uint32 {
	return 4 + 4 + 2 + 2 + NameFieldSize + p.ContentSize
}
