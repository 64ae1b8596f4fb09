// Package session loads and persists the three local files that drive
// one client run: transfer.info (what to send and where), me.info and
// priv.key (the identity persisted from a prior run).
package session

import (
	"bufio"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/filewire/internal/cryptoenvelope"
	"github.com/marmos91/filewire/internal/wire"
)

// ErrConfig wraps every malformed-input-file condition: a missing line,
// a malformed host:port, a name that is too long, or a file that does
// not exist.
var ErrConfig = errors.New("session: configuration error")

const maxDisplayNameBytes = 100

var validate = validator.New()

// TransferInfo is the parsed, validated contents of transfer.info.
type TransferInfo struct {
	ServerAddr  string `validate:"required,hostname_port"`
	DisplayName string `validate:"required,max=100"`
	FilePath    string `validate:"required"`
}

// ParseTransferInfo reads the 3-line transfer.info format: host:port,
// display name, file path. Leading/trailing ASCII whitespace on each
// line is trimmed before validation.
func ParseTransferInfo(r io.Reader) (*TransferInfo, error) {
	lines, err := readLines(r, 3)
	if err != nil {
		return nil, err
	}

	info := &TransferInfo{
		ServerAddr:  lines[0],
		DisplayName: lines[1],
		FilePath:    lines[2],
	}

	if len(info.DisplayName) > maxDisplayNameBytes {
		return nil, fmt.Errorf("%w: display name %d bytes exceeds %d byte limit", ErrConfig, len(info.DisplayName), maxDisplayNameBytes)
	}
	if err := validate.Struct(info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if _, err := os.Stat(info.FilePath); err != nil {
		return nil, fmt.Errorf("%w: file path %q: %v", ErrConfig, info.FilePath, err)
	}
	return info, nil
}

// LoadTransferInfo opens and parses transfer.info from dir.
func LoadTransferInfo(dir string) (*TransferInfo, error) {
	f, err := os.Open(filepath.Join(dir, "transfer.info"))
	if err != nil {
		return nil, fmt.Errorf("%w: open transfer.info: %v", ErrConfig, err)
	}
	defer f.Close()
	return ParseTransferInfo(f)
}

// Identity is the persisted state from a prior successful run.
type Identity struct {
	DisplayName string
	ClientID    [16]byte
	PrivateKey  *rsa.PrivateKey
}

// LoadIdentity reads me.info from dir, taking the private key from its
// third line; priv.key is not read. ok is false when me.info is absent,
// meaning the caller should take the REGISTER branch rather than LOGIN.
func LoadIdentity(dir string) (id *Identity, ok bool, err error) {
	f, err := os.Open(filepath.Join(dir, "me.info"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: open me.info: %v", ErrConfig, err)
	}
	defer f.Close()

	lines, err := readLines(f, 3)
	if err != nil {
		return nil, false, err
	}

	clientIDBytes, err := wire.HexToBytes(lines[1])
	if err != nil {
		return nil, false, fmt.Errorf("%w: me.info client_id: %v", ErrConfig, err)
	}
	if len(clientIDBytes) != 16 {
		return nil, false, fmt.Errorf("%w: me.info client_id length %d, want 16", ErrConfig, len(clientIDBytes))
	}

	priv, err := cryptoenvelope.ParsePrivateKeyBase64(lines[2])
	if err != nil {
		return nil, false, fmt.Errorf("%w: me.info private key: %v", ErrConfig, err)
	}

	id = &Identity{DisplayName: lines[0], PrivateKey: priv}
	copy(id.ClientID[:], clientIDBytes)
	return id, true, nil
}

// SaveIdentity writes me.info and priv.key after a successful REGISTER
// and key generation.
func SaveIdentity(dir string, id *Identity) error {
	meInfo := strings.Join([]string{
		id.DisplayName,
		wire.BytesToHex(id.ClientID[:]),
		cryptoenvelope.KeyPair{Private: id.PrivateKey}.PrivateKeyBase64(),
	}, "\n") + "\n"

	if err := os.WriteFile(filepath.Join(dir, "me.info"), []byte(meInfo), 0o600); err != nil {
		return fmt.Errorf("%w: write me.info: %v", ErrConfig, err)
	}

	privKey := cryptoenvelope.KeyPair{Private: id.PrivateKey}.PrivateKeyBase64() + "\n"
	if err := os.WriteFile(filepath.Join(dir, "priv.key"), []byte(privKey), 0o600); err != nil {
		return fmt.Errorf("%w: write priv.key: %v", ErrConfig, err)
	}
	return nil
}

// readLines reads the first want lines from r, trimmed (an empty line
// counts as a line), failing with an ErrConfig-wrapped message giving
// how many lines were found when fewer than want are present.
func readLines(r io.Reader, want int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	lines := make([]string, 0, want)
	for scanner.Scan() && len(lines) < want {
		lines = append(lines, wire.TrimWS(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read line: %v", ErrConfig, err)
	}
	if len(lines) < want {
		return nil, fmt.Errorf("%w: expected %d lines, found %d", ErrConfig, want, len(lines))
	}
	return lines, nil
}
