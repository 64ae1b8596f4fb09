package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/marmos91/filewire/internal/bytesize"
	"github.com/marmos91/filewire/internal/cliprompt"
	"github.com/marmos91/filewire/internal/cryptoenvelope"
	"github.com/marmos91/filewire/internal/frame"
	"github.com/marmos91/filewire/internal/logger"
	"github.com/marmos91/filewire/internal/metrics"
	"github.com/marmos91/filewire/internal/protocolclient"
	"github.com/marmos91/filewire/internal/session"
	"github.com/marmos91/filewire/internal/settings"
	"github.com/marmos91/filewire/internal/transport"
	"github.com/marmos91/filewire/internal/wire"
)

// Exit codes, one per sentinel error family named in the error taxonomy.
const (
	exitOK                 = 0
	exitConfigError        = 1
	exitIOError            = 2
	exitMalformedFrame     = 3
	exitUnexpectedResponse = 4
	exitCryptoError        = 5
	exitRetriesExhausted   = 6
	exitChecksumFailed     = 7
	exitUnknown            = 9
)

// ExitCodeFor classifies err against the package sentinel families and
// returns the process exit code filewire should use.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, session.ErrConfig):
		return exitConfigError
	case errors.Is(err, protocolclient.ErrChecksumFailed):
		return exitChecksumFailed
	case errors.Is(err, protocolclient.ErrRetriesExhausted):
		return exitRetriesExhausted
	case errors.Is(err, cryptoenvelope.ErrCrypto):
		return exitCryptoError
	case errors.Is(err, frame.ErrMalformedFrame):
		return exitMalformedFrame
	case errors.Is(err, frame.ErrUnexpectedResponse):
		return exitUnexpectedResponse
	case errors.Is(err, transport.ErrIO):
		return exitIOError
	default:
		return exitUnknown
	}
}

func runTransfer(cmd *cobra.Command, args []string) error {
	cfg, err := settings.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrConfig, err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return err
	}

	if timeoutFlag != "" {
		d, perr := time.ParseDuration(timeoutFlag)
		if perr != nil {
			return fmt.Errorf("%w: invalid --timeout %q: %v", session.ErrConfig, timeoutFlag, perr)
		}
		cfg.ConnectTimeout = d
		cfg.ReadTimeout = d
	}

	runID := uuid.NewString()
	lc := logger.NewLogContext(runID, "")
	ctx := logger.WithContext(context.Background(), lc)

	transfer, err := loadOrPromptTransferInfo(configDir)
	if err != nil {
		return err
	}
	if cfg.MaxFileSize > 0 {
		info, statErr := os.Stat(transfer.FilePath)
		if statErr != nil {
			return fmt.Errorf("%w: stat %q: %v", session.ErrConfig, transfer.FilePath, statErr)
		}
		if bytesize.ByteSize(info.Size()) > cfg.MaxFileSize {
			return fmt.Errorf("%w: file %q is %s, exceeds configured limit %s", session.ErrConfig, transfer.FilePath, bytesize.ByteSize(info.Size()), cfg.MaxFileSize)
		}
	}
	lc = lc.Clone()
	lc.Host = transfer.ServerAddr
	ctx = logger.WithContext(ctx, lc)

	identity, ok, err := session.LoadIdentity(configDir)
	if err != nil {
		return err
	}
	if !ok {
		identity = nil
	}

	logger.InfoCtx(ctx, "dialing server", logger.Host(transfer.ServerAddr))
	conn, err := transport.Dial(transfer.ServerAddr, cfg.ConnectTimeout, cfg.ReadTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	rec := metrics.New()
	driver := protocolclient.New(conn, transfer, identity, rec)

	start := time.Now()
	result, newIdentity, err := driver.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if newIdentity != nil {
		if err := session.SaveIdentity(configDir, newIdentity); err != nil {
			return err
		}
	}

	printSummary(result, elapsed)
	_ = rec.Dump(os.Stdout)
	return nil
}

// loadOrPromptTransferInfo loads transfer.info from dir, falling back to
// an interactive prompt (unless --non-interactive) only when the file
// itself is absent. A present-but-malformed file is always a hard
// ConfigError: the prompt is a fallback for a missing file, not a
// recovery path for a broken one.
func loadOrPromptTransferInfo(dir string) (*session.TransferInfo, error) {
	transferPath := filepath.Join(dir, "transfer.info")
	if _, statErr := os.Stat(transferPath); statErr != nil {
		if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("%w: stat transfer.info: %v", session.ErrConfig, statErr)
		}
		if nonInteractive {
			return nil, fmt.Errorf("%w: transfer.info not found in %s", session.ErrConfig, dir)
		}
		return promptTransferInfo()
	}
	return session.LoadTransferInfo(dir)
}

// promptTransferInfo interactively collects the three transfer.info
// fields, matching the original client's interactive fallback.
func promptTransferInfo() (*session.TransferInfo, error) {
	logger.Info("transfer.info not found, prompting interactively")
	host, err := cliprompt.Required("Server host:port")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrConfig, err)
	}
	name, err := cliprompt.Required("Display name")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrConfig, err)
	}
	path, err := cliprompt.RequiredExistingFile("File to send")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrConfig, err)
	}

	return session.ParseTransferInfo(strings.NewReader(host + "\n" + name + "\n" + path + "\n"))
}

func printSummary(res *protocolclient.Result, elapsed time.Duration) {
	branch := "login"
	if res.Registered {
		branch = "register"
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"field", "value"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetTablePadding("  ")

	table.Append([]string{"client_id", wire.BytesToHex(res.ClientID[:])})
	table.Append([]string{"display_name", res.DisplayName})
	table.Append([]string{"branch", branch})
	table.Append([]string{"file", res.FileName})
	table.Append([]string{"chunks_sent", fmt.Sprintf("%d", res.ChunksSent)})
	table.Append([]string{"bytes_sent", fmt.Sprintf("%d", res.BytesSent)})
	table.Append([]string{"crc32", fmt.Sprintf("0x%08X", res.CRC)})
	table.Append([]string{"duration", elapsed.Round(time.Millisecond).String()})
	table.Append([]string{"outcome", "DONE"})

	table.Render()
}
