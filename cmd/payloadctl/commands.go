package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/AlexZinkM/wallet-payload/internal/client"
	"github.com/AlexZinkM/wallet-payload/internal/journal"
	"github.com/AlexZinkM/wallet-payload/internal/model"
	"github.com/AlexZinkM/wallet-payload/internal/upgrade"
	"github.com/AlexZinkM/wallet-payload/wallet"

	"github.com/urfave/cli"
)

var (
	keyFlag = cli.StringFlag{
		Name:   "key",
		EnvVar: "PAYLOAD_KEY",
		Usage: "The encryption key. Falls back to the global " +
			"password when empty.",
	}
	iterationsFlag = cli.UintFlag{
		Name:  "iterations",
		Value: uint(wallet.DefaultPBKDF2Iterations),
		Usage: "The PBKDF2 iteration count.",
	}
	fileFlag = cli.StringFlag{
		Name:      "file",
		EnvVar:    "WALLET_FILE_PATH",
		Usage:     "The wallet wrapper file.",
		TakesFile: true,
	}
)

var decryptCommand = cli.Command{
	Name:      "decrypt",
	Usage:     "Decrypt a base64(iv || ciphertext) payload.",
	ArgsUsage: "payload | -",
	Description: `
	Decrypt a payload with AES-256-CBC and a PBKDF2-SHA1 stretched key.
	Pass - to read the payload from stdin.`,
	Flags:  []cli.Flag{keyFlag, iterationsFlag},
	Action: decryptPayload,
}

func decryptPayload(ctx *cli.Context) error {
	iterations, err := iterationsArg(ctx)
	if err != nil {
		return err
	}
	s, pair, err := cryptoArgs(ctx)
	if err != nil {
		return err
	}
	defer pair.Wipe()

	plaintext, err := s.service.Decrypt(context.Background(), pair, iterations)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, plaintext)
	return nil
}

var encryptCommand = cli.Command{
	Name:      "encrypt",
	Usage:     "Encrypt UTF-8 text into a base64(iv || ciphertext) payload.",
	ArgsUsage: "text | -",
	Flags:     []cli.Flag{keyFlag, iterationsFlag},
	Action:    encryptPayload,
}

func encryptPayload(ctx *cli.Context) error {
	iterations, err := iterationsArg(ctx)
	if err != nil {
		return err
	}
	s, pair, err := cryptoArgs(ctx)
	if err != nil {
		return err
	}
	defer pair.Wipe()

	encrypted, err := s.service.Encrypt(context.Background(), pair, iterations)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, encrypted)
	return nil
}

var errExpectedPayloadArg = errors.New("expected exactly one payload argument")

// iterationsArg reads --iterations, rejecting counts that do not fit a uint32
func iterationsArg(ctx *cli.Context) (uint32, error) {
	n := ctx.Uint("iterations")
	if uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("--iterations %d exceeds the maximum of %d", n, uint64(math.MaxUint32))
	}
	return uint32(n), nil
}

func cryptoArgs(ctx *cli.Context) (*stack, model.KeyDataPair, error) {
	if ctx.NArg() != 1 {
		_ = cli.ShowCommandHelp(ctx, ctx.Command.Name)
		return nil, model.KeyDataPair{}, errExpectedPayloadArg
	}
	data := ctx.Args().First()
	if data == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, model.KeyDataPair{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		data = strings.TrimRight(string(raw), "\r\n")
	}

	var key []byte
	if k := ctx.String("key"); k != "" {
		key = []byte(k)
	} else {
		pw, err := password(ctx)
		if err != nil {
			return nil, model.KeyDataPair{}, err
		}
		key = pw
	}

	s, err := newStack(ctx)
	if err != nil {
		return nil, model.KeyDataPair{}, err
	}
	return s, model.KeyDataPair{Key: key, Data: []byte(data)}, nil
}

var reencryptCommand = cli.Command{
	Name:  "reencrypt",
	Usage: "Rewrite a wallet file under a fresh IV.",
	Description: `
	Decrypt the wallet file in any supported format, including v1
	payloads, and write it back as a wrapper encrypted with the given
	iteration count. The payload is verified before the file is replaced.`,
	Flags: []cli.Flag{
		fileFlag,
		cli.UintFlag{
			Name:  "iterations",
			Usage: "The new PBKDF2 iteration count, 0 keeps the current one.",
		},
	},
	Action: reencrypt,
}

func reencrypt(ctx *cli.Context) error {
	iterations, err := iterationsArg(ctx)
	if err != nil {
		return err
	}

	w, _, err := openWallet(ctx, nil)
	if err != nil {
		return err
	}
	defer w.Close()

	checksum, err := w.Reencrypt(context.Background(), iterations)
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]any{
		"version":           w.Wrapper().Version,
		"pbkdf2_iterations": w.Wrapper().PBKDF2Iterations,
		"checksum":          checksum,
	})
}

var upgradeCommand = cli.Command{
	Name:  "upgrade",
	Usage: "Run the required wallet upgrades.",
	Flags: []cli.Flag{
		fileFlag,
		cli.StringFlag{
			Name:      "journal",
			Usage:     "Record upgrade runs in this database.",
			TakesFile: true,
		},
		cli.BoolFlag{
			Name:   "requires_v4",
			EnvVar: "REQUIRES_V4_UPGRADE",
			Usage:  "Treat the v4 upgrade as required.",
		},
		cli.StringFlag{
			Name:   "settings_url",
			EnvVar: "SETTINGS_URL",
			Usage:  "Fetch the v4 upgrade flag from this URL.",
		},
		cli.StringFlag{
			Name:   "flag_policy",
			EnvVar: "V4_FLAG_FAILURE_POLICY",
			Value:  "assume-not-required",
			Usage:  "On a flag fetch failure: assume-not-required or fail.",
		},
		cli.BoolFlag{
			Name:  "dry_run",
			Usage: "Only list the required upgrades.",
		},
	},
	Action: runUpgrade,
}

func runUpgrade(ctx *cli.Context) error {
	policy, err := upgrade.ParseFlagFailurePolicy(ctx.String("flag_policy"))
	if err != nil {
		return err
	}

	var flag wallet.FlagSource = client.StaticFlag(ctx.Bool("requires_v4"))
	if url := ctx.String("settings_url"); url != "" {
		flag = client.NewSettingsClient(url, 0)
	}

	w, s, err := openWallet(ctx, flag)
	if err != nil {
		return err
	}
	defer w.Close()

	cfg := upgrade.Config{
		State:     w,
		Workflows: w.Workflows(),
		Policy:    policy,
		Log:       s.log,
	}
	if path := ctx.String("journal"); path != "" {
		j, err := journal.Open(path)
		if err != nil {
			return err
		}
		defer j.Close()
		cfg.Journal = j
	}
	o := upgrade.New(cfg)

	if ctx.Bool("dry_run") {
		versions, err := o.RequiredUpgrades(context.Background())
		if err != nil {
			return err
		}
		if versions == nil {
			versions = []model.Version{}
		}
		return printJSON(ctx, model.UpgradeStatusResponse{
			NeedsUpgrade: len(versions) > 0,
			Versions:     versions,
		})
	}

	return o.Upgrade(context.Background(), func(v model.Version) {
		fmt.Fprintf(ctx.App.Writer, "upgrading to %s\n", v)
	})
}

var pairingCodeCommand = cli.Command{
	Name:  "pairing-code",
	Usage: "Print the wallet pairing code or write it as a QR PNG.",
	Flags: []cli.Flag{
		fileFlag,
		cli.StringFlag{
			Name:   "pairing_key",
			EnvVar: "PAIRING_KEY",
			Usage:  "The key the pairing code is encrypted with.",
		},
		cli.StringFlag{
			Name:      "qr_out",
			Usage:     "Write a PNG QR code to this path.",
			TakesFile: true,
		},
		cli.IntFlag{
			Name:  "size",
			Value: wallet.DefaultQRSize,
			Usage: "The QR code edge length in pixels.",
		},
	},
	Action: pairingCode,
}

func pairingCode(ctx *cli.Context) error {
	key := ctx.String("pairing_key")
	if key == "" {
		return fmt.Errorf("--pairing_key is required")
	}

	w, _, err := openWallet(ctx, nil)
	if err != nil {
		return err
	}
	defer w.Close()

	if out := ctx.String("qr_out"); out != "" {
		png, err := w.PairingQR(context.Background(), key, ctx.Int("size"))
		if err != nil {
			return err
		}
		return os.WriteFile(out, png, 0o600)
	}

	code, err := w.PairingCode(context.Background(), key)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, code)
	return nil
}

func openWallet(ctx *cli.Context, flag wallet.FlagSource) (*wallet.Wallet, *stack, error) {
	path := ctx.String("file")
	if path == "" {
		return nil, nil, fmt.Errorf("--file is required")
	}

	pw, err := password(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer clear(pw)

	s, err := newStack(ctx)
	if err != nil {
		return nil, nil, err
	}

	w, err := wallet.Open(context.Background(), wallet.Config{
		Path:     path,
		Password: pw,
		Cryptor:  s.service,
		V1:       s.native,
		Flag:     flag,
		Log:      s.log,
	})
	if err != nil {
		return nil, nil, err
	}
	return w, s, nil
}

func printJSON(ctx *cli.Context, v any) error {
	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
