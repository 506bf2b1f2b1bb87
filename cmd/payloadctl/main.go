// payloadctl is an offline tool for wallet payload files.
package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/AlexZinkM/wallet-payload/internal/crypto"
	"github.com/AlexZinkM/wallet-payload/internal/legacy"
	"github.com/AlexZinkM/wallet-payload/internal/logger"
	"github.com/AlexZinkM/wallet-payload/internal/verify"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[payloadctl] %v\n", err)
	os.Exit(1)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "payloadctl"
	app.Usage = "encrypt, decrypt and upgrade wallet payloads"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "password",
			EnvVar: "WALLET_PASSWORD",
			Usage: "The wallet password. Prompted on the " +
				"terminal when empty.",
		},
		cli.StringFlag{
			Name:  "loglevel",
			Value: "warn",
			Usage: "Log level: debug, info, warn or error.",
		},
		cli.StringFlag{
			Name:   "flavor",
			EnvVar: "BUILD_FLAVOR",
			Value:  verify.FlavorProduction,
			Usage: "Build flavor, internal aborts when the " +
				"legacy decryptor disagrees with the native one.",
		},
	}
	app.Commands = []cli.Command{
		decryptCommand,
		encryptCommand,
		reencryptCommand,
		upgradeCommand,
		pairingCodeCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

// readPassword reads a password from the terminal without echo
func readPassword(text string) ([]byte, error) {
	fmt.Fprint(os.Stderr, text)
	pw, err := term.ReadPassword(int(syscall.Stdin)) // nolint:unconvert
	fmt.Fprintln(os.Stderr)
	return pw, err
}

// password returns the global --password or prompts for it
func password(ctx *cli.Context) ([]byte, error) {
	if pw := ctx.GlobalString("password"); pw != "" {
		return []byte(pw), nil
	}
	pw, err := readPassword("Wallet password: ")
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(pw) == 0 {
		return nil, fmt.Errorf("password cannot be empty")
	}
	return pw, nil
}

type stack struct {
	log     *zap.Logger
	native  *crypto.PayloadCryptor
	service *verify.Service
}

func newStack(ctx *cli.Context) (*stack, error) {
	log, err := logger.New(ctx.GlobalString("loglevel"), "console")
	if err != nil {
		return nil, err
	}
	divergence, err := verify.HandlerForFlavor(ctx.GlobalString("flavor"), log)
	if err != nil {
		return nil, err
	}

	native := crypto.NewPayloadCryptor()
	return &stack{
		log:    log,
		native: native,
		service: verify.NewService(verify.Policy{
			Native:     native,
			Legacy:     legacy.New(),
			Divergence: divergence,
		}, native, log, nil),
	}, nil
}
