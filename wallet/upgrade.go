package wallet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/AlexZinkM/wallet-payload/internal/model"
	"github.com/AlexZinkM/wallet-payload/internal/upgrade"
)

const (
	hdWalletsKey        = "hd_wallets"
	defaultAccountLabel = "Private Key Wallet"
	seedLen             = 16
)

// HDWallet is the hd_wallets entry created by the v3 upgrade
type HDWallet struct {
	SeedHex           string    `json:"seed_hex"`
	Passphrase        string    `json:"passphrase"`
	MnemonicVerified  bool      `json:"mnemonic_verified"`
	DefaultAccountIdx int       `json:"default_account_idx"`
	Accounts          []Account `json:"accounts"`
}

// Account is an HD account
type Account struct {
	Label       string       `json:"label"`
	Archived    bool         `json:"archived"`
	Derivations []Derivation `json:"derivations,omitempty"`
}

// Derivation is an address derivation added by the v4 upgrade
type Derivation struct {
	Type    string `json:"type"`
	Purpose int    `json:"purpose"`
}

// ErrNoHDWallet is returned by the v4 upgrade on a wallet without hd_wallets
var ErrNoHDWallet = errors.New("v4 upgrade requires an hd wallet")

var defaultDerivations = []Derivation{
	{Type: "legacy", Purpose: 44},
	{Type: "bech32", Purpose: 84},
}

// Workflows returns the upgrade workflows for the orchestrator
func (w *Wallet) Workflows() map[model.Version]upgrade.Workflow {
	return map[model.Version]upgrade.Workflow{
		model.VersionV3: upgrade.WorkflowFunc(w.UpgradeToV3),
		model.VersionV4: upgrade.WorkflowFunc(w.UpgradeToV4),
	}
}

// UpgradeToV3 adds an HD wallet with one account
func (w *Wallet) UpgradeToV3(ctx context.Context) error {
	return w.update(ctx, func(wrapper *model.WalletPayloadWrapper, data map[string]json.RawMessage) error {
		hd, err := hdWallets(data)
		if err != nil {
			return err
		}
		if len(hd) > 0 {
			return nil
		}

		seed := make([]byte, seedLen)
		if _, err := io.ReadFull(w.random, seed); err != nil {
			return fmt.Errorf("failed to generate seed: %w", err)
		}
		defer clear(seed)

		entry, err := json.Marshal(HDWallet{
			SeedHex:  hex.EncodeToString(seed),
			Accounts: []Account{{Label: w.accountLabel}},
		})
		if err != nil {
			return fmt.Errorf("failed to marshal hd wallet: %w", err)
		}
		if err := setField(data, hdWalletsKey, []json.RawMessage{entry}); err != nil {
			return err
		}
		wrapper.Version = max(wrapper.Version, model.VersionV3.Number())
		return nil
	})
}

// UpgradeToV4 adds derivations to every HD account and moves the wrapper to
// version 4
func (w *Wallet) UpgradeToV4(ctx context.Context) error {
	return w.update(ctx, func(wrapper *model.WalletPayloadWrapper, data map[string]json.RawMessage) error {
		hd, err := hdWallets(data)
		if err != nil {
			return err
		}
		if len(hd) == 0 {
			return ErrNoHDWallet
		}

		for i, raw := range hd {
			updated, err := addDerivations(raw)
			if err != nil {
				return err
			}
			hd[i] = updated
		}

		if err := setField(data, hdWalletsKey, hd); err != nil {
			return err
		}
		wrapper.Version = model.VersionV4.Number()
		return nil
	})
}

// addDerivations keeps unknown hd wallet and account fields intact
func addDerivations(raw json.RawMessage) (json.RawMessage, error) {
	var hd map[string]json.RawMessage
	if err := json.Unmarshal(raw, &hd); err != nil {
		return nil, fmt.Errorf("failed to decode hd wallet: %w", err)
	}

	rawAccounts, ok := hd["accounts"]
	if !ok {
		return raw, nil
	}
	var accounts []map[string]json.RawMessage
	if err := json.Unmarshal(rawAccounts, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode hd accounts: %w", err)
	}

	for _, account := range accounts {
		if _, ok := account["derivations"]; ok {
			continue
		}
		if err := setField(account, "derivations", defaultDerivations); err != nil {
			return nil, err
		}
	}

	if err := setField(hd, "accounts", accounts); err != nil {
		return nil, err
	}
	return json.Marshal(hd)
}

func hdWallets(data map[string]json.RawMessage) ([]json.RawMessage, error) {
	raw, ok := data[hdWalletsKey]
	if !ok {
		return nil, nil
	}
	var hd []json.RawMessage
	if err := json.Unmarshal(raw, &hd); err != nil {
		return nil, fmt.Errorf("failed to decode hd wallets: %w", err)
	}
	return hd, nil
}

func setField(m map[string]json.RawMessage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	m[key] = raw
	return nil
}
