package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/AlexZinkM/wallet-payload/internal/model"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPayloadCryptorScenario(t *testing.T) {
	cryptor := NewPayloadCryptor(WithRandom(zeroReader{}))
	plaintext := `{"guid":"abc"}`

	encrypted, err := cryptor.Encrypt(model.NewKeyDataPair("secret", plaintext), AutoPairIterations)
	require.NoError(t, err)

	// IV is framed in front of the ciphertext
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	require.Equal(t, make([]byte, saltLen), raw[:saltLen])
	require.Len(t, raw, saltLen+16)

	decrypted, err := cryptor.Decrypt(model.NewKeyDataPair("secret", encrypted), AutoPairIterations)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestPayloadCryptorDeterministic(t *testing.T) {
	pair := model.NewKeyDataPair("secret", "payload")

	first, err := NewPayloadCryptor(WithRandom(zeroReader{})).Encrypt(pair, PinLoginIterations)
	require.NoError(t, err)
	second, err := NewPayloadCryptor(WithRandom(zeroReader{})).Encrypt(pair, PinLoginIterations)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPayloadCryptorRoundTripProperty(t *testing.T) {
	cryptor := NewPayloadCryptor()

	rapid.Check(t, func(t *rapid.T) {
		key := rapid.StringN(1, 64, -1).Draw(t, "key")
		plaintext := rapid.String().Draw(t, "plaintext")
		iterations := rapid.Uint32Range(1, 50).Draw(t, "iterations")

		encrypted, err := cryptor.Encrypt(model.NewKeyDataPair(key, plaintext), iterations)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}

		decrypted, err := cryptor.Decrypt(model.NewKeyDataPair(key, encrypted), iterations)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if decrypted != plaintext {
			t.Fatalf("round trip mismatch: got %q want %q", decrypted, plaintext)
		}
	})
}

func TestPayloadCryptorIterationSensitivity(t *testing.T) {
	cryptor := NewPayloadCryptor()

	rapid.Check(t, func(t *rapid.T) {
		plaintext := rapid.StringN(1, 100, -1).Draw(t, "plaintext")
		n := rapid.Uint32Range(1, 30).Draw(t, "n")
		m := rapid.Uint32Range(1, 30).Filter(func(m uint32) bool { return m != n }).Draw(t, "m")

		encrypted, err := cryptor.Encrypt(model.NewKeyDataPair("password", plaintext), n)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}

		decrypted, err := cryptor.Decrypt(model.NewKeyDataPair("password", encrypted), m)
		if err == nil && decrypted == plaintext {
			t.Fatalf("decrypting with %d iterations matched encryption with %d", m, n)
		}
	})
}

func TestPayloadCryptorWrongKey(t *testing.T) {
	cryptor := NewPayloadCryptor()

	encrypted, err := cryptor.Encrypt(model.NewKeyDataPair("right", `{"guid":"abc"}`), 5000)
	require.NoError(t, err)

	decrypted, err := cryptor.Decrypt(model.NewKeyDataPair("wrong", encrypted), 5000)
	if err == nil {
		require.NotEqual(t, `{"guid":"abc"}`, decrypted)
		return
	}
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestPayloadCryptorDecodingErrors(t *testing.T) {
	cryptor := NewPayloadCryptor()

	_, err := cryptor.Decrypt(model.NewKeyDataPair("key", "not base64!"), 10)
	require.ErrorIs(t, err, ErrDecodingFailed)

	short := base64.StdEncoding.EncodeToString(make([]byte, saltLen-1))
	_, err = cryptor.Decrypt(model.NewKeyDataPair("key", short), 10)
	require.ErrorIs(t, err, ErrDecodingFailed)

	// IV only: nothing to unpad under the default padding
	ivOnly := base64.StdEncoding.EncodeToString(make([]byte, saltLen))
	_, err = cryptor.Decrypt(model.NewKeyDataPair("key", ivOnly), 10)
	require.ErrorIs(t, err, ErrDecryptionFailed)
	require.ErrorIs(t, err, ErrOperationFailed)
}

func TestPayloadCryptorEmptyPlaintextWithoutPadding(t *testing.T) {
	cryptor := NewPayloadCryptor()
	iv := make([]byte, saltLen)

	for _, opts := range []Options{
		{BlockMode: OFB, Padding: NoPadding},
		{BlockMode: CBC, Padding: NoPadding},
	} {
		encrypted, err := cryptor.EncryptWithIV(model.NewKeyDataPair("pw", ""), PinLoginIterations, iv, opts)
		require.NoError(t, err)

		decrypted, err := cryptor.DecryptWithOptions(model.NewKeyDataPair("pw", encrypted), PinLoginIterations, opts)
		require.NoError(t, err, opts.String())
		require.Equal(t, "", decrypted)
	}
}

func TestPayloadCryptorRejectsZeroIterations(t *testing.T) {
	cryptor := NewPayloadCryptor()

	_, err := cryptor.Encrypt(model.NewKeyDataPair("key", "data"), 0)
	require.ErrorIs(t, err, ErrKeyDerivationFailed)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestPayloadCryptorV1Options(t *testing.T) {
	cryptor := NewPayloadCryptor()
	iv := make([]byte, saltLen)
	iv[0] = 7

	for _, opts := range []Options{
		{BlockMode: OFB, Padding: NoPadding},
		{BlockMode: OFB, Padding: ISO78164},
	} {
		encrypted, err := cryptor.EncryptWithIV(model.NewKeyDataPair("pw", "legacy wallet"), PinLoginIterations, iv, opts)
		require.NoError(t, err)

		decrypted, err := cryptor.DecryptWithOptions(model.NewKeyDataPair("pw", encrypted), PinLoginIterations, opts)
		require.NoError(t, err)
		require.Equal(t, "legacy wallet", decrypted)
	}
}

func TestStretchKey(t *testing.T) {
	salt := []byte("0123456789abcdef")

	a, err := StretchKey([]byte("pw"), salt, 10)
	require.NoError(t, err)
	require.Len(t, a, 32)

	b, err := StretchKey([]byte("pw"), salt, 11)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, err = StretchKey([]byte("pw"), nil, 10)
	require.ErrorIs(t, err, ErrKeyDerivationFailed)
}
