package payload

import (
	"testing"

	"github.com/AlexZinkM/wallet-payload/internal/model"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	w, err := Decode(`{"version":3,"pbkdf2_iterations":5000,"payload":"abc=","extra":true}`)
	require.NoError(t, err)
	require.Equal(t, &model.WalletPayloadWrapper{
		Version:          3,
		PBKDF2Iterations: 5000,
		Payload:          "abc=",
	}, w)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		wrapper string
	}{
		{name: "invalid utf8", wrapper: "{\"payload\":\"\xff\"}"},
		{name: "v1 base64 payload", wrapper: "U2FsdGVkX1+abc="},
		{name: "truncated", wrapper: `{"version":3,`},
		{name: "wrong type", wrapper: `{"version":"3","payload":"abc"}`},
		{name: "missing payload", wrapper: `{"version":3,"pbkdf2_iterations":10}`},
		{name: "empty", wrapper: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.wrapper)
			require.ErrorIs(t, err, ErrDecoding)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	in := &model.WalletPayloadWrapper{Version: 4, PBKDF2Iterations: 5000, Payload: "a+b/c=="}

	encoded, err := Encode(in)
	require.NoError(t, err)
	require.Equal(t, `{"version":4,"pbkdf2_iterations":5000,"payload":"a+b/c=="}`, encoded)

	out, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestValidateVersion(t *testing.T) {
	require.NoError(t, ValidateVersion(&model.WalletPayloadWrapper{Version: 2}))
	require.NoError(t, ValidateVersion(&model.WalletPayloadWrapper{Version: SupportedVersion}))
	require.ErrorIs(t, ValidateVersion(&model.WalletPayloadWrapper{Version: 5}), ErrUnsupportedVersion)
}

func TestChecksum(t *testing.T) {
	// sha256("")
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Checksum(""))
	require.Len(t, Checksum(`{"version":4}`), 64)
}
