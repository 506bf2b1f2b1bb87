package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSettingsClient(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{name: "required", status: http.StatusOK, body: `{"requires_v4_upgrade":true}`, want: true},
		{name: "not required", status: http.StatusOK, body: `{"requires_v4_upgrade":false}`},
		{name: "missing field", status: http.StatusOK, body: `{}`},
		{name: "bad status", status: http.StatusServiceUnavailable, body: ``, wantErr: true},
		{name: "bad body", status: http.StatusOK, body: `not json`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got, err := NewSettingsClient(srv.URL, time.Second).RequiresV4Upgrade(context.Background())
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSettingsClientCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSettingsClient(srv.URL, 0).RequiresV4Upgrade(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStaticFlag(t *testing.T) {
	got, err := StaticFlag(true).RequiresV4Upgrade(context.Background())
	require.NoError(t, err)
	require.True(t, got)
}
