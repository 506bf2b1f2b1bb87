package api

import (
	"net/http"

	"github.com/AlexZinkM/wallet-payload/internal/handler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(cryptoHandler *handler.CryptoHandler, walletHandler *handler.WalletHandler, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Metrics
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Crypto endpoints
	mux.HandleFunc("/crypto/encrypt", cryptoHandler.Encrypt)
	mux.HandleFunc("/crypto/decrypt", cryptoHandler.Decrypt)

	// Wallet endpoints
	mux.HandleFunc("/wallet/payload", walletHandler.Payload)
	mux.HandleFunc("/wallet/upgrade", walletHandler.Upgrade)
	mux.HandleFunc("/wallet/upgrade/history", walletHandler.History)
	mux.HandleFunc("/wallet/pairing/qr", walletHandler.PairingQR)

	return mux
}
