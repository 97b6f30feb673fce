package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	TransactionsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idp_transactions_started_total",
		Help: "Total number of authorization transactions started.",
	})
	OtpDispatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idp_otp_dispatched_total",
		Help: "Total number of OTP dispatches.",
	})
	AuthSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idp_auth_success_total",
		Help: "Total number of successful authentications.",
	})
	AuthFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idp_auth_failure_total",
		Help: "Total number of failed authentications.",
	})
	AuthCodesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idp_auth_codes_issued_total",
		Help: "Total number of authorization codes issued.",
	})
	WalletBindingsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idp_wallet_bindings_total",
		Help: "Total number of wallet bindings stored or refreshed.",
	})
)

// Register registers the identity-provider metrics with the given registry.
// It should be called once at application startup; the counters themselves
// are usable without registration, so unit tests need no setup.
func Register(reg prometheus.Registerer) {
	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register metrics")
		return
	}
	collectors := []prometheus.Collector{
		TransactionsStartedTotal,
		OtpDispatchedTotal,
		AuthSuccessTotal,
		AuthFailureTotal,
		AuthCodesIssuedTotal,
		WalletBindingsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register Prometheus metric")
		}
	}
	log.Info().Msg("Prometheus metrics registered")
}
