package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the SSO flow and session validation. Registered on the
// default registry at init so they exist before any request is served.
var (
	SSOLoginInitiatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safenode_sso_logins_initiated_total",
		Help: "SSO logins initiated, by provider.",
	}, []string{"provider"})

	SSOLoginSucceededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safenode_sso_logins_succeeded_total",
		Help: "SSO logins completed with a minted session token, by provider.",
	}, []string{"provider"})

	SSOLoginFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safenode_sso_logins_failed_total",
		Help: "SSO logins that ended on the error redirect, by error code.",
	}, []string{"error"})

	TokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safenode_session_tokens_issued_total",
		Help: "Session tokens minted.",
	})

	TokenValidationRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safenode_session_validations_rejected_total",
		Help: "Session validations rejected, by rejection code.",
	}, []string{"code"})

	AccountsProvisionedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safenode_sso_accounts_provisioned_total",
		Help: "Accounts created on first SSO login.",
	})

	TokenVersionBumpsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safenode_token_version_bumps_total",
		Help: "Global logout token-version bumps.",
	})
)
