package client

import (
	"fmt"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// NewOutboundClient creates the HTTP client used for talking to fitness
// provider APIs (token exchange, activity fetch). Provider endpoints are
// flaky under load, so every call goes through retry with exponential
// backoff; 429 and 5xx responses are retried by the default checker.
func NewOutboundClient(
	timeout time.Duration,
	maxRetries int,
	retryDelay, maxRetryDelay time.Duration,
) (*retry.Client, error) {
	// Provider APIs authenticate with OAuth bearer tokens set per
	// request, so the transport itself carries no credentials.
	client, err := httpclient.NewAuthClient(
		httpclient.AuthModeNone,
		"",
		httpclient.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbound client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(client),
		retry.WithMaxRetries(maxRetries),
		retry.WithInitialRetryDelay(retryDelay),
		retry.WithMaxRetryDelay(maxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return retryClient, nil
}
