package netfetch

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const backOffMaxDuration = 3 * time.Second

// RetryingHTTPClient wraps the stdlib client with an exponential backoff
// retry policy for transient transport failures.
type RetryingHTTPClient struct {
	internalClient http.Client
}

func NewRetryingHTTPClient() *RetryingHTTPClient {
	return &RetryingHTTPClient{
		internalClient: http.Client{},
	}
}

// Do executes the request, retrying until the backoff policy or the request
// context gives up. Response status codes are not inspected here.
func (client *RetryingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var err error
	var resp *http.Response

	backoffPolicy := backoff.NewExponentialBackOff()
	backoffPolicy.MaxElapsedTime = backOffMaxDuration

	err = backoff.Retry(
		func() error {
			resp, err = client.internalClient.Do(req)
			if err != nil {
				return err
			}

			return nil
		},
		backoff.WithContext(backoffPolicy, req.Context()),
	)

	// All retries failed
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// CloseIdleConnections drops kept-alive connections. Used on shutdown.
func (client *RetryingHTTPClient) CloseIdleConnections() {
	client.internalClient.CloseIdleConnections()
}
