package enrich

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/domain-enrich/internal/model"
)

const probeTimeout = 10 * time.Second

// Verifier probes a claimed domain for reachability.
type Verifier interface {
	Verify(ctx context.Context, domain string) model.VerificationStatus
}

// httpVerifier probes with HEAD requests: HTTPS first, falling back to
// plain HTTP when HTTPS does not answer cleanly.
type httpVerifier struct {
	http *http.Client
}

// NewVerifier creates the default HTTP-probe verifier.
func NewVerifier() Verifier {
	return &httpVerifier{
		http: &http.Client{Timeout: probeTimeout},
	}
}

// NewVerifierWithClient creates a verifier with a custom http.Client.
func NewVerifierWithClient(hc *http.Client) Verifier {
	return &httpVerifier{http: hc}
}

func (v *httpVerifier) Verify(ctx context.Context, domain string) model.VerificationStatus {
	status, err := v.probe(ctx, "https://"+domain)
	if err == nil && status < 400 {
		return model.VerificationVerified
	}
	if err != nil {
		zap.L().Debug("enrich: https probe failed", zap.String("domain", domain), zap.Error(err))
	}

	status, err = v.probe(ctx, "http://"+domain)
	switch {
	case err != nil:
		return model.VerificationUnreachable
	case status < 400:
		return model.VerificationHTTPOnly
	default:
		return model.VerificationInaccessible
	}
}

func (v *httpVerifier) probe(ctx context.Context, url string) (int, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()

	return resp.StatusCode, nil
}
