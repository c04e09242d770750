package dispatch

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// NewTLSClient builds an *http.Client trusting the certificate at certPath
// (expected to hold a base64-wrapped PEM certificate, per the conventional
// config/security/ca_sap_root_base64.crt layout). If certPath does not
// exist, TLS verification is disabled instead — a documented trade-off
// carried over from the original fuzzer, not a silent default: callers
// should log when this branch is taken.
func NewTLSClient(certPath string) (*http.Client, bool, error) {
	if _, err := os.Stat(certPath); err != nil {
		return &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		}, false, nil
	}

	pool, err := loadCertPool(certPath)
	if err != nil {
		return nil, false, fmt.Errorf("dispatch: loading TLS trust anchor %s: %w", certPath, err)
	}

	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		},
	}, true, nil
}

func loadCertPool(certPath string) (*x509.CertPool, error) {
	raw, err := os.ReadFile(certPath)
	if err != nil {
		return nil, err
	}

	pem, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		// Some deployments ship the certificate as plain PEM already;
		// fall back to treating the file contents as-is.
		pem = raw
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", certPath)
	}
	return pool, nil
}
