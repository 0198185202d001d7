// Package tlsexec generates the self-signed CA and server certificate
// material the ingress and hub endpoints serve.
package tlsexec

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

const (
	defaultDir          = "/etc/kubestrap/tls"
	defaultCommonName   = "jupyterhub.local"
	defaultValidityDays = 365

	caCertFile     = "ca.crt"
	caKeyFile      = "ca.key"
	serverCertFile = "server.crt"
	serverKeyFile  = "server.key"
)

type tlsExecutor struct {
	spec *config.Component
	cfg  *config.TLSComponent
	log  *logger.Logger
}

// New returns the executor factory for the tls component type.
func New(log *logger.Logger) executor.Factory {
	return func(spec *config.Component) (executor.Executor, error) {
		if spec.TLS == nil {
			return nil, kuberrors.NewExecutorError("tls", fmt.Errorf("tls configuration missing for %s", spec.Name))
		}
		return &tlsExecutor{spec: spec, cfg: spec.TLS, log: log.WithComponent(spec.Name)}, nil
	}
}

var _ executor.Executor = (*tlsExecutor)(nil)

func (e *tlsExecutor) Metadata() executor.Metadata {
	return executor.Metadata{
		Name:        "tls",
		Version:     "1.0.0",
		Type:        "tls",
		Description: "Generates a self-signed CA and server certificate for the hub endpoints.",
	}
}

func (e *tlsExecutor) dir() string {
	if e.cfg.Dir != "" {
		return e.cfg.Dir
	}
	return defaultDir
}

func (e *tlsExecutor) commonName() string {
	if e.cfg.CommonName != "" {
		return e.cfg.CommonName
	}
	return defaultCommonName
}

func (e *tlsExecutor) validity() time.Duration {
	days := e.cfg.ValidityDays
	if days <= 0 {
		days = defaultValidityDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func (e *tlsExecutor) Plan(_ context.Context, spec *config.Component) (*model.InstallPlan, error) {
	dir := e.dir()

	steps := []model.PlanStep{
		{
			Name: "generate-ca",
			Done: func(_ context.Context) (bool, error) {
				_, err := os.Stat(filepath.Join(dir, caCertFile))
				return err == nil, nil
			},
			Run: func(_ context.Context) error {
				return e.generateCA(dir)
			},
		},
		{
			Name: "issue-server-cert",
			Done: func(_ context.Context) (bool, error) {
				cert, err := readCertificate(filepath.Join(dir, serverCertFile))
				if err != nil {
					return false, nil
				}
				return time.Now().Before(cert.NotAfter), nil
			},
			Run: func(_ context.Context) error {
				return e.issueServerCert(dir)
			},
		},
	}

	return &model.InstallPlan{Component: spec.Name, Steps: steps}, nil
}

func (e *tlsExecutor) Apply(ctx context.Context, plan *model.InstallPlan) error {
	return executor.ApplyPlan(ctx, e.log, plan)
}

func (e *tlsExecutor) Probe(_ context.Context) (bool, string) {
	cert, err := readCertificate(filepath.Join(e.dir(), serverCertFile))
	if err != nil {
		return false, fmt.Sprintf("server certificate unreadable: %v", err)
	}
	if !time.Now().Before(cert.NotAfter) {
		return false, fmt.Sprintf("server certificate expired %s", cert.NotAfter.Format(time.RFC3339))
	}
	return true, fmt.Sprintf("server certificate valid until %s", cert.NotAfter.Format(time.RFC3339))
}

// CurrentVersion reports a synthetic version for compatibility tracking:
// an error when no certificate exists (absent), an empty version when the
// certificate exists but has expired (forces an explicit decision), and a
// stable version string while the material is valid.
func (e *tlsExecutor) CurrentVersion(_ context.Context) (string, error) {
	cert, err := readCertificate(filepath.Join(e.dir(), serverCertFile))
	if err != nil {
		return "", err
	}
	if !time.Now().Before(cert.NotAfter) {
		return "", nil
	}
	return "1.0.0", nil
}

func (e *tlsExecutor) StatePaths() []string {
	return []string{e.dir()}
}

func (e *tlsExecutor) generateCA(dir string) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}

	serial, err := randomSerial()
	if err != nil {
		return err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: e.commonName() + " CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(2 * e.validity()),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return err
	}

	if err := writeCert(filepath.Join(dir, caCertFile), der); err != nil {
		return err
	}
	return writeKey(filepath.Join(dir, caKeyFile), key)
}

func (e *tlsExecutor) issueServerCert(dir string) error {
	caCert, err := readCertificate(filepath.Join(dir, caCertFile))
	if err != nil {
		return err
	}
	caKey, err := readKey(filepath.Join(dir, caKeyFile))
	if err != nil {
		return err
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}

	serial, err := randomSerial()
	if err != nil {
		return err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: e.commonName()},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(e.validity()),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{e.commonName()},
	}
	for _, host := range e.cfg.Hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
			continue
		}
		template.DNSNames = append(template.DNSNames, host)
	}

	der, err := x509.CreateCertificate(rand.Reader, template, caCert, &key.PublicKey, caKey)
	if err != nil {
		return err
	}

	if err := writeCert(filepath.Join(dir, serverCertFile), der); err != nil {
		return err
	}
	return writeKey(filepath.Join(dir, serverKeyFile), key)
}

func randomSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	return rand.Int(rand.Reader, limit)
}

func writeCert(path string, der []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	block := &pem.Block{Type: "CERTIFICATE", Bytes: der}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0o644)
}

func writeKey(path string, key *ecdsa.PrivateKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}
	block := &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0o600)
}

func readCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s contains no PEM block", path)
	}
	return x509.ParseCertificate(block.Bytes)
}

func readKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s contains no PEM block", path)
	}
	return x509.ParseECPrivateKey(block.Bytes)
}
