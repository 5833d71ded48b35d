// Package crypto provides the TLS configuration and certificate helpers used
// by the web server and client.
package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"
)

const (
	pemTypeCertificate = "CERTIFICATE"
	pemTypePrivateKey  = "PRIVATE KEY"
)

// DefaultTLSConfig returns the TLS configuration shared by the server and
// client.
func DefaultTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		// Only use curves which have constant-time implementations.
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}
}

// NewSelfSignedCert creates a self-signed X.509 v3 server certificate valid
// for the given hosts until expiration. Hosts can be DNS names or IP
// addresses. The first host is used as the subject common name.
// Reference: https://eli.thegreenplace.net/2021/go-https-servers-with-tls/
func NewSelfSignedCert(hosts []string, expiration time.Time) (tls.Certificate, error) {
	if len(hosts) == 0 {
		return tls.Certificate{}, errors.New("at least one host is required")
	}

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed generating serial number: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"reqbind"},
			CommonName:   hosts[0],
		},
		NotBefore:             time.Now(),
		NotAfter:              expiration,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed generating ECDSA key: %w", err)
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template,
		&privKey.PublicKey, privKey)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed creating X.509 certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(certDER)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed parsing X.509 certificate: %w", err)
	}

	return tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  privKey,
		Leaf:        leaf,
	}, nil
}

// EncodeTLSCert converts a tls.Certificate to a single PEM-encoded byte slice
// containing the certificate chain followed by the private key.
func EncodeTLSCert(cert tls.Certificate) ([]byte, error) {
	if len(cert.Certificate) == 0 {
		return nil, errors.New("no certificate data found")
	}

	var buf bytes.Buffer
	// The first certificate is the leaf, followed by any intermediates.
	for _, certDER := range cert.Certificate {
		if err := pem.Encode(&buf, &pem.Block{
			Type:  pemTypeCertificate,
			Bytes: certDER,
		}); err != nil {
			return nil, fmt.Errorf("failed encoding certificate: %w", err)
		}
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(cert.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed marshalling private key: %w", err)
	}

	if err := pem.Encode(&buf, &pem.Block{
		Type:  pemTypePrivateKey,
		Bytes: keyDER,
	}); err != nil {
		return nil, fmt.Errorf("failed encoding private key: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeTLSCert reconstructs a tls.Certificate from PEM-encoded data
// containing one or more CERTIFICATE blocks and one PRIVATE KEY block.
func DecodeTLSCert(data []byte) (tls.Certificate, error) {
	var certPEM, keyPEM []byte

	for {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}

		switch block.Type {
		case pemTypeCertificate:
			certPEM = append(certPEM, pem.EncodeToMemory(block)...)
		case pemTypePrivateKey:
			keyPEM = pem.EncodeToMemory(block)
		}

		data = rest
	}

	if len(certPEM) == 0 {
		return tls.Certificate{}, errors.New("no certificate found in PEM data")
	}
	if len(keyPEM) == 0 {
		return tls.Certificate{}, errors.New("no private key found in PEM data")
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed loading key pair: %w", err)
	}

	return cert, nil
}

// CertPool returns a pool containing the leaf certificate of cert, for
// clients that need to trust a self-signed server certificate.
func CertPool(cert tls.Certificate) (*x509.CertPool, error) {
	leaf := cert.Leaf
	if leaf == nil {
		if len(cert.Certificate) == 0 {
			return nil, errors.New("no certificate data found")
		}
		var err error
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("failed parsing X.509 certificate: %w", err)
		}
	}

	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	return pool, nil
}
