package connect

//
// TLS upgrade, spec.md §4.5 step 3.
//
// Grounded on the teacher's internal/netxlite TLS handshaker (SNI from
// config, CA bundle path from Config.CABundlePath). Unless NoTLSVerify
// is set, crypto/tls's verifier checks the chain and the hostname during
// the handshake and the hostname is checked once more against the leaf
// certificate afterwards; classifyTLSError maps the handshake's x509
// errors so that SslInvalidHostnameError/SslInvalidCertificateError/
// SslNoCertificateError can be told apart, matching the source
// library's distinct OpenSSL error paths.
//

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"os"

	"github.com/TheTorProject/libight/internal/errs"
)

func upgradeTLS(ctx context.Context, cfg *Config, conn net.Conn, serverName string) (*tls.Conn, *errs.Error) {
	pool, perr := loadCAPool(cfg.CABundlePath)
	if perr != nil {
		return nil, perr
	}

	tlsConfig := &tls.Config{
		ServerName:         serverName,
		RootCAs:            pool,
		InsecureSkipVerify: cfg.NoTLSVerify,
	}

	tlsConn := tls.Client(conn, tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, classifyTLSError(err)
	}

	if !cfg.NoTLSVerify {
		state := tlsConn.ConnectionState()
		if len(state.PeerCertificates) == 0 {
			return nil, errs.SslNoCertificate()
		}
		if err := state.PeerCertificates[0].VerifyHostname(serverName); err != nil {
			return nil, errs.SslInvalidHostname(err.Error())
		}
	}
	return tlsConn, nil
}

func loadCAPool(path string) (*x509.CertPool, *errs.Error) {
	if path == "" {
		return nil, nil // use system pool
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.MissingCaBundlePath()
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, errs.SslCtxLoadVerifyLocations("no certificates found in " + path)
	}
	return pool, nil
}

func classifyTLSError(err error) *errs.Error {
	var certErr x509.CertificateInvalidError
	if errors.As(err, &certErr) {
		return errs.SslInvalidCertificate(certErr.Error())
	}
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthErr) {
		return errs.SslInvalidCertificate(unknownAuthErr.Error())
	}
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return errs.SslInvalidHostname(hostErr.Error())
	}
	return errs.SslNew(err.Error())
}
