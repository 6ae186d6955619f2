package connect

//
// Hand-rolled SOCKS5 client, spec.md §4.5 step 1a.
//
// Deliberately not golang.org/x/net/proxy: that package collapses every
// protocol failure into one opaque error, but spec.md §7's taxonomy
// needs to distinguish BadSocksVersionError, BadSocksReservedFieldError,
// BadSocksAtypeValueError, SocksAddressTooLongError,
// SocksInvalidPortError and NoAvailableSocksAuthenticationError as
// separate codes. The wire layout (version/method negotiation, CONNECT
// request, ATYPE-tagged reply) is grounded on the teacher's
// internal/testingsocks5/request.go, which implements the server side
// of the same protocol; this file is the client-side mirror image.
//

import (
	"context"
	"io"
	"net"
	"strconv"

	"github.com/TheTorProject/libight/internal/errs"
)

const socks5Version = uint8(5)

const (
	socks5MethodNoAuth = uint8(0)
	socks5MethodNoneAcceptable = uint8(0xff)
)

const (
	socks5CmdConnect = uint8(1)
)

const (
	socks5AtypeIPv4 = uint8(1)
	socks5AtypeFQDN = uint8(3)
	socks5AtypeIPv6 = uint8(4)
)

const socks5ReplySuccess = uint8(0)

// dialViaSocks5 connects to cfg.Socks5Proxy and asks it to CONNECT to
// host:port, per spec.md §4.5 step 1a. Returns the proxy connection,
// now wired through to the remote, and the "remote" label for logging.
func dialViaSocks5(ctx context.Context, cfg *Config, host, port string) (net.Conn, string, *errs.Error) {
	dialer := &net.Dialer{Timeout: dialTimeout(cfg)}
	dctx, cancel := context.WithTimeout(ctx, dialTimeout(cfg))
	defer cancel()
	conn, err := dialer.DialContext(dctx, "tcp", cfg.Socks5Proxy)
	if err != nil {
		return nil, "", errs.ConnectFailed(errs.ClassifyGeneric(err))
	}
	if serr := socks5Handshake(conn, host, port); serr != nil {
		conn.Close()
		return nil, "", serr
	}
	return conn, net.JoinHostPort(host, port), nil
}

func socks5Handshake(conn net.Conn, host, port string) *errs.Error {
	if _, err := conn.Write([]byte{socks5Version, 1, socks5MethodNoAuth}); err != nil {
		return errs.Network(err.Error())
	}
	reply := make([]byte, 2)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return errs.Network(err.Error())
	}
	if reply[0] != socks5Version {
		return errs.BadSocksVersion()
	}
	if reply[1] == socks5MethodNoneAcceptable {
		return errs.NoAvailableSocksAuthentication()
	}
	if reply[1] != socks5MethodNoAuth {
		return errs.NoAvailableSocksAuthentication()
	}

	req, rerr := socks5EncodeConnectRequest(host, port)
	if rerr != nil {
		return rerr
	}
	if _, err := conn.Write(req); err != nil {
		return errs.Network(err.Error())
	}

	return socks5ReadReply(conn)
}

// socks5EncodeConnectRequest builds the CONNECT request for host:port,
// choosing ATYPE per the address form: IPv4, IPv6, or FQDN (domain
// names up to 255 bytes), per spec.md §4.5's taxonomy entries.
func socks5EncodeConnectRequest(host, port string) ([]byte, *errs.Error) {
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return nil, errs.SocksInvalidPort()
	}

	var addrBody []byte
	var atype uint8
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			atype = socks5AtypeIPv4
			addrBody = v4
		} else {
			atype = socks5AtypeIPv6
			addrBody = ip.To16()
		}
	} else {
		if len(host) > 255 {
			return nil, errs.SocksAddressTooLong()
		}
		atype = socks5AtypeFQDN
		addrBody = append([]byte{byte(len(host))}, []byte(host)...)
	}

	req := make([]byte, 0, 6+len(addrBody))
	req = append(req, socks5Version, socks5CmdConnect, 0, atype)
	req = append(req, addrBody...)
	req = append(req, byte(portNum>>8), byte(portNum&0xff))
	return req, nil
}

func socks5ReadReply(conn net.Conn) *errs.Error {
	head := make([]byte, 4)
	if _, err := io.ReadFull(conn, head); err != nil {
		return errs.Network(err.Error())
	}
	if head[0] != socks5Version {
		return errs.BadSocksVersion()
	}
	if head[1] != socks5ReplySuccess {
		return errs.Socks("SOCKS5 server refused CONNECT, reply code " + strconv.Itoa(int(head[1])))
	}
	if head[2] != 0 {
		return errs.BadSocksReservedField()
	}
	switch head[3] {
	case socks5AtypeIPv4:
		if _, err := io.ReadFull(conn, make([]byte, 4+2)); err != nil {
			return errs.Network(err.Error())
		}
	case socks5AtypeIPv6:
		if _, err := io.ReadFull(conn, make([]byte, 16+2)); err != nil {
			return errs.Network(err.Error())
		}
	case socks5AtypeFQDN:
		lenBuf := make([]byte, 1)
		if _, err := io.ReadFull(conn, lenBuf); err != nil {
			return errs.Network(err.Error())
		}
		if _, err := io.ReadFull(conn, make([]byte, int(lenBuf[0])+2)); err != nil {
			return errs.Network(err.Error())
		}
	default:
		return errs.BadSocksAtypeValue()
	}
	return nil
}
