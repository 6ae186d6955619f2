package connect

import (
	"net"
	"testing"

	"github.com/TheTorProject/libight/internal/errs"
)

func TestSocks5EncodeConnectRequestIPv4(t *testing.T) {
	req, err := socks5EncodeConnectRequest("127.0.0.1", "80")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{socks5Version, socks5CmdConnect, 0, socks5AtypeIPv4, 127, 0, 0, 1, 0, 80}
	if string(req) != string(want) {
		t.Fatalf("got %v, want %v", req, want)
	}
}

func TestSocks5EncodeConnectRequestFQDN(t *testing.T) {
	req, err := socks5EncodeConnectRequest("example.com", "443")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req[3] != socks5AtypeFQDN {
		t.Fatalf("expected FQDN atype, got %d", req[3])
	}
	if int(req[4]) != len("example.com") {
		t.Fatalf("expected length prefix %d, got %d", len("example.com"), req[4])
	}
}

func TestSocks5EncodeConnectRequestTooLongFQDN(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	_, err := socks5EncodeConnectRequest(string(long), "80")
	if err == nil || err.Code != errs.SocksAddressTooLongError {
		t.Fatalf("expected SocksAddressTooLongError, got %v", err)
	}
}

func TestSocks5EncodeConnectRequestBadPort(t *testing.T) {
	_, err := socks5EncodeConnectRequest("example.com", "not-a-port")
	if err == nil || err.Code != errs.SocksInvalidPortError {
		t.Fatalf("expected SocksInvalidPortError, got %v", err)
	}
}

func TestSocks5ReadReplyBadVersion(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	go server.Write([]byte{4, 0, 0, socks5AtypeIPv4, 0, 0, 0, 0, 0, 0})
	err := socks5ReadReply(client)
	if err == nil || err.Code != errs.BadSocksVersionError {
		t.Fatalf("expected BadSocksVersionError, got %v", err)
	}
}

func TestSocks5ReadReplyBadReservedField(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	go server.Write([]byte{socks5Version, socks5ReplySuccess, 1, socks5AtypeIPv4, 0, 0, 0, 0, 0, 0})
	err := socks5ReadReply(client)
	if err == nil || err.Code != errs.BadSocksReservedFieldError {
		t.Fatalf("expected BadSocksReservedFieldError, got %v", err)
	}
}

func TestSocks5ReadReplyBadAtype(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	go server.Write([]byte{socks5Version, socks5ReplySuccess, 0, 0x7f})
	err := socks5ReadReply(client)
	if err == nil || err.Code != errs.BadSocksAtypeValueError {
		t.Fatalf("expected BadSocksAtypeValueError, got %v", err)
	}
}

func TestConnectFailedCollapsesChildren(t *testing.T) {
	c1 := errs.Network("refused")
	c2 := errs.Timeout()
	collapsed := errs.ConnectFailed(c1, c2)
	if collapsed.Code != errs.ConnectFailedError {
		t.Fatalf("expected ConnectFailedError, got %v", collapsed.Code)
	}
	if len(collapsed.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(collapsed.Children))
	}
}
