package httpengine

import (
	"testing"

	"github.com/TheTorProject/libight/internal/model"
)

func exampleRequest() *Request {
	h := NewHeader()
	h.Add("User-Agent", "Antani/1.0.0.0")
	return &Request{
		Method:   "GET",
		URL:      &Url{Schema: "http", Host: "www.example.com", Port: 80, Path: "/antani", Query: "clacsonato=yes", Fragment: "melandri"},
		Protocol: "HTTP/1.0",
		Headers:  h,
		Body:     []byte("0123456789"),
	}
}

func TestSerializeScenario1(t *testing.T) {
	wire, err := Serialize(exampleRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "GET /antani?clacsonato=yes HTTP/1.0\r\n" +
		"User-Agent: Antani/1.0.0.0\r\n" +
		"Host: www.example.com\r\n" +
		"Content-Length: 10\r\n" +
		"\r\n" +
		"0123456789"
	if string(wire) != want {
		t.Fatalf("got:\n%q\nwant:\n%q", wire, want)
	}
}

func TestSerializeScenario2PathOverride(t *testing.T) {
	settings := model.Settings{"http/path": "/antani?amicimiei"}
	wire, err := Serialize(exampleRequest(), settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "GET /antani?amicimiei HTTP/1.0\r\n"
	if len(wire) < len(want) || string(wire[:len(want)]) != want {
		t.Fatalf("got prefix %q, want %q", wire[:len(want)], want)
	}
}

func TestSerializeMissingSchema(t *testing.T) {
	req := exampleRequest()
	req.URL.Schema = ""
	if _, err := Serialize(req, nil); err == nil {
		t.Fatal("expected MissingUrlSchemaError")
	}
}

func TestSerializeMissingHost(t *testing.T) {
	req := exampleRequest()
	req.URL.Host = ""
	if _, err := Serialize(req, nil); err == nil {
		t.Fatal("expected MissingUrlHostError")
	}
}

func TestParseUrlRoundTrip(t *testing.T) {
	u, err := ParseUrl("http://www.example.com/antani?clacsonato=yes#melandri")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Schema != "http" || u.Host != "www.example.com" || u.Path != "/antani" || u.Query != "clacsonato=yes" || u.Fragment != "melandri" {
		t.Fatalf("unexpected parse: %+v", u)
	}
}

func TestParseUrlMissingSchema(t *testing.T) {
	if _, err := ParseUrl("www.example.com/antani"); err == nil {
		t.Fatal("expected MissingUrlSchemaError")
	}
}

func TestParseUrlMissingHost(t *testing.T) {
	if _, err := ParseUrl("http:///antani"); err == nil {
		t.Fatal("expected MissingUrlHostError")
	}
}
