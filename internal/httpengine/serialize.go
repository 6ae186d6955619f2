package httpengine

//
// Request serialization, spec.md §4.6.
//
// Exactly reproduces the two worked examples in spec.md §8.1/§8.2:
// request-line, provided headers in order, a derived Host header,
// Content-Length when the body is non-empty, then CRLF and the body.
//

import (
	"strconv"
	"strings"

	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/model"
)

// Serialize builds the wire bytes for req. settings["http/path"], when
// non-empty, overrides req.URL.PathQuery() in the request-line.
func Serialize(req *Request, settings model.Settings) ([]byte, *errs.Error) {
	if req.URL == nil {
		return nil, errs.MissingUrl()
	}
	if req.URL.Schema == "" {
		return nil, errs.MissingUrlSchema()
	}
	if req.URL.Host == "" {
		return nil, errs.MissingUrlHost()
	}

	pathQuery := req.URL.PathQuery()
	if settings != nil {
		if override := settings.String("http/path", ""); override != "" {
			pathQuery = override
		}
	}

	var b strings.Builder
	b.WriteString(req.Method)
	b.WriteString(" ")
	b.WriteString(pathQuery)
	b.WriteString(" ")
	b.WriteString(req.Protocol)
	b.WriteString("\r\n")

	if req.Headers != nil {
		for _, k := range req.Headers.Keys() {
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(req.Headers.Get(k))
			b.WriteString("\r\n")
		}
	}

	b.WriteString("Host: ")
	b.WriteString(req.URL.HostHeader())
	b.WriteString("\r\n")

	if len(req.Body) > 0 {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(req.Body)))
		b.WriteString("\r\n")
	}

	b.WriteString("\r\n")
	out := []byte(b.String())
	out = append(out, req.Body...)
	return out, nil
}
