package httpengine

//
// RequestCycle / RequestJSONObject, spec.md §4.6.
//
// Composes connect (C5) → send (C4 Write) → recv (ResponseParser fed
// from on_data) → close, plus redirect following. Grounded on
// internal/httpclientx.PostJSON's generic shape (teacher), adapted to
// this design's explicit Request/Response types instead of *http.Client.
//

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/model"
)

// RequestCycle performs one full request/response round trip,
// following redirects per Settings["http/max_redirects"] (spec.md
// §4.6). requestOnce has Connect negotiate TLS when the schema is https
// or httpo, or when Settings["net/ssl"] is true.
func RequestCycle(ctx context.Context, cfg *connect.Config, settings model.Settings, req *Request) (*Response, *errs.Error) {
	maxRedirects := 0
	if settings != nil {
		maxRedirects = settings.Int("http/max_redirects", 0)
	}
	current := req
	for redirects := 0; ; redirects++ {
		resp, err := requestOnce(ctx, cfg, settings, current)
		if err != nil {
			return nil, err
		}
		if !isRedirect(resp.StatusCode) || maxRedirects <= 0 || redirects >= maxRedirects {
			return resp, nil
		}
		location := resp.Headers.Get("Location")
		if location == "" {
			return resp, nil
		}
		nextURL, perr := ParseUrl(location)
		if perr != nil {
			return resp, nil
		}
		next := &Request{Method: current.Method, URL: nextURL, Protocol: current.Protocol, Headers: current.Headers, Body: current.Body}
		current = next
	}
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

func requestOnce(ctx context.Context, cfg *connect.Config, settings model.Settings, req *Request) (*Response, *errs.Error) {
	wire, serr := Serialize(req, settings)
	if serr != nil {
		return nil, serr
	}

	connCfg := *cfg
	connCfg.TLS = req.URL.Schema == "https" || req.URL.Schema == "httpo" || settings.Bool("net/ssl", false)
	if req.URL.Schema == "httpo" {
		connCfg.Socks5Proxy = settings.String("net/socks5_proxy", connCfg.Socks5Proxy)
	}

	address := req.URL.Host + ":" + strconv.Itoa(req.URL.Port)
	result, cerr := connect.Connect(ctx, &connCfg, address)
	if cerr != nil {
		return nil, cerr
	}
	tr := result.Transport
	defer tr.Close(nil)

	parsed := make(chan *Response, 1)
	parseErr := make(chan *errs.Error, 1)
	parser := NewResponseParser(Events{
		OnEnd: func() {},
	})
	tr.OnData(func(b []byte) {
		if perr := parser.Feed(b); perr != nil {
			select {
			case parseErr <- perr:
			default:
			}
			return
		}
		if parser.Done() {
			select {
			case parsed <- parser.Response():
			default:
			}
		}
	})
	tr.OnError(func(e *errs.Error) {
		if e.Code == errs.EofError {
			if perr := parser.FeedEOF(); perr != nil {
				select {
				case parseErr <- perr:
				default:
				}
				return
			}
			select {
			case parsed <- parser.Response():
			default:
			}
			return
		}
		select {
		case parseErr <- e:
		default:
		}
	})

	tr.Write(wire)

	select {
	case resp := <-parsed:
		return resp, nil
	case perr := <-parseErr:
		return nil, perr
	case <-ctx.Done():
		return nil, errs.Timeout()
	}
}

// RequestJSONObject serializes body as JSON, sets Content-Type, issues
// the request, and unmarshals a JSON response body into out.
func RequestJSONObject(ctx context.Context, cfg *connect.Config, settings model.Settings, req *Request, body, out interface{}) (*Response, *errs.Error) {
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errs.JSONParse(err.Error())
		}
		req.Body = encoded
		if req.Headers == nil {
			req.Headers = NewHeader()
		}
		req.Headers.Set("Content-Type", "application/json")
	}
	resp, rerr := RequestCycle(ctx, cfg, settings, req)
	if rerr != nil {
		return nil, rerr
	}
	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, errs.JSONParse(err.Error())
		}
	}
	return resp, nil
}
