// Package fbmessenger implements the facebook_messenger measurement
// test named in SPEC_FULL.md §6.10 (spec.md §1, C10): resolve and
// TCP-connect to a fixed list of Facebook/Messenger infrastructure
// endpoints, flagging DNS blocking when a resolved address falls
// outside Facebook's ASN and TCP blocking when any endpoint's connect
// attempt fails.
//
// Grounded line-for-line on the teacher's
// internal/experiment/fbmessenger.go service list and
// ComputeEndpointStatus logic, adapted from its urlgetter.MultiResult
// fan-out to this design's resolver.Backend (C3) + connect.Connect
// (C5) primitives directly, since this design has no urlgetter
// equivalent.
package fbmessenger

import (
	"context"
	"time"

	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/geoip"
	"github.com/TheTorProject/libight/internal/model"
	"github.com/TheTorProject/libight/internal/resolver"
)

// FacebookASN is Facebook's autonomous system number.
const FacebookASN = "AS32934"

// Endpoint describes one service to probe, grounded on the teacher's
// Service* constants.
type Endpoint struct {
	Name string
	Host string
	Port string
}

// Endpoints is the list of services this design tests.
var Endpoints = []Endpoint{
	{"b_api", "b-api.facebook.com", "443"},
	{"b_graph", "b-graph.facebook.com", "443"},
	{"edge", "edge-mqtt.facebook.com", "443"},
	{"external_cdn", "external.xx.fbcdn.net", "443"},
	{"scontent_cdn", "scontent.xx.fbcdn.net", "443"},
	{"star", "star.c10r.facebook.com", "443"},
}

// Test implements measurement.Test for facebook_messenger.
type Test struct {
	Config       *connect.Config
	ASNDBPath    string
}

func (t *Test) Name() string     { return "facebook_messenger" }
func (t *Test) Version() string  { return "0.2.1" }
func (t *Test) NeedsInput() bool { return false }

// Main probes every endpoint and emits per-endpoint consistency plus
// the two summary flags the teacher's Analysis struct carries:
// facebook_dns_blocking and facebook_tcp_blocking.
func (t *Test) Main(input string, settings model.Settings, emit func(map[string]interface{})) error {
	asnPath := settings.String("geoip_asn_path", t.ASNDBPath)
	ctx, cancel := context.WithTimeout(context.Background(), settings.Duration("net/timeout", 20*time.Second))
	defer cancel()

	dnsBlocking, tcpBlocking := false, false
	endpointResults := map[string]interface{}{}

	for _, ep := range Endpoints {
		dnsConsistent, reachable := t.probeEndpoint(ctx, ep, asnPath)
		endpointResults[ep.Name+"_dns_consistent"] = dnsConsistent
		endpointResults[ep.Name+"_reachable"] = reachable
		if dnsConsistent != nil && !*dnsConsistent {
			dnsBlocking = true
		}
		if reachable != nil && !*reachable {
			tcpBlocking = true
		}
	}

	endpointResults["facebook_dns_blocking"] = dnsBlocking
	endpointResults["facebook_tcp_blocking"] = tcpBlocking
	emit(endpointResults)
	return nil
}

// probeEndpoint resolves ep.Host, checks every returned IPv4 address
// against FacebookASN, then runs connect.Connect on ep.Host:ep.Port,
// which resolves the name again and tries each address in turn.
// Returns (dnsConsistent, reachable), either of
// which may be nil when the corresponding step could not be
// evaluated, mirroring the teacher's *bool-with-nil-for-unknown shape.
func (t *Test) probeEndpoint(ctx context.Context, ep Endpoint, asnPath string) (*bool, *bool) {
	trueVal, falseVal := true, false

	if t.Config.Resolver == nil {
		return nil, nil
	}
	msg, err := t.Config.Resolver.Query(ctx, resolver.ClassIN, resolver.TypeA, ep.Host)
	if err != nil {
		return &falseVal, nil
	}
	consistent := true
	for _, a := range msg.Answers {
		if a.IPv4 == "" {
			continue
		}
		if asnPath != "" && geoip.LookupASN(asnPath, a.IPv4) != FacebookASN {
			consistent = false
		}
	}
	if !consistent {
		return &falseVal, nil
	}

	cfg := *t.Config
	_, cerr := connect.Connect(ctx, &cfg, ep.Host+":"+ep.Port)
	reachable := cerr == nil
	return &trueVal, &reachable
}
