// Package registry maps test names to constructors for every
// measurement.Test implementation in internal/nettests, grounded on
// the teacher's internal/registry package (allexperiments.go's
// experimentsByName map plus factory.go's per-test Factory), collapsed
// here into a single map of constructor functions since this design
// has no per-test Options()/SetOptionAny() CLI-flag reflection layer
// (cmd/mk exposes the handful of settings every test shares — net/*,
// report_dir, input_filepath — as plain cobra flags instead).
package registry

import (
	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/measurement"
	"github.com/TheTorProject/libight/internal/model"
	"github.com/TheTorProject/libight/internal/nettests/captiveportal"
	"github.com/TheTorProject/libight/internal/nettests/dash"
	"github.com/TheTorProject/libight/internal/nettests/dnscheck"
	"github.com/TheTorProject/libight/internal/nettests/fbmessenger"
	"github.com/TheTorProject/libight/internal/nettests/httpinvalidline"
	"github.com/TheTorProject/libight/internal/nettests/meek"
	"github.com/TheTorProject/libight/internal/nettests/ndt"
	"github.com/TheTorProject/libight/internal/nettests/tcpconnect"
	"github.com/TheTorProject/libight/internal/reactor"
	"github.com/TheTorProject/libight/internal/resolver"
)

// Shared carries the pieces every test constructor may need. Not
// every test uses every field.
type Shared struct {
	Reactor   *reactor.Reactor
	Resolver  resolver.Backend
	Logger    model.Logger
	Config    *connect.Config
	ASNDBPath string
}

// Constructor builds one measurement.Test from Shared.
type Constructor func(s *Shared) measurement.Test

// ByName lists every constructor, keyed by the test_name reported in
// measurement reports.
var ByName = map[string]Constructor{
	"tcp_connect": func(s *Shared) measurement.Test {
		return &tcpconnect.Test{Reactor: s.Reactor, Resolver: s.Resolver, Logger: s.Logger}
	},
	"dns_check": func(s *Shared) measurement.Test {
		return &dnscheck.Test{Bootstrap: s.Resolver, Reactor: s.Reactor, Logger: s.Logger}
	},
	"http_invalid_request_line": func(s *Shared) measurement.Test {
		return &httpinvalidline.Test{Config: s.Config}
	},
	"facebook_messenger": func(s *Shared) measurement.Test {
		return &fbmessenger.Test{Config: s.Config, ASNDBPath: s.ASNDBPath}
	},
	"dash": func(s *Shared) measurement.Test {
		return &dash.Test{Config: s.Config}
	},
	"captive_portal": func(s *Shared) measurement.Test {
		return &captiveportal.Test{Config: s.Config}
	},
	"meek_fronted_requests": func(s *Shared) measurement.Test {
		return &meek.Test{Config: s.Config}
	},
	"ndt7": func(s *Shared) measurement.Test {
		return &ndt.Test{Logger: s.Logger}
	},
}

// Names returns every registered test name.
func Names() []string {
	names := make([]string, 0, len(ByName))
	for name := range ByName {
		names = append(names, name)
	}
	return names
}
