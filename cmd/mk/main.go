// Command mk is the CLI entry point for this module, grounded on the
// teacher's internal/cmd/miniooni (a single cobra.Command with one
// subcommand per test, a persistent set of net/*-style flags shared
// by every test, and an apex/log logger installed as log.Log before
// any test runs).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	mkcli "github.com/TheTorProject/libight/cmd/mk/internal/cli"
	"github.com/TheTorProject/libight/internal/collector"
	"github.com/TheTorProject/libight/internal/connect"
	"github.com/TheTorProject/libight/internal/model"
	"github.com/TheTorProject/libight/internal/nettests/registry"
	"github.com/TheTorProject/libight/internal/reactor"
	"github.com/TheTorProject/libight/internal/resolver"
	"github.com/TheTorProject/libight/internal/measurement"
)

// options collects every flag shared across test subcommands, mirrored
// on the teacher's miniooni.Options.
type options struct {
	Verbose      bool
	ReportDir    string
	InputFile    string
	NetTimeout   float64
	Socks5Proxy  string
	Nameserver   string
	NoTLSVerify  bool
	CABundle     string
	ASNDBPath    string
	CountryDBPath string
	CollectorURL string
	NoCollector  bool
}

func main() {
	var opts options
	rootCmd := &cobra.Command{
		Use:   "mk",
		Short: "mk runs network measurement tests",
	}
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "increase log verbosity")
	flags.StringVar(&opts.ReportDir, "report-dir", "", "directory to write report files into")
	flags.StringVarP(&opts.InputFile, "input-file", "f", "", "path to a file with one input per line")
	flags.Float64Var(&opts.NetTimeout, "timeout", 10, "network timeout in seconds")
	flags.StringVar(&opts.Socks5Proxy, "socks5", "", "SOCKS5 proxy to dial through, as host:port")
	flags.StringVar(&opts.Nameserver, "nameserver", "", "DNS nameserver to use instead of the system resolver, as host:port")
	flags.BoolVar(&opts.NoTLSVerify, "no-tls-verify", false, "disable TLS certificate verification")
	flags.StringVar(&opts.CABundle, "ca-bundle", "", "path to a PEM CA bundle for TLS verification")
	flags.StringVar(&opts.ASNDBPath, "asn-db", "", "path to a MaxMind ASN database")
	flags.StringVar(&opts.CountryDBPath, "country-db", "", "path to a MaxMind country database")
	flags.StringVar(&opts.CollectorURL, "collector", "", "OONI collector base URL")
	flags.BoolVar(&opts.NoCollector, "no-collector", false, "do not submit reports to the collector")

	for _, name := range registry.Names() {
		rootCmd.AddCommand(buildTestCommand(name, &opts))
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildTestCommand(name string, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Runs the %s test", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(name, opts)
		},
	}
}

func runTest(name string, opts *options) error {
	logger := newLogger(opts.Verbose)
	r := reactor.New()
	go r.Run()
	defer r.Stop()

	backend := buildResolver(opts, r, logger)
	cfg := &connect.Config{
		Reactor:      r,
		Resolver:     backend,
		Logger:       logger,
		DialTimeout:  time.Duration(opts.NetTimeout * float64(time.Second)),
		Socks5Proxy:  opts.Socks5Proxy,
		CABundlePath: opts.CABundle,
		NoTLSVerify:  opts.NoTLSVerify,
	}

	shared := &registry.Shared{Reactor: r, Resolver: backend, Logger: logger, Config: cfg, ASNDBPath: opts.ASNDBPath}
	ctor, ok := registry.ByName[name]
	if !ok {
		return fmt.Errorf("unknown test %q", name)
	}
	test := ctor(shared)

	settings := model.Settings{
		"net/timeout": fmt.Sprintf("%f", opts.NetTimeout),
		"report_dir":  opts.ReportDir,
	}
	if opts.InputFile != "" {
		settings["input_filepath"] = opts.InputFile
	}
	if opts.Nameserver != "" {
		settings["dns/nameserver"] = opts.Nameserver
	}
	if opts.ASNDBPath != "" {
		settings["geoip_asn_path"] = opts.ASNDBPath
	}
	if opts.CountryDBPath != "" {
		settings["geoip_country_path"] = opts.CountryDBPath
	}

	runner := &measurement.Runner{Reactor: r, Logger: logger, Settings: settings}
	if !opts.NoCollector {
		runner.Collector = collector.NewClient(opts.CollectorURL, logger)
	}

	runner.Begin()
	if err := runner.OpenReport(test.Name()); err != nil {
		return err
	}
	if err := runner.Iterate(test, func(entry *measurement.Entry) {
		logger.Infof("measurement complete for input %q", entry.Input)
	}); err != nil {
		return err
	}
	return runner.End()
}

func buildResolver(opts *options, r *reactor.Reactor, logger model.Logger) resolver.Backend {
	if opts.Nameserver != "" {
		settings := model.Settings{"dns/nameserver": opts.Nameserver}
		return resolver.NewUDP(settings, logger)
	}
	return resolver.NewSystem(r)
}

func newLogger(verbose bool) model.Logger {
	logger := &log.Logger{Level: log.InfoLevel, Handler: mkcli.Default}
	if verbose {
		logger.Level = log.DebugLevel
	}
	log.Log = logger
	return logger
}
