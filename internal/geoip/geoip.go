// Package geoip wraps github.com/oschwald/maxminddb-golang to look up
// a probe's ASN and country code, per SPEC_FULL.md §6.7 (spec.md §4.7
// step 1).
//
// Grounded on the teacher's internal/geoipx.LookupASN/LookupCC, but
// reading the MaxMind-format databases from Settings-specified file
// paths rather than the teacher's embedded github.com/ooni/probe-assets
// bytes — this design has no build-time asset pipeline, so the two
// database paths are ordinary Settings keys (spec.md §4.7 point 1).
package geoip

import (
	"net"
	"strconv"

	"github.com/oschwald/maxminddb-golang"
)

// DefaultProbeIP, DefaultProbeASN, DefaultProbeCC are the fallback
// values used when GeoIP lookup fails, per spec.md §4.7 point 1.
const (
	DefaultProbeIP = "127.0.0.1"
	DefaultProbeASN = "AS0"
	DefaultProbeCC  = "ZZ"
)

type asnRecord struct {
	AutonomousSystemNumber       uint   `maxminddb:"autonomous_system_number"`
	AutonomousSystemOrganization string `maxminddb:"autonomous_system_organization"`
}

type countryRecord struct {
	Country struct {
		IsoCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// LookupASN maps ip to an AS number string ("AS<n>") using the
// database at asnPath. Returns DefaultProbeASN on any failure.
func LookupASN(asnPath, ip string) string {
	db, err := maxminddb.Open(asnPath)
	if err != nil {
		return DefaultProbeASN
	}
	defer db.Close()
	var rec asnRecord
	if err := db.Lookup(net.ParseIP(ip), &rec); err != nil || rec.AutonomousSystemNumber == 0 {
		return DefaultProbeASN
	}
	return "AS" + strconv.FormatUint(uint64(rec.AutonomousSystemNumber), 10)
}

// LookupCC maps ip to a two-letter country code using the database at
// countryPath. Returns DefaultProbeCC on any failure.
func LookupCC(countryPath, ip string) string {
	db, err := maxminddb.Open(countryPath)
	if err != nil {
		return DefaultProbeCC
	}
	defer db.Close()
	var rec countryRecord
	if err := db.Lookup(net.ParseIP(ip), &rec); err != nil || rec.Country.IsoCode == "" {
		return DefaultProbeCC
	}
	return rec.Country.IsoCode
}
