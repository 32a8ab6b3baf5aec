package services

import (
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"cdn-metrics-dashboard/system"
)

// GeoResolver maps IP addresses to ISO country codes using a local
// MaxMind database. It is optional: without a database every lookup
// returns "" and the rankings are served unannotated.
type GeoResolver struct {
	mu sync.Mutex
	db *geoip2.Reader
}

func NewGeoResolver(dbPath string) *GeoResolver {
	g := &GeoResolver{}
	if dbPath == "" {
		system.Info("GeoIP database not configured, IP annotation disabled")
		return g
	}

	db, err := geoip2.Open(dbPath)
	if err != nil {
		system.Warn("Failed to open GeoIP database %s: %v", dbPath, err)
		return g
	}
	g.db = db
	system.Info("GeoIP database loaded from %s", dbPath)
	return g
}

// CountryFor returns the ISO country code for an IP, or "" when the IP
// is unparseable, unknown, or no database is loaded.
func (g *GeoResolver) CountryFor(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return ""
	}

	country, err := g.db.Country(ip)
	if err != nil {
		return ""
	}
	return country.Country.IsoCode
}

func (g *GeoResolver) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db != nil {
		g.db.Close()
		g.db = nil
	}
}
