// Package powerline resolves the local mains frequency (50 or 60 Hz) so the
// notch filter can default its centre frequency to the hum an MEA rig
// actually picks up. The lookup goes system timezone -> country -> grid
// frequency; every failure falls back to 50 Hz, the more common grid.
package powerline

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

const fallbackHz = 50.0

// Detect returns the local mains frequency in Hz.
func Detect() float64 {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return fallbackHz
	}
	return ForTimezone(timezone)
}

// ForTimezone returns the mains frequency for an IANA timezone name.
func ForTimezone(timezone string) float64 {
	// UTC/GMT and the Etc/ zones carry no country information.
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return fallbackHz
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return fallbackHz
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return fallbackHz
	}

	// Japan runs both grids (50 Hz east, 60 Hz west); the single Asia/Tokyo
	// zone cannot distinguish them, so take the Tokyo-side 50 Hz.
	if country == "Japan" {
		return fallbackHz
	}
	if hz60Countries[country] {
		return 60
	}
	return fallbackHz
}

// hz60Countries lists the countries on a 60 Hz grid; everywhere else is
// 50 Hz. Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// Americas
	"United States":       true,
	"Canada":              true,
	"Mexico":              true,
	"Belize":              true,
	"Costa Rica":          true,
	"El Salvador":         true,
	"Guatemala":           true,
	"Honduras":            true,
	"Nicaragua":           true,
	"Panama":              true,
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,
	"Brazil":              true, // mixed historically, 60 Hz predominant
	"Colombia":            true,
	"Ecuador":             true,
	"Guyana":              true,
	"Peru":                true,
	"Suriname":            true,
	"Venezuela":           true,

	// Asia
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
