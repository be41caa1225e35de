package retailer

import "strings"

// DeviceClass selects which user-agent pool a retailer should be fetched with.
// Mobile profiles are empirically less likely to be served a bot wall.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceDesktop DeviceClass = "desktop"
)

// Profile carries the static per-retailer fetch metadata.
type Profile struct {
	// Patterns are hostname substrings matched case-insensitively.
	Patterns    []string
	DisplayName string
	Device      DeviceClass
	// Domain is the canonical shop domain used for search site: filters.
	Domain string
	// Headers are retailer-specific extras merged into every request.
	Headers map[string]string
}

// Matching is ordered: the first profile whose pattern is contained in the
// hostname wins, so more specific entries must precede generic ones.
var profiles = []Profile{
	{
		Patterns:    []string{"amazon."},
		DisplayName: "Amazon",
		Device:      DeviceMobile,
		Domain:      "amazon.de",
		Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9,en;q=0.7"},
	},
	{
		Patterns:    []string{"ikea."},
		DisplayName: "IKEA",
		Device:      DeviceMobile,
		Domain:      "ikea.com",
		Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9"},
	},
	{
		Patterns:    []string{"otto.de", "otto."},
		DisplayName: "Otto",
		Device:      DeviceDesktop,
		Domain:      "otto.de",
		Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9"},
	},
	{
		Patterns:    []string{"wayfair."},
		DisplayName: "Wayfair",
		Device:      DeviceDesktop,
		Domain:      "wayfair.de",
		Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9"},
	},
	{
		Patterns:    []string{"home24."},
		DisplayName: "Home24",
		Device:      DeviceDesktop,
		Domain:      "home24.de",
		Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9"},
	},
	{
		Patterns:    []string{"xxxlutz."},
		DisplayName: "XXXLutz",
		Device:      DeviceDesktop,
		Domain:      "xxxlutz.de",
		Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9"},
	},
	{
		Patterns:    []string{"poco."},
		DisplayName: "Poco",
		Device:      DeviceDesktop,
		Domain:      "poco.de",
		Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9"},
	},
	{
		Patterns:    []string{"roller."},
		DisplayName: "Roller",
		Device:      DeviceDesktop,
		Domain:      "roller.de",
		Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9"},
	},
	{
		Patterns:    []string{"ebay."},
		DisplayName: "eBay",
		Device:      DeviceMobile,
		Domain:      "ebay.de",
		Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9"},
	},
}

// Default is returned when no known retailer matches a hostname.
var Default = Profile{
	DisplayName: "Unknown Retailer",
	Device:      DeviceDesktop,
	Headers:     map[string]string{"Accept-Language": "de-DE,de;q=0.9,en;q=0.6"},
}

// Resolve maps a hostname to its retailer profile. Lookup is pure: unknown
// hostnames yield the default profile, never an error.
func Resolve(hostname string) Profile {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if host == "" {
		return Default
	}
	for _, p := range profiles {
		for _, pattern := range p.Patterns {
			if strings.Contains(host, pattern) {
				return p
			}
		}
	}
	return Default
}

// DomainFor looks up the canonical shop domain for a retailer display name,
// used to build search site: filters. Reports false when the retailer is
// not in the table.
func DomainFor(displayName string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(displayName))
	if name == "" {
		return "", false
	}
	for _, p := range profiles {
		if strings.ToLower(p.DisplayName) == name {
			return p.Domain, true
		}
	}
	return "", false
}
