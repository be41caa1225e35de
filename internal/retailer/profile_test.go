package retailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		want     string
		device   DeviceClass
	}{
		{"ikea germany", "www.ikea.com", "IKEA", DeviceMobile},
		{"amazon de", "www.amazon.de", "Amazon", DeviceMobile},
		{"amazon com", "smile.amazon.com", "Amazon", DeviceMobile},
		{"otto", "www.otto.de", "Otto", DeviceDesktop},
		{"home24", "www.home24.de", "Home24", DeviceDesktop},
		{"unknown host", "www.example.com", "Unknown Retailer", DeviceDesktop},
		{"empty host", "", "Unknown Retailer", DeviceDesktop},
		{"case insensitive", "WWW.IKEA.COM", "IKEA", DeviceMobile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.hostname)
			assert.Equal(t, tt.want, got.DisplayName)
			assert.Equal(t, tt.device, got.Device)
			assert.NotEmpty(t, got.DisplayName)
		})
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	// "otto.amazon.de" contains both patterns; amazon precedes otto in the
	// ordered table, so the tie-break must be deterministic.
	got := Resolve("otto.amazon.de")
	assert.Equal(t, "Amazon", got.DisplayName)
}

func TestDomainFor(t *testing.T) {
	domain, ok := DomainFor("IKEA")
	assert.True(t, ok)
	assert.Equal(t, "ikea.com", domain)

	domain, ok = DomainFor("ikea")
	assert.True(t, ok)
	assert.Equal(t, "ikea.com", domain)

	_, ok = DomainFor("Unknown Retailer")
	assert.False(t, ok)

	_, ok = DomainFor("")
	assert.False(t, ok)
}
