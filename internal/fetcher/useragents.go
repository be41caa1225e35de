package fetcher

import (
	"math/rand"

	"github.com/workwAIse/furniturematch-sub000/internal/retailer"
)

// Rand abstracts the randomness source used for user-agent selection so
// tests can supply a deterministic generator.
type Rand interface {
	Intn(n int) int
}

type systemRand struct{}

func (systemRand) Intn(n int) int { return rand.Intn(n) }

// Small pools per device class. Rotating among them across retry attempts
// changes the request fingerprint a blocked attempt presented.
var desktopAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
}

var mobileAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 13; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Mobile Safari/537.36",
}

func agentPool(device retailer.DeviceClass) []string {
	if device == retailer.DeviceMobile {
		return mobileAgents
	}
	return desktopAgents
}

// headersFor builds the header set for one attempt: retailer extras plus a
// user agent selected by pool index.
func headersFor(profile retailer.Profile, index int) map[string]string {
	pool := agentPool(profile.Device)
	headers := make(map[string]string, len(profile.Headers)+1)
	for k, v := range profile.Headers {
		headers[k] = v
	}
	headers["User-Agent"] = pool[index%len(pool)]
	return headers
}

// MobileUserAgent returns the lead mobile agent, used by the renderer to
// keep viewport and user agent consistent.
func MobileUserAgent() string {
	return mobileAgents[0]
}
