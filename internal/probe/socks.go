package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/net/proxy"
)

type dialContextFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// socksDialer returns a dialer routed through the SOCKS5 proxy at addr.
func socksDialer(addr string) (dialContextFunc, error) {
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy %s: %w", addr, err)
	}

	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}, nil
}

// newHTTPClient builds the client shared by the HTTP probes. A nil dial
// uses the default transport dialer.
func newHTTPClient(dial dialContextFunc) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if dial != nil {
		transport.DialContext = dial
		transport.Proxy = nil
	}
	return &http.Client{Transport: transport}
}
