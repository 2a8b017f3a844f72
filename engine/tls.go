package engine

import (
	"context"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/proxy"
)

// chromeH1Spec builds a Chrome ClientHello with ALPN limited to http/1.1,
// since net/http cannot speak HTTP/2 over a utls connection. utls keeps
// handshake state in the extensions, so every connection needs its own.
func chromeH1Spec() (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil, err
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	return &spec, nil
}

// dialer opens TCP connections, through a SOCKS5 proxy when configured.
func dialer(proxyURL *url.URL) (proxy.ContextDialer, error) {
	direct := &net.Dialer{Timeout: 10 * time.Second}
	if proxyURL == nil || (proxyURL.Scheme != "socks5" && proxyURL.Scheme != "socks5h") {
		return direct, nil
	}
	d, err := proxy.FromURL(proxyURL, direct)
	if err != nil {
		return nil, fmt.Errorf("engine: socks5 proxy: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("engine: socks5 dialer does not support contexts")
	}
	return cd, nil
}

// dialTLSChrome returns a DialTLSContext func that performs the handshake
// with a Chrome fingerprint. A nil roots uses the system pool.
func dialTLSChrome(d proxy.ContextDialer, roots *x509.CertPool) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		host, _, _ := net.SplitHostPort(addr)

		var tlsConn *tls.UConn
		if spec, err := chromeH1Spec(); err == nil {
			tlsConn = tls.UClient(conn, &tls.Config{ServerName: host, RootCAs: roots}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("engine: apply tls spec: %w", err)
			}
		} else {
			tlsConn = tls.UClient(conn, &tls.Config{
				ServerName: host,
				RootCAs:    roots,
				NextProtos: []string{"http/1.1"},
			}, tls.HelloChrome_Auto)
		}
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return tlsConn, nil
	}
}
