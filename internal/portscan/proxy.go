package portscan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// ErrProxyScheme 代理地址的协议不受支持
var ErrProxyScheme = errors.New("unsupported proxy scheme")

// ParseProxyURL 解析并校验代理地址, 支持 http/https/socks5/socks5h
func ParseProxyURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w: %q", ErrProxyScheme, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy url %q has no host", raw)
	}
	return u, nil
}

// NewProxyTransport 构建所有请求都经由代理转发的 Transport.
// HTTP 代理由 Transport.Proxy 转发, SOCKS 代理在拨号层完成.
func NewProxyTransport(proxyAddr string, timeout time.Duration, maxConns int) (*http.Transport, error) {
	u, err := ParseProxyURL(proxyAddr)
	if err != nil {
		return nil, err
	}

	d := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: -1,
	}
	t := &http.Transport{
		DialContext:           d.DialContext,
		MaxIdleConns:          maxConns,
		MaxIdleConnsPerHost:   maxConns,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	switch u.Scheme {
	case "http", "https":
		t.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		pd, err := proxy.FromURL(u, d)
		if err != nil {
			return nil, fmt.Errorf("socks proxy %s: %w", u.Redacted(), err)
		}
		if cd, ok := pd.(proxy.ContextDialer); ok {
			t.DialContext = cd.DialContext
		} else {
			t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return pd.Dial(network, addr)
			}
		}
	}
	return t, nil
}
