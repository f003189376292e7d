package portscan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"
)

// ProxyErrorMarker Squid 等代理在上游不可达时返回的错误页特征
const ProxyErrorMarker = "The requested URL could not be retrieved"

var proxyErrorMarker = []byte(ProxyErrorMarker)

// openStatus 视为端口开放的 HTTP 状态码
var openStatus = map[int]bool{
	http.StatusOK:               true,
	http.StatusMovedPermanently: true,
	http.StatusFound:            true,
	http.StatusUnauthorized:     true,
	http.StatusNotFound:         true,
}

// Prober 对单个端口执行一次探测
type Prober interface {
	Probe(ctx context.Context, port int) Verdict
}

// ProbeClient 通过代理对目标发起 HTTP 探测
type ProbeClient struct {
	Target  string
	Timeout time.Duration
	client  *http.Client
}

// NewProbeClient 创建经由 proxyAddr 转发的探测客户端, maxConns 为连接池上限
func NewProbeClient(target, proxyAddr string, timeout time.Duration, maxConns int) (*ProbeClient, error) {
	transport, err := NewProxyTransport(proxyAddr, timeout, maxConns)
	if err != nil {
		return nil, err
	}
	return NewProbeClientWithTransport(target, timeout, transport), nil
}

// NewProbeClientWithTransport 使用自定义 RoundTripper 创建探测客户端
func NewProbeClientWithTransport(target string, timeout time.Duration, rt http.RoundTripper) *ProbeClient {
	return &ProbeClient{
		Target:  target,
		Timeout: timeout,
		client: &http.Client{
			Transport: rt,
			// 重定向本身即说明端口开放, 不跟随
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// URL 返回端口对应的探测地址
func (c *ProbeClient) URL(port int) string {
	return "http://" + net.JoinHostPort(c.Target, strconv.Itoa(port)) + "/"
}

// Probe 单个端口探测逻辑.
// 已发出的请求不随 ctx 取消而中断, 只受 Timeout 约束.
func (c *ProbeClient) Probe(ctx context.Context, port int) Verdict {
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.URL(port), nil)
	if err != nil {
		return Failed(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// 连接失败、超时、代理不可达一律视为关闭
		return Verdict{Kind: VerdictClosed, Err: err}
	}
	defer resp.Body.Close()

	marked, err := scanBody(resp)
	if err != nil {
		return Failed(fmt.Errorf("read body of port %d: %w", port, err))
	}
	return classifyMarked(resp.StatusCode, marked)
}

// Classify 根据状态码和响应体判定端口状态.
// 错误页特征优先于状态码, 代理可能以 200 返回自己的错误页.
func Classify(status int, body []byte) Verdict {
	return classifyMarked(status, bytes.Contains(body, proxyErrorMarker))
}

func classifyMarked(status int, marked bool) Verdict {
	if marked {
		return Closed()
	}
	if openStatus[status] {
		return Open(status)
	}
	return Closed()
}

// errMarkerFound 找到特征后提前结束读取
var errMarkerFound = errors.New("proxy error marker found")

// markerScanner 流式查找错误页特征, 在块之间保留 len(marker)-1 字节的尾部
type markerScanner struct {
	tail  []byte
	found bool
}

func (m *markerScanner) Write(p []byte) (int, error) {
	if m.found {
		return 0, errMarkerFound
	}
	buf := make([]byte, 0, len(m.tail)+len(p))
	buf = append(append(buf, m.tail...), p...)
	if bytes.Contains(buf, proxyErrorMarker) {
		m.found = true
		m.tail = nil
		return len(p), errMarkerFound
	}
	if keep := len(proxyErrorMarker) - 1; len(buf) > keep {
		buf = buf[len(buf)-keep:]
	}
	m.tail = buf
	return len(p), nil
}

// scanBody 读完响应体, 同时在原始字节和按 Content-Type 字符集解码后的文本中查找特征.
// 任一处命中即返回 true 并停止读取.
func scanBody(resp *http.Response) (bool, error) {
	raw := &markerScanner{}
	decoded := &markerScanner{}
	src := io.TeeReader(resp.Body, raw)

	var r io.Reader = src
	if cr, err := charset.NewReader(src, resp.Header.Get("Content-Type")); err == nil {
		r = cr
	}
	_, err := io.Copy(decoded, r)
	if raw.found || decoded.found {
		return true, nil
	}
	return false, err
}
