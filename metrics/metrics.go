package metrics

import (
	"bytes"
	"encoding/json"
	"net"
	"net/url"
	"time"
)

type URLInfo struct {
	RawURL string            `json:"raw_url"`
	Host   string            `json:"host"`
	Path   string            `json:"path"`
	Query  map[string]string `json:"query"`
}

// RenderInfo records the core calls made on behalf of one request.
type RenderInfo struct {
	Duration  time.Duration `json:"duration"`
	Layer     string        `json:"layer"`
	Index     string        `json:"index"`
	Threshold *float64      `json:"threshold,omitempty"`
}

type MetricsInfo struct {
	ReqTime     string        `json:"req_time"`
	ReqDuration time.Duration `json:"req_duration"`
	URL         URLInfo       `json:"url"`
	RemoteAddr  string        `json:"remote_addr"`
	RemoteHost  string        `json:"remote_host"`
	RemotePort  string        `json:"remote_port"`
	HTTPStatus  int           `json:"http_status"`
	Render      *RenderInfo   `json:"render"`
}

// MetricsCollector accumulates one request's record and emits it via
// the configured logger when the handler finishes.
type MetricsCollector struct {
	Info   *MetricsInfo
	logger Logger
}

func NewMetricsCollector(logger Logger) *MetricsCollector {
	return &MetricsCollector{
		Info: &MetricsInfo{
			Render: &RenderInfo{},
		},
		logger: logger,
	}
}

func (m *MetricsCollector) Log() {
	if m.logger != nil {
		m.logger.Log(m.Info)
	}
}

func (i *MetricsInfo) ToJSON() (string, error) {
	i.normaliseNetworkAddr(i.RemoteAddr)
	i.normaliseURL()

	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(i)
	if err == nil {
		return buf.String(), nil
	}
	return "", err
}

func (i *MetricsInfo) normaliseNetworkAddr(addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		i.RemoteHost = host
		i.RemotePort = port
	} else {
		i.RemoteHost = addr
	}
}

func (i *MetricsInfo) normaliseURL() {
	parsed, err := url.Parse(i.URL.RawURL)
	if err != nil {
		return
	}
	i.URL.Host = parsed.Host
	i.URL.Path = parsed.Path

	query := make(map[string]string)
	for key, values := range parsed.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	i.URL.Query = query
}
