package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const imgUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120 Safari/537.36"

var errRedirectNotAllowed = errors.New("redirect to host not allowed")

// ImageProxy relays cover and thumbnail images from an allowlist of CDN hosts.
// Bilibili's CDN refuses hotlinked requests without a live.bilibili.com Referer.
type ImageProxy struct {
	allowed map[string]struct{}
	client  *http.Client
	log     *zap.Logger
}

func NewImageProxy(hosts []string, timeout time.Duration, log *zap.Logger) *ImageProxy {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		allowed[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	p := &ImageProxy{allowed: allowed, log: log}
	p.client = &http.Client{
		Timeout: timeout,
		// Every hop must stay on the allowlist.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			if !p.hostAllowed(req.URL) {
				return errRedirectNotAllowed
			}
			return nil
		},
	}
	return p
}

func (p *ImageProxy) hostAllowed(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	_, ok := p.allowed[strings.ToLower(u.Hostname())]
	return ok
}

func (p *ImageProxy) Serve(c *gin.Context) {
	raw := c.Query("u")
	if raw == "" {
		c.String(http.StatusBadRequest, "Missing u")
		return
	}
	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Hostname() == "" {
		c.String(http.StatusBadRequest, "Bad u")
		return
	}
	if !p.hostAllowed(target) {
		c.String(http.StatusForbidden, "Host not allowed")
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		c.String(http.StatusBadRequest, "Bad u")
		return
	}
	req.Header.Set("User-Agent", imgUserAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Referer", "https://live.bilibili.com/")

	resp, err := p.client.Do(req)
	if errors.Is(err, errRedirectNotAllowed) {
		p.log.Warn("img: redirect left allowlist", zap.String("host", target.Hostname()), zap.Error(err))
		c.String(http.StatusForbidden, "Host not allowed")
		return
	}
	if err != nil {
		p.log.Warn("img: upstream request failed", zap.String("host", target.Hostname()), zap.Error(err))
		c.String(http.StatusBadGateway, "Upstream error: unreachable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.String(http.StatusBadGateway, fmt.Sprintf("Upstream error: %d", resp.StatusCode))
		return
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	c.DataFromReader(http.StatusOK, resp.ContentLength, ct, resp.Body, map[string]string{
		"Cache-Control": "public, max-age=3600",
	})
}
