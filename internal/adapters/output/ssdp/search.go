package ssdp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

const (
	multicastAddr = "239.255.255.250:1900"
	searchTarget  = "urn:schemas-upnp-org:device:basic:1"
	defaultWait   = 3 * time.Second
)

var ErrNotFound = errors.New("ssdp: no hue bridge answered")

// Searcher sends an M-SEARCH and returns the first Hue bridge that answers.
type Searcher struct {
	wait time.Duration
}

func NewSearcher(wait time.Duration) *Searcher {
	if wait <= 0 {
		wait = defaultWait
	}
	return &Searcher{wait: wait}
}

func (s *Searcher) Search(ctx context.Context) (string, error) {
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return "", err
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	deadline := time.Now().Add(s.wait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", err
	}

	if _, err := conn.WriteToUDP([]byte(searchRequest(s.wait)), addr); err != nil {
		return "", fmt.Errorf("ssdp: send search: %w", err)
	}

	buf := make([]byte, 2048)
	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return "", ErrNotFound
			}
			return "", err
		}
		if host, ok := ParseResponse(string(buf[:n])); ok {
			return host, nil
		}
	}
}

func searchRequest(wait time.Duration) string {
	mx := int(wait / time.Second)
	if mx < 1 {
		mx = 1
	}
	return fmt.Sprintf("M-SEARCH * HTTP/1.1\r\n"+
		"HOST: %s\r\n"+
		"MAN: \"ssdp:discover\"\r\n"+
		"MX: %d\r\n"+
		"ST: %s\r\n\r\n", multicastAddr, mx, searchTarget)
}

// ParseResponse extracts the bridge host from an SSDP answer. Only answers
// from Hue bridges (IpBridge server or hue-bridgeid header) are accepted.
func ParseResponse(msg string) (string, bool) {
	var location string
	isBridge := false
	for _, line := range strings.Split(msg, "\r\n") {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "LOCATION":
			location = value
		case "SERVER":
			if strings.Contains(value, "IpBridge") {
				isBridge = true
			}
		case "HUE-BRIDGEID":
			isBridge = true
		}
	}
	if !isBridge || location == "" {
		return "", false
	}
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return "", false
	}
	return u.Host, true
}
