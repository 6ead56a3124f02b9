package mqtt

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	segmentStat    = "stat"
	segmentCommand = "cmnd"
	segmentStatus  = "status"
)

// Topics builds the bridge topic hierarchy below a configurable prefix:
//
//	{prefix}/stat/{kind}/{routingKey}   outbound change events
//	{prefix}/cmnd/{bodyName}            inbound commands
//	{prefix}/status/{source}            retained online/offline status
type Topics struct {
	Prefix string
}

func (t Topics) Stat(kind, routingKey string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Prefix, segmentStat, kind, EncodeSegment(routingKey))
}

// Commands is the subscription filter for every command body.
func (t Topics) Commands() string {
	return fmt.Sprintf("%s/%s/+", t.Prefix, segmentCommand)
}

func (t Topics) Command(bodyName string) string {
	return fmt.Sprintf("%s/%s/%s", t.Prefix, segmentCommand, EncodeSegment(bodyName))
}

func (t Topics) Status(source string) string {
	return fmt.Sprintf("%s/%s/%s", t.Prefix, segmentStatus, EncodeSegment(source))
}

// ParseCommand returns the body name of a command topic.
func (t Topics) ParseCommand(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/"+segmentCommand+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	name, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return name, true
}

// EncodeSegment escapes characters that would break a topic level.
func EncodeSegment(s string) string {
	if !strings.ContainsAny(s, "/+#%") {
		return s
	}
	r := strings.NewReplacer("%", "%25", "/", "%2F", "+", "%2B", "#", "%23")
	return r.Replace(s)
}
