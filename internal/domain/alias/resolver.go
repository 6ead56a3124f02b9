package alias

import (
	"fmt"
	"strings"
)

// IgnoreValue marks an external key whose events and commands are suppressed.
const IgnoreValue = "ignore"

type Outcome int

const (
	Unmapped Outcome = iota
	Mapped
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Mapped:
		return "mapped"
	case Ignored:
		return "ignored"
	}
	return "unmapped"
}

type Result struct {
	Outcome Outcome
	Key     string
}

// Resolver maps external device and group identifiers to routing keys.
// The table is read-only after construction.
type Resolver struct {
	table map[string]string
}

func NewResolver(aliases map[string]string) *Resolver {
	table := make(map[string]string, len(aliases))
	for k, v := range aliases {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		table[k] = strings.TrimSpace(v)
	}
	return &Resolver{table: table}
}

func (r *Resolver) Resolve(externalKey string) Result {
	v, ok := r.table[externalKey]
	if !ok || v == "" {
		return Result{Outcome: Unmapped, Key: externalKey}
	}
	if strings.EqualFold(v, IgnoreValue) {
		return Result{Outcome: Ignored}
	}
	return Result{Outcome: Mapped, Key: v}
}

// Key returns the routing key for externalKey, or false when it is ignored.
func (r *Resolver) Key(externalKey string) (string, bool) {
	res := r.Resolve(externalKey)
	if res.Outcome == Ignored {
		return "", false
	}
	return res.Key, true
}

func (r *Resolver) Len() int {
	return len(r.table)
}

// ParseList reads the legacy "ext=key,ext2=ignore" alias form.
func ParseList(list string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		k, v, ok := strings.Cut(item, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("alias: malformed entry %q", item)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
