package state

import (
	"sort"
	"strings"

	"hue-bus-bridge/internal/domain/alias"
	"hue-bus-bridge/internal/domain/model"
)

const (
	configPrefix   = "config."
	keyLastUpdated = "lastupdated"
)

// converter turns a raw value into its emitted form. ok=false drops the value.
type converter func(raw model.Scalar) (value model.Scalar, unit string, ok bool)

type lightAttribute struct {
	raw     string
	emitted string
	convert converter
}

// lightAttributes is the fixed emission order for lights.
var lightAttributes = []lightAttribute{
	{"on", "status", passthrough},
	{"reachable", "reachable", passthrough},
	{"bri", "brightness", numeric(Percent254, UnitPercent)},
	{"hue", "hue", numeric(HueDegrees, UnitDegrees)},
	{"sat", "saturation", numeric(Percent254, UnitPercent)},
	{"ct", "colorTemperature", kelvin},
	{"xy", "xy", passthrough},
	{"alert", "alert", passthrough},
	{"effect", "effect", passthrough},
	{"colormode", "colorMode", passthrough},
}

var sensorConverters = map[string]converter{
	"temperature": numeric(Celsius, UnitCelsius),
	"battery":     numeric(func(v float64) float64 { return v }, UnitPercent),
}

func passthrough(raw model.Scalar) (model.Scalar, string, bool) {
	return raw, "", true
}

func numeric(fn func(float64) float64, unit string) converter {
	return func(raw model.Scalar) (model.Scalar, string, bool) {
		v, ok := raw.(float64)
		if !ok {
			return raw, "", true
		}
		return fn(v), unit, true
	}
}

func kelvin(raw model.Scalar) (model.Scalar, string, bool) {
	v, ok := raw.(float64)
	if !ok || v <= 0 {
		return nil, "", false
	}
	return MiredToKelvin(v), UnitKelvin, true
}

// Differ compares fresh snapshots against the Cache and returns the deltas.
// Accepted values are written back to the cache, so a second diff of the
// same snapshot yields nothing.
type Differ struct {
	cache   *Cache
	aliases *alias.Resolver
}

func NewDiffer(cache *Cache, aliases *alias.Resolver) *Differ {
	if aliases == nil {
		aliases = alias.NewResolver(nil)
	}
	return &Differ{cache: cache, aliases: aliases}
}

func (d *Differ) Cache() *Cache {
	return d.cache
}

func (d *Differ) DiffLight(snap model.DeviceSnapshot) []model.ChangeRecord {
	key, ok := d.aliases.Key(snap.ExternalKey())
	if !ok {
		return nil
	}

	var changes []model.ChangeRecord
	d.cache.update(key, model.DeviceKindLight, snap.ID, func(e *model.CacheEntry) {
		for _, a := range lightAttributes {
			raw, present := snap.Attributes[a.raw]
			if !present || !model.IsScalar(raw) {
				continue
			}
			if rec, changed := accept(e, key, a.emitted, raw, a.convert, ""); changed {
				changes = append(changes, rec)
			}
		}
	})
	return changes
}

// DiffSensor compares every scalar state and config attribute. When the
// sensor reports an unchanged lastupdated stamp the whole sensor is skipped.
func (d *Differ) DiffSensor(snap model.DeviceSnapshot) []model.ChangeRecord {
	key, ok := d.aliases.Key(snap.ExternalKey())
	if !ok {
		return nil
	}
	stamp, hasStamp := snap.Attributes[keyLastUpdated].(string)

	var changes []model.ChangeRecord
	d.cache.update(key, model.DeviceKindSensor, snap.ID, func(e *model.CacheEntry) {
		if hasStamp && e.LastUpdated == stamp && len(e.LastAttributes) > 0 {
			return
		}
		if hasStamp {
			e.LastUpdated = stamp
		}
		for _, name := range sensorAttributeNames(snap.Attributes) {
			raw := snap.Attributes[name]
			emitted := sensorEmittedName(name, snap.Attributes)
			conv, ok := sensorConverters[emitted]
			if !ok {
				conv = passthrough
			}
			if rec, changed := accept(e, key, emitted, raw, conv, stamp); changed {
				changes = append(changes, rec)
			}
		}
	})
	return changes
}

// DiffGroup derives the group on-status from the freshest light snapshots:
// a group is on when any member is both on and reachable.
func (d *Differ) DiffGroup(group model.GroupSnapshot, lightsByID map[string]model.DeviceSnapshot) []model.ChangeRecord {
	key, ok := d.aliases.Key(group.ExternalKey())
	if !ok {
		return nil
	}
	status := GroupStatus(group, lightsByID)

	var changes []model.ChangeRecord
	d.cache.update(key, model.DeviceKindGroup, group.ID, func(e *model.CacheEntry) {
		if rec, changed := accept(e, key, "status", status, passthrough, ""); changed {
			changes = append(changes, rec)
		}
	})
	return changes
}

func GroupStatus(group model.GroupSnapshot, lightsByID map[string]model.DeviceSnapshot) bool {
	for _, id := range group.MemberDeviceIDs {
		l, ok := lightsByID[id]
		if !ok {
			continue
		}
		on, _ := l.Attributes["on"].(bool)
		reachable, _ := l.Attributes["reachable"].(bool)
		if on && reachable {
			return true
		}
	}
	return false
}

// accept compares raw against the cached raw value and stores it when it differs.
func accept(e *model.CacheEntry, key, attr string, raw model.Scalar, conv converter, stamp string) (model.ChangeRecord, bool) {
	if prev, seen := e.LastAttributes[attr]; seen && prev == raw {
		return model.ChangeRecord{}, false
	}
	value, unit, ok := conv(raw)
	if !ok {
		return model.ChangeRecord{}, false
	}
	e.LastAttributes[attr] = raw
	return model.ChangeRecord{
		RoutingKey: key,
		Attribute:  attr,
		Value:      value,
		Unit:       unit,
		Timestamp:  stamp,
	}, true
}

func sensorAttributeNames(attrs map[string]model.Scalar) []string {
	names := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if k == keyLastUpdated || !model.IsScalar(v) {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// sensorEmittedName strips the config prefix unless a state attribute of the
// same name exists.
func sensorEmittedName(name string, attrs map[string]model.Scalar) string {
	bare, isConfig := strings.CutPrefix(name, configPrefix)
	if !isConfig {
		return name
	}
	if _, clash := attrs[bare]; clash {
		return name
	}
	return bare
}
