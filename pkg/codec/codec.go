package codec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cuemby/hacluster/pkg/relation"
	"github.com/cuemby/hacluster/pkg/types"
)

// Encoding identifies which wire encoding a value was read from
type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingStructured
	EncodingLegacy
)

func (e Encoding) String() string {
	switch e {
	case EncodingStructured:
		return "structured"
	case EncodingLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// structuredPrefixes are tried in order before the bare legacy key
var structuredPrefixes = []string{"json_", "structured_"}

// Desired-state payload fields
const (
	FieldResources       = "resources"
	FieldResourceParams  = "resource_params"
	FieldGroups          = "groups"
	FieldMasterSlave     = "ms"
	FieldOrders          = "orders"
	FieldColocations     = "colocations"
	FieldClones          = "clones"
	FieldLocations       = "locations"
	FieldDeleteResources = "delete_resources"
	FieldInitServices    = "init_services"
)

// Remote peer payload keys
const (
	KeyRemoteHostname  = "remote-hostname"
	KeyStonithHostname = "stonith-hostname"
	KeyEnableResources = "enable-resources"
)

// Result is a decoded field tagged with the encoding it came from
type Result struct {
	Encoding Encoding
	Value    any
}

// Present reports whether the field was published at all
func (r Result) Present() bool {
	return r.Encoding != EncodingNone
}

// DecodeError is returned for a payload that is present but malformed
type DecodeError struct {
	Field    string
	Encoding Encoding
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s payload %q: %v", e.Encoding, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode reads one field, preferring the structured encoding. A field absent
// in both encodings yields EncodingNone and no error.
func Decode(get relation.Getter, field string) (Result, error) {
	for _, prefix := range structuredPrefixes {
		raw, ok := get(prefix + field)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return Result{}, &DecodeError{Field: prefix + field, Encoding: EncodingStructured, Err: err}
		}
		return Result{Encoding: EncodingStructured, Value: v}, nil
	}

	raw, ok := get(field)
	if !ok || strings.TrimSpace(raw) == "" || raw == "None" {
		return Result{}, nil
	}
	v, err := ParseLiteral(raw)
	if err != nil {
		return Result{}, &DecodeError{Field: field, Encoding: EncodingLegacy, Err: err}
	}
	return Result{Encoding: EncodingLegacy, Value: v}, nil
}

// DecodeMap reads a name -> string mapping. Absence yields an empty map.
func DecodeMap(get relation.Getter, field string) (map[string]string, error) {
	res, err := Decode(get, field)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	switch v := res.Value.(type) {
	case nil:
	case map[string]any:
		for k, val := range v {
			out[k] = stringify(val)
		}
	default:
		return nil, &DecodeError{Field: field, Encoding: res.Encoding, Err: fmt.Errorf("expected a mapping, got %T", v)}
	}
	return out, nil
}

// DecodeList reads a list of names. A single string is a one-element list,
// a mapping contributes its keys in lexical order.
func DecodeList(get relation.Getter, field string) ([]string, error) {
	res, err := Decode(get, field)
	if err != nil {
		return nil, err
	}
	switch v := res.Value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringify(item))
		}
		return out, nil
	case map[string]any:
		out := make([]string, 0, len(v))
		for k := range v {
			out = append(out, k)
		}
		sort.Strings(out)
		return out, nil
	default:
		return nil, &DecodeError{Field: field, Encoding: res.Encoding, Err: fmt.Errorf("expected a list, got %T", v)}
	}
}

// DecodeDesiredState reads every desired-state field published by one unit
func DecodeDesiredState(get relation.Getter) (*types.DesiredState, error) {
	ds := types.NewDesiredState()

	maps := []struct {
		field string
		dst   *map[string]string
	}{
		{FieldResources, &ds.Resources},
		{FieldResourceParams, &ds.ResourceParams},
		{FieldGroups, &ds.Groups},
		{FieldMasterSlave, &ds.MasterSlave},
		{FieldOrders, &ds.Orders},
		{FieldColocations, &ds.Colocations},
		{FieldClones, &ds.Clones},
		{FieldLocations, &ds.Locations},
		{FieldInitServices, &ds.InitServices},
	}
	for _, m := range maps {
		v, err := DecodeMap(get, m.field)
		if err != nil {
			return nil, err
		}
		*m.dst = v
	}

	deletes, err := DecodeList(get, FieldDeleteResources)
	if err != nil {
		return nil, err
	}
	ds.DeleteResources = deletes
	return ds, nil
}

// DecodeRemotePeers reads what every pacemaker-remote unit advertised.
// Hostnames are published as JSON strings; a bare value is accepted as is.
func DecodeRemotePeers(rel relation.Relation) []types.RemotePeer {
	var peers []types.RemotePeer
	for _, unit := range rel.Units() {
		get := relation.UnitGetter(rel, unit)
		peers = append(peers, types.RemotePeer{
			Unit:            unit,
			RemoteHostname:  unquote(get, KeyRemoteHostname),
			StonithHostname: unquote(get, KeyStonithHostname),
			EnableResources: tristate(get, KeyEnableResources),
		})
	}
	return peers
}

func unquote(get relation.Getter, key string) string {
	raw, ok := get(key)
	if !ok {
		return ""
	}
	raw = strings.TrimSpace(raw)
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	if raw == "null" || raw == "None" {
		return ""
	}
	return raw
}

func tristate(get relation.Getter, key string) types.Tristate {
	raw := unquote(get, key)
	if raw == "" {
		return types.Unset
	}
	b, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return types.Unset
	}
	if b {
		return types.True
	}
	return types.False
}

// stringify renders a decoded scalar the way it would be passed to the
// cluster manager
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(t)
	}
}
