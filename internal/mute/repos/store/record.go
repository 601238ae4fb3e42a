package store

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/haukened/rr-mute/internal/mute/domain"
)

// encMode is the CBOR encoder configured with Core Deterministic Encoding
// (RFC 8949 §4.2): the same record value always produces identical bytes,
// so unchanged saves leave unchanged storage.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}
}

// EncodeRecord flattens a record into the per-key CBOR values of the
// persisted storage contract. Every current key is written, including empty
// lists and false booleans; legacy keys are never written.
func EncodeRecord(rec domain.Record) (map[string][]byte, error) {
	values := map[string]any{
		domain.KeyHiddenUsers:      emptyNotNil(rec.Users),
		domain.KeyHiddenKeywords:   emptyNotNil(rec.Keywords),
		domain.KeyHiddenSubreddits: emptyNotNil(rec.Subreddits),
		domain.KeyHiddenDomains:    emptyNotNil(rec.Domains),
		domain.KeyLoggingEnabled:   rec.Prefs.LoggingEnabled,
		domain.KeyFilterUsers:      rec.Prefs.FilterUsers,
		domain.KeyFilterKeywords:   rec.Prefs.FilterKeywords,
		domain.KeyFilterSubreddits: rec.Prefs.FilterSubreddits,
		domain.KeyFilterDomains:    rec.Prefs.FilterDomains,
		domain.KeyEnableSync:       rec.Prefs.EnableSync,
	}

	out := make(map[string][]byte, len(values))
	for key, val := range values {
		data, err := encMode.Marshal(val)
		if err != nil {
			return nil, err
		}
		out[key] = data
	}
	return out, nil
}

// DecodeRecord assembles a record from raw per-key values. Absent or
// undecodable values resolve to their documented defaults; the filter
// preference keys fall back to their legacy names when the current key is
// missing.
func DecodeRecord(raw map[string][]byte) domain.Record {
	rec := domain.EmptyRecord()

	rec.Users = decodeList(raw, domain.KeyHiddenUsers)
	rec.Keywords = decodeList(raw, domain.KeyHiddenKeywords)
	rec.Subreddits = decodeList(raw, domain.KeyHiddenSubreddits)
	rec.Domains = decodeList(raw, domain.KeyHiddenDomains)

	if v, ok := decodeBool(raw, domain.KeyLoggingEnabled); ok {
		rec.Prefs.LoggingEnabled = v
	}
	for _, fb := range domain.PrefFallbacks() {
		v, ok := decodeBool(raw, fb.Key)
		if !ok {
			v, ok = decodeBool(raw, fb.Legacy)
		}
		if ok {
			setFilterPref(&rec.Prefs, fb.Key, v)
		}
	}
	if v, ok := decodeBool(raw, domain.KeyEnableSync); ok {
		rec.Prefs.EnableSync = v
	}

	return rec
}

// DecodeEnableSync resolves the enableSync preference from one raw stored
// value. Absent (nil) or undecodable values resolve to the default, true.
func DecodeEnableSync(data []byte) bool {
	if data == nil {
		return true
	}
	var v bool
	if err := cbor.Unmarshal(data, &v); err != nil {
		return true
	}
	return v
}

func decodeList(raw map[string][]byte, key string) []string {
	data, ok := raw[key]
	if !ok {
		return nil
	}
	var list []string
	if err := cbor.Unmarshal(data, &list); err != nil {
		return nil
	}
	return list
}

func decodeBool(raw map[string][]byte, key string) (bool, bool) {
	data, ok := raw[key]
	if !ok {
		return false, false
	}
	var v bool
	if err := cbor.Unmarshal(data, &v); err != nil {
		return false, false
	}
	return v, true
}

func setFilterPref(p *domain.Preferences, key string, v bool) {
	switch key {
	case domain.KeyFilterUsers:
		p.FilterUsers = v
	case domain.KeyFilterKeywords:
		p.FilterKeywords = v
	case domain.KeyFilterSubreddits:
		p.FilterSubreddits = v
	case domain.KeyFilterDomains:
		p.FilterDomains = v
	}
}

// emptyNotNil keeps encoded lists as CBOR arrays rather than null.
func emptyNotNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
