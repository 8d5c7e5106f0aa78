// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the classified category of a relay event.
type Kind string

// Classified event kinds, in matching priority order.
const (
	KindLike    Kind = "like"
	KindShare   Kind = "share"
	KindGift    Kind = "gift"
	KindUnknown Kind = "unknown"
)

// Envelope is a raw relay event: the upstream event name plus its
// already-unwrapped payload object.
type Envelope struct {
	Type     string         // upstream event name, lowercased by the relay
	Payload  map[string]any // parsed JSON object, may be nil
	Received time.Time      // local receive time
}

// Classify matches the event name by substring containment against the
// known kinds. First match wins: like, then share, then gift.
func Classify(eventType string) Kind {
	t := strings.ToLower(eventType)
	switch {
	case strings.Contains(t, "like"):
		return KindLike
	case strings.Contains(t, "share"):
		return KindShare
	case strings.Contains(t, "gift"):
		return KindGift
	default:
		return KindUnknown
	}
}

// Kind classifies the envelope's event name.
func (e Envelope) Kind() Kind {
	return Classify(e.Type)
}

// Int reads a numeric payload field as an int. Upstream payloads are not
// consistent: counts arrive as JSON numbers, quoted strings, or are absent.
// Anything unreadable decodes to the fallback.
func (e Envelope) Int(key string, fallback int) int {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return fallback
}

// HasInt reports whether the payload field decodes to a usable int.
func (e Envelope) HasInt(key string) bool {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return false
	}
	switch n := v.(type) {
	case float64, int, int64:
		return true
	case string:
		_, err := strconv.Atoi(strings.TrimSpace(n))
		return err == nil
	}
	return false
}

// String reads a payload field as a string, empty when absent.
func (e Envelope) String(key string) string {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Bool reads a payload field as a bool, false when absent or not a bool.
func (e Envelope) Bool(key string) bool {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Like carries the decoded fields of a like/tap event. The upstream may
// report an authoritative running total, an incremental batch, or both.
type Like struct {
	Total    int  // authoritative running total
	HasTotal bool // whether Total was present and numeric
	Batch    int  // incremental batch count
}

// Share carries the decoded fields of a share event.
type Share struct {
	Amount int
}

// Gift carries the decoded fields of a gift event.
type Gift struct {
	Name         string
	GiftType     int
	RepeatEnd    bool
	DiamondCount int
	RepeatCount  int
}

// DecodeLike extracts like fields from an envelope.
func DecodeLike(e Envelope) Like {
	var l Like
	for _, key := range []string{"totalLikeCount", "totalLikes"} {
		if e.HasInt(key) {
			l.Total = e.Int(key, 0)
			l.HasTotal = true
			break
		}
	}
	for _, key := range []string{"likeCount", "likes", "count"} {
		if e.HasInt(key) {
			l.Batch = e.Int(key, 0)
			break
		}
	}
	return l
}

// DecodeShare extracts share fields from an envelope. Amount defaults to 1.
func DecodeShare(e Envelope) Share {
	return Share{Amount: e.Int("amount", 1)}
}

// DecodeGift extracts gift fields from an envelope. RepeatCount defaults
// to 1 so a plain single gift counts once.
func DecodeGift(e Envelope) Gift {
	return Gift{
		Name:         e.String("giftName"),
		GiftType:     e.Int("giftType", 0),
		RepeatEnd:    e.Bool("repeatEnd"),
		DiamondCount: e.Int("diamondCount", 0),
		RepeatCount:  e.Int("repeatCount", 1),
	}
}
