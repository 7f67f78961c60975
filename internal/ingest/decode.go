package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oh2fk/pskprop/internal/band"
	"github.com/oh2fk/pskprop/internal/geo"
	"github.com/oh2fk/pskprop/internal/stats"
	"github.com/oh2fk/pskprop/internal/types"
)

// DecodeError explains why a feed message was dropped. Reason matches the
// stats drop-counter names so callers can count without string mapping.
type DecodeError struct {
	Reason string
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return "decode: " + e.Reason
	}
	return "decode: " + e.Reason + ": " + e.Detail
}

// rawReport mirrors the feed payload. The feed emits both long and short
// field names depending on the reporting client, so every field carries its
// alias set. Numeric fields arrive as numbers or strings; RawMessage defers
// that to parseNumber.
type rawReport struct {
	SenderCallsign   string `json:"senderCallsign"`
	SC               string `json:"sc"`
	ReceiverCallsign string `json:"receiverCallsign"`
	RC               string `json:"rc"`

	SenderLocator   string `json:"senderLocator"`
	SenderGrid      string `json:"senderGrid"`
	SL              string `json:"sl"`
	ReceiverLocator string `json:"receiverLocator"`
	ReceiverGrid    string `json:"receiverGrid"`
	RL              string `json:"rl"`

	Frequency   json.RawMessage `json:"frequency"`
	FrequencyHz json.RawMessage `json:"frequencyHz"`
	F           json.RawMessage `json:"f"`
	Band        string          `json:"band"`
	B           string          `json:"b"`

	// "snr" also catches the feed's "sNR" spelling via the case-insensitive
	// match of encoding/json.
	SNR json.RawMessage `json:"snr"`
	RP  json.RawMessage `json:"rp"`

	FlowStartSeconds json.RawMessage `json:"flowStartSeconds"`
	T                json.RawMessage `json:"t"`
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstNumber(values ...json.RawMessage) (float64, bool) {
	for _, v := range values {
		if n, ok := parseNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

// parseNumber reads a JSON number or a numeric string, tolerating the
// unicode minus some clients emit.
func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(s, "−", "-")
	if s == "" || s == "null" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Decode turns one feed payload into spot records, one per geolocated
// endpoint. Radius is not evaluated here: all decoded spots are stored and
// the filter engine applies the radius at query time, so widening the
// radius retroactively reveals spots already inside the age window.
func Decode(payload []byte, now time.Time) ([]types.Spot, error) {
	var raw rawReport
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, &DecodeError{Reason: stats.DropParse, Detail: err.Error()}
	}

	sender := coalesce(raw.SenderCallsign, raw.SC)
	receiver := coalesce(raw.ReceiverCallsign, raw.RC)
	if sender == "" || receiver == "" {
		return nil, &DecodeError{Reason: stats.DropParse, Detail: "missing callsign"}
	}

	var freqHz int64
	if f, ok := firstNumber(raw.Frequency, raw.FrequencyHz, raw.F); ok {
		freqHz = int64(f)
	}
	bandName := band.Resolve(freqHz, coalesce(raw.Band, raw.B))
	if bandName == "" {
		return nil, &DecodeError{Reason: stats.DropBandFiltered, Detail: "no recognized band"}
	}

	senderGrid := coalesce(raw.SenderLocator, raw.SenderGrid, raw.SL)
	receiverGrid := coalesce(raw.ReceiverLocator, raw.ReceiverGrid, raw.RL)
	if senderGrid == "" || receiverGrid == "" {
		return nil, &DecodeError{Reason: stats.DropMissingLocator, Detail: "missing grid locator"}
	}

	senderPoint, err := geo.Decode(senderGrid)
	if err != nil {
		return nil, &DecodeError{Reason: stats.DropInvalidGrid, Detail: senderGrid}
	}
	receiverPoint, err := geo.Decode(receiverGrid)
	if err != nil {
		return nil, &DecodeError{Reason: stats.DropInvalidGrid, Detail: receiverGrid}
	}

	ts := now
	if sec, ok := firstNumber(raw.FlowStartSeconds, raw.T); ok && sec > 0 {
		// Some clients report milliseconds.
		if sec > 2_000_000_000 {
			sec /= 1000
		}
		ts = time.Unix(int64(sec), 0).UTC()
	}

	var snr *int
	if v, ok := firstNumber(raw.SNR, raw.RP); ok {
		n := int(math.Round(v))
		snr = &n
	}

	base := types.Spot{
		SenderCallsign:   sender,
		SenderLocator:    senderGrid,
		ReceiverCallsign: receiver,
		ReceiverLocator:  receiverGrid,
		Band:             bandName,
		SNR:              snr,
		Timestamp:        ts,
	}

	senderSpot := base
	senderSpot.Role = types.RoleSender
	senderSpot.Point = senderPoint

	receiverSpot := base
	receiverSpot.Role = types.RoleReceiver
	receiverSpot.Point = receiverPoint

	return []types.Spot{senderSpot, receiverSpot}, nil
}
