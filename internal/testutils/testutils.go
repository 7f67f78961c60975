package testutils

import (
	"encoding/json"
	"time"

	"github.com/oh2fk/pskprop/internal/types"
)

// Report is a feed payload under construction for tests.
type Report map[string]any

// MockReport builds a well-formed feed payload on 20m between two Finnish
// grids, overridable field by field.
func MockReport(overrides Report) []byte {
	payload := Report{
		"senderCallsign":   "OH2TEST",
		"senderLocator":    "KP20ab",
		"receiverCallsign": "SM0TEST",
		"receiverLocator":  "JO99ab",
		"frequency":        14_074_000,
		"sNR":              -12,
		"flowStartSeconds": time.Now().UTC().Unix(),
	}
	for k, v := range overrides {
		if v == nil {
			delete(payload, k)
			continue
		}
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return data
}

// MockSpot builds a stored spot for filter and store tests.
func MockSpot(sender, receiver, bandName string, role types.Role, point types.GeoPoint, ts time.Time) types.Spot {
	snr := -10
	return types.Spot{
		SenderCallsign:   sender,
		SenderLocator:    "KP20ab",
		ReceiverCallsign: receiver,
		ReceiverLocator:  "JO99ab",
		Band:             bandName,
		SNR:              &snr,
		Timestamp:        ts,
		Role:             role,
		Point:            point,
	}
}
