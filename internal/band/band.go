package band

import (
	"strings"
)

// Band is an amateur band with its frequency range in Hz.
type Band struct {
	Name string
	LoHz int64
	HiHz int64
}

// All lists the supported bands in ascending frequency order. The HF plan
// matches the PSK Reporter band edges; 6m and up cover the common VHF/UHF
// reporting bands.
var All = []Band{
	{"160m", 1_800_000, 2_000_000},
	{"80m", 3_500_000, 4_000_000},
	{"60m", 5_000_000, 5_500_000},
	{"40m", 7_000_000, 7_300_000},
	{"30m", 10_100_000, 10_150_000},
	{"20m", 14_000_000, 14_350_000},
	{"17m", 18_068_000, 18_168_000},
	{"15m", 21_000_000, 21_450_000},
	{"12m", 24_890_000, 24_990_000},
	{"10m", 28_000_000, 29_700_000},
	{"6m", 50_000_000, 54_000_000},
	{"4m", 70_000_000, 70_500_000},
	{"2m", 144_000_000, 148_000_000},
	{"70cm", 420_000_000, 450_000_000},
}

// Colors maps band names to the display colors handed through to the
// rendering client. The core never interprets these.
var Colors = map[string]string{
	"160m": "#8B4513",
	"80m":  "#4B0082",
	"60m":  "#708090",
	"40m":  "#00008B",
	"30m":  "#008B8B",
	"20m":  "#006400",
	"17m":  "#228B22",
	"15m":  "#8B8B00",
	"12m":  "#B8860B",
	"10m":  "#B22222",
	"6m":   "#2F4F4F",
	"4m":   "#9932CC",
	"2m":   "#FF8C00",
	"70cm": "#C71585",
}

var byName = func() map[string]Band {
	m := make(map[string]Band, len(All))
	for _, b := range All {
		m[b.Name] = b
	}
	return m
}()

// IsValid reports whether name is a known band.
func IsValid(name string) bool {
	_, ok := byName[name]
	return ok
}

// Names returns all band names in plan order.
func Names() []string {
	names := make([]string, len(All))
	for i, b := range All {
		names[i] = b.Name
	}
	return names
}

// FromFrequency returns the band containing the given frequency, or ""
// if the frequency falls outside every band.
func FromFrequency(hz int64) string {
	for _, b := range All {
		if hz >= b.LoHz && hz <= b.HiHz {
			return b.Name
		}
	}
	return ""
}

// Normalize canonicalizes a band label from a feed payload: "20M" and "20"
// both become "20m". Labels that do not name a known band, including raw
// frequencies like "14MHz", normalize to "".
func Normalize(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return ""
	}
	if isDigits(s) {
		s += "m"
	}
	if IsValid(s) {
		return s
	}
	return ""
}

// Resolve picks the band for a report: the frequency wins when it maps to a
// known band, otherwise the payload's own label is normalized. Returns ""
// when neither identifies a band.
func Resolve(freqHz int64, label string) string {
	if freqHz > 0 {
		if name := FromFrequency(freqHz); name != "" {
			return name
		}
	}
	return Normalize(label)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
