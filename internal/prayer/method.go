package prayer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownMethod is returned by ParseMethod for names outside the table.
var ErrUnknownMethod = errors.New("unknown calculation method")

// Method names a calculation convention: the twilight angles a regional
// authority uses to define Fajr and Isha.
type Method string

// Supported calculation methods.
const (
	MWL     Method = "MWL"
	ISNA    Method = "ISNA"
	Egypt   Method = "Egypt"
	Makkah  Method = "Makkah"
	Karachi Method = "Karachi"
	Tehran  Method = "Tehran"
	Jafari  Method = "Jafari"
)

// DefaultMethod is used when no method has been chosen.
const DefaultMethod = MWL

// Params are the fixed parameters of a calculation method.
type Params struct {
	// FajrAngle is the solar depression in degrees that starts Fajr.
	FajrAngle float64
	// IshaAngle is the solar depression in degrees that starts Isha.
	// It is zero when IshaInterval applies.
	IshaAngle float64
	// IshaInterval, when non-zero, places Isha a fixed time after sunset.
	IshaInterval time.Duration
}

type methodInfo struct {
	method  Method
	name    string
	aladhan int // method ID on api.aladhan.com
	params  Params
}

var methodTable = []methodInfo{
	{MWL, "Muslim World League (MWL)", 3, Params{FajrAngle: 18, IshaAngle: 17}},
	{ISNA, "Islamic Society of North America (ISNA)", 2, Params{FajrAngle: 15, IshaAngle: 15}},
	{Egypt, "Egyptian General Authority of Survey", 5, Params{FajrAngle: 19.5, IshaAngle: 17.5}},
	{Makkah, "Umm Al-Qura University, Makkah", 4, Params{FajrAngle: 18.5, IshaInterval: 90 * time.Minute}},
	{Karachi, "University of Islamic Sciences, Karachi", 1, Params{FajrAngle: 18, IshaAngle: 18}},
	{Tehran, "Institute of Geophysics, University of Tehran", 7, Params{FajrAngle: 17.7, IshaAngle: 14}},
	{Jafari, "Shia Ithna-Ashari (Jafari)", 0, Params{FajrAngle: 16, IshaAngle: 14}},
}

var methodAliases = map[string]Method{
	"muslimworldleague": MWL,
	"egyptian":          Egypt,
	"ummalqura":         Makkah,
	"umm-al-qura":       Makkah,
}

// Methods returns every supported method in table order.
func Methods() []Method {
	out := make([]Method, len(methodTable))
	for i, m := range methodTable {
		out[i] = m.method
	}
	return out
}

// ParseMethod resolves a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, m := range methodTable {
		if strings.ToLower(string(m.method)) == key {
			return m.method, nil
		}
	}
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w %q; valid methods: %s", ErrUnknownMethod, s, methodList())
}

func methodList() string {
	names := make([]string, len(methodTable))
	for i, m := range methodTable {
		names[i] = string(m.method)
	}
	return strings.Join(names, ", ")
}

func (m Method) info() (methodInfo, bool) {
	for _, mi := range methodTable {
		if mi.method == m {
			return mi, true
		}
	}
	return methodInfo{}, false
}

// Valid reports whether m is in the method table.
func (m Method) Valid() bool {
	_, ok := m.info()
	return ok
}

// Params returns the method's parameters. Methods outside the table use
// the parameters of DefaultMethod.
func (m Method) Params() Params {
	if mi, ok := m.info(); ok {
		return mi.params
	}
	mi, _ := DefaultMethod.info()
	return mi.params
}

// Name returns the full name of the issuing authority.
func (m Method) Name() string {
	if mi, ok := m.info(); ok {
		return mi.name
	}
	return string(m)
}

// AlAdhanID returns the equivalent method ID on api.aladhan.com, or -1.
func (m Method) AlAdhanID() int {
	if mi, ok := m.info(); ok {
		return mi.aladhan
	}
	return -1
}

// Madhab selects the juristic convention for the Asr shadow length.
type Madhab string

const (
	// Shafi starts Asr when an object's shadow exceeds its noon shadow by
	// its own length. Maliki and Hanbali schools agree.
	Shafi Madhab = "shafi"
	// Hanafi starts Asr at twice the object's length.
	Hanafi Madhab = "hanafi"
)

// ParseMadhab resolves a madhab name. The Al Adhan "school" numbers 0 and
// 1 are accepted as well.
func ParseMadhab(s string) (Madhab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shafi", "shafii", "standard", "0":
		return Shafi, nil
	case "hanafi", "1":
		return Hanafi, nil
	default:
		return "", fmt.Errorf("invalid madhab %q: must be \"shafi\" or \"hanafi\"", s)
	}
}

// ShadowRatio returns the shadow-to-height factor that defines Asr.
func (m Madhab) ShadowRatio() float64 {
	if m == Hanafi {
		return 2
	}
	return 1
}

// School returns the Al Adhan "school" parameter for the madhab.
func (m Madhab) School() int {
	if m == Hanafi {
		return 1
	}
	return 0
}
