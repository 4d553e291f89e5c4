// Package board turns a device board description into positioned, classified
// cells and derives the highlight and control state shown next to it.
package board

import "slices"

// SizeMode selects the row geometry of the board.
type SizeMode int

const (
	SizeStandard SizeMode = iota // classic, 19 tiles
	SizeExtended                 // 5-6 player extension, 30 tiles
)

// ModeFromExtension maps the device's "extension" flag to a SizeMode.
func ModeFromExtension(extension bool) SizeMode {
	if extension {
		return SizeExtended
	}
	return SizeStandard
}

// Extension reports whether the mode is the extension board.
func (m SizeMode) Extension() bool {
	return m == SizeExtended
}

// Valid reports whether m is a known mode.
func (m SizeMode) Valid() bool {
	return m == SizeStandard || m == SizeExtended
}

func (m SizeMode) String() string {
	switch m {
	case SizeStandard:
		return "classic"
	case SizeExtended:
		return "extension"
	default:
		return "unknown"
	}
}

// ParseSizeMode accepts the names produced by String.
func ParseSizeMode(s string) (SizeMode, error) {
	switch s {
	case "classic", "standard":
		return SizeStandard, nil
	case "extension", "extended":
		return SizeExtended, nil
	default:
		return 0, ErrInvalidMode
	}
}

// Resource is a tile's resource kind. The numeric values are the device's
// wire encoding and must not change.
type Resource int

const (
	ResourceSheep  Resource = 0
	ResourceWood   Resource = 1
	ResourceWheat  Resource = 2
	ResourceBrick  Resource = 3
	ResourceOre    Resource = 4
	ResourceDesert Resource = 5
)

var resourceNames = map[Resource]string{
	ResourceSheep:  "sheep",
	ResourceWood:   "wood",
	ResourceWheat:  "wheat",
	ResourceBrick:  "brick",
	ResourceOre:    "ore",
	ResourceDesert: "desert",
}

// resourceClasses are the display classes used by the board UI.
var resourceClasses = map[Resource]string{
	ResourceSheep:  "light-green",
	ResourceWood:   "dark-green",
	ResourceWheat:  "yellow",
	ResourceBrick:  "brick",
	ResourceOre:    "grey",
	ResourceDesert: "desert",
}

func (r Resource) Valid() bool {
	_, ok := resourceNames[r]
	return ok
}

func (r Resource) String() string {
	if name, ok := resourceNames[r]; ok {
		return name
	}
	return "unknown"
}

// Class returns the display class for the resource.
func (r Resource) Class() string {
	if class, ok := resourceClasses[r]; ok {
		return class
	}
	return "unknown"
}

const (
	// NoToken is the number carried by tiles without a number token.
	NoToken = 0
	// NoTokenText is displayed instead of a number on tokenless tiles.
	NoTokenText = "--"
	// RobberValue highlights every tile when selected.
	RobberValue = 7
	MinValue    = 2
	MaxValue    = 12
)

// ValidSelection reports whether v may be the session's selected value.
// Zero means nothing is selected.
func ValidSelection(v int) bool {
	return v == 0 || (v >= MinValue && v <= MaxValue)
}

// Description is the board layout received from the device.
type Description struct {
	Mode      SizeMode   `json:"mode"`
	Resources []Resource `json:"resources"`
	Numbers   []int      `json:"numbers"`
}

// Clone returns a deep copy.
func (d Description) Clone() Description {
	return Description{
		Mode:      d.Mode,
		Resources: slices.Clone(d.Resources),
		Numbers:   slices.Clone(d.Numbers),
	}
}

// RuleFlag names one of the board generation toggles owned by the device.
type RuleFlag string

const (
	RuleEightSixCanTouch     RuleFlag = "eightSixCanTouch"
	RuleTwoTwelveCanTouch    RuleFlag = "twoTwelveCanTouch"
	RuleSameNumbersCanTouch  RuleFlag = "sameNumbersCanTouch"
	RuleSameResourceCanTouch RuleFlag = "sameResourceCanTouch"
	RuleManualDice           RuleFlag = "manualDice"
)

// AllRuleFlags lists the flags in display order.
var AllRuleFlags = []RuleFlag{
	RuleEightSixCanTouch,
	RuleTwoTwelveCanTouch,
	RuleSameNumbersCanTouch,
	RuleSameResourceCanTouch,
	RuleManualDice,
}

// ParseRuleFlag validates a flag name.
func ParseRuleFlag(s string) (RuleFlag, error) {
	for _, f := range AllRuleFlags {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrUnknownRuleFlag
}

// RuleFlags mirrors the device's rule toggles.
type RuleFlags struct {
	EightSixCanTouch     bool `json:"eightSixCanTouch"`
	TwoTwelveCanTouch    bool `json:"twoTwelveCanTouch"`
	SameNumbersCanTouch  bool `json:"sameNumbersCanTouch"`
	SameResourceCanTouch bool `json:"sameResourceCanTouch"`
	ManualDice           bool `json:"manualDice"`
}

// Get returns the value of a single flag.
func (r RuleFlags) Get(flag RuleFlag) bool {
	switch flag {
	case RuleEightSixCanTouch:
		return r.EightSixCanTouch
	case RuleTwoTwelveCanTouch:
		return r.TwoTwelveCanTouch
	case RuleSameNumbersCanTouch:
		return r.SameNumbersCanTouch
	case RuleSameResourceCanTouch:
		return r.SameResourceCanTouch
	case RuleManualDice:
		return r.ManualDice
	default:
		return false
	}
}

// Session is the play state received from the device.
type Session struct {
	Active        bool      `json:"active"`
	SelectedValue int       `json:"selectedValue"`
	Rules         RuleFlags `json:"rules"`
}

// Snapshot is the unit of truth received from the device. It is replaced
// as a whole and never edited in place.
type Snapshot struct {
	Board   Description `json:"board"`
	Session Session     `json:"session"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Board: s.Board.Clone(), Session: s.Session}
}

// WithSelectedValue returns a copy of s with only the selected value replaced.
func (s Snapshot) WithSelectedValue(v int) Snapshot {
	next := s.Clone()
	next.Session.SelectedValue = v
	return next
}
