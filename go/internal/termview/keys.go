package termview

import (
	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/gateway"
)

// Key is a pressed character, decoupled from the terminal library.
type Key rune

const (
	KeyQuit    Key = 'q'
	KeyRefresh Key = 'g'
)

// ruleKeys toggle board.AllRuleFlags by position.
var ruleKeys = []string{"!", "@", "#", "$", "%"}

var numberKeys = map[Key]int{
	'2': 2, '3': 3, '4': 4, '5': 5, '6': 6, '7': 7, '8': 8, '9': 9,
	'0': 10, '-': 11, '=': 12,
}

// CommandFor maps a key to a device command given the controls currently on
// offer. Keys for hidden controls are ignored.
func CommandFor(k Key, a board.Affordances) (gateway.Command, bool) {
	switch k {
	case 's':
		return gateway.Command{Action: gateway.ActionStart}, a.StartVisible
	case 'e':
		return gateway.Command{Action: gateway.ActionEnd}, a.EndVisible
	case 'r':
		return gateway.Command{Action: gateway.ActionRoll}, a.RollVisible
	case 'C':
		return gateway.Command{Action: gateway.ActionMode, Size: board.SizeStandard.String()}, a.ModeSwitchEnabled
	case 'X':
		return gateway.Command{Action: gateway.ActionMode, Size: board.SizeExtended.String()}, a.ModeSwitchEnabled
	}

	if v, ok := numberKeys[k]; ok {
		return gateway.Command{Action: gateway.ActionSelect, Value: v}, a.NumbersVisible
	}

	for i, key := range ruleKeys {
		if string(k) != key {
			continue
		}
		flag := board.AllRuleFlags[i]
		return gateway.Command{
			Action: gateway.ActionRule,
			Flag:   string(flag),
			On:     !a.RuleToggles.Get(flag),
		}, a.RuleTogglesEnabled
	}
	return gateway.Command{}, false
}
