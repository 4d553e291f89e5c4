package board

// Affordances describes which controls the view should offer for a session.
type Affordances struct {
	StartVisible       bool      `json:"startVisible"`
	EndVisible         bool      `json:"endVisible"`
	RollVisible        bool      `json:"rollVisible"`
	NumbersVisible     bool      `json:"numbersVisible"`
	ModeSwitchEnabled  bool      `json:"modeSwitchEnabled"`
	RuleTogglesEnabled bool      `json:"ruleTogglesEnabled"`
	RuleToggles        RuleFlags `json:"ruleToggles"`
}

// DeriveAffordances computes control state from the latest session. The
// toggles always echo the device's flags; local changes are only proposals.
func DeriveAffordances(s Session) Affordances {
	return Affordances{
		StartVisible:       !s.Active,
		EndVisible:         s.Active,
		RollVisible:        s.Active,
		NumbersVisible:     s.Active && s.Rules.ManualDice,
		ModeSwitchEnabled:  !s.Active,
		RuleTogglesEnabled: !s.Active,
		RuleToggles:        s.Rules,
	}
}
