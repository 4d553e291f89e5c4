package board

// Selector is one number button of the dice panel.
type Selector struct {
	Value       int  `json:"value"`
	Robber      bool `json:"robber,omitempty"`
	Highlighted bool `json:"highlighted"`
}

// SelectorValues are the number buttons in panel order. 7 sits in the
// middle and is drawn as the robber button.
var SelectorValues = []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

// ClassifySelectors marks the button whose value equals selected.
func ClassifySelectors(selected int) []Selector {
	out := make([]Selector, len(SelectorValues))
	for i, v := range SelectorValues {
		out[i] = Selector{
			Value:       v,
			Robber:      v == RobberValue,
			Highlighted: v == selected,
		}
	}
	return out
}
