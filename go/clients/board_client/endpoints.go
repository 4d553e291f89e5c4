package board_client

import (
	"time"

	"github.com/mcdev12/smartcatan/go/internal/board"
)

const (
	// Base URL advertised by the board over mDNS
	DefaultBaseURL = "http://smartcatan.local"
	DefaultTimeout = 5 * time.Second

	// Snapshot endpoints
	GetBoardEndpoint     = "/getboard"
	SetClassicEndpoint   = "/setclassic"
	SetExtensionEndpoint = "/setextension"
	StartGameEndpoint    = "/startgame"
	EndGameEndpoint      = "/endgame"

	// Plain-text number endpoints
	SelectNumberEndpoint = "/selectNumber"
	RollDiceEndpoint     = "/rollDice"
	GetNumberEndpoint    = "/getnumber"

	// Query parameter carrying numbers and flag values
	ValueParam = "value"
)

// Rule flag endpoints share the flag's name.
var ruleFlagEndpoints = map[board.RuleFlag]string{
	board.RuleEightSixCanTouch:     "/eightSixCanTouch",
	board.RuleTwoTwelveCanTouch:    "/twoTwelveCanTouch",
	board.RuleSameNumbersCanTouch:  "/sameNumbersCanTouch",
	board.RuleSameResourceCanTouch: "/sameResourceCanTouch",
	board.RuleManualDice:           "/manualDice",
}
