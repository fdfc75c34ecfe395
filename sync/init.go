package sync

import (
	"encoding/json"
	"log"
	"regexp"
)

// Flavour identifies the source and destination pair a run syncs between.
type Flavour int

const (
	// ActionNetwork2EveryAction syncs Action Network activist exports into EveryAction.
	ActionNetwork2EveryAction Flavour = iota + 1
)

func (f Flavour) String() string {
	switch f {
	case ActionNetwork2EveryAction:
		return "actionnetwork2everyaction"
	default:
		return "unknown"
	}
}

// initialisedFlavour stores the flavour set by Init.
// A nil value means Init has not been called.
var initialisedFlavour *Flavour

// mustBeInitialised panics if Init has not been called.
// This should be called at the entry points of the library
// to catch programming errors early.
func mustBeInitialised() Flavour {
	if initialisedFlavour == nil {
		panic("sync: Init() must be called before using this package")
	}
	return *initialisedFlavour
}

// GetInitialisedFlavour returns the flavour set by Init.
// Panics if Init has not been called.
func GetInitialisedFlavour() Flavour {
	return mustBeInitialised()
}

var nonDigits = regexp.MustCompile(`\D`)

// Init sets the flavour and registers the gjson modifiers used by field mappings.
func Init(flavour Flavour) {

	f := flavour
	initialisedFlavour = &f

	if flavour != ActionNetwork2EveryAction {
		log.Fatalf("sync: unsupported flavour %d", flavour)
	}

	registerModifiers()

}

func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}
