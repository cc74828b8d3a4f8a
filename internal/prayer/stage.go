package prayer

import (
	"fmt"
	"strings"
)

// Stage is one of the five daily windows, named after the prayer that opens it.
type Stage int

const (
	Fajr Stage = iota
	Dhuhr
	Asr
	Maghrib
	Isha
)

// StageCount is the number of stages in a day.
const StageCount = 5

// Stages lists the stages in the order they occur within a day.
var Stages = [StageCount]Stage{Fajr, Dhuhr, Asr, Maghrib, Isha}

// Next returns the stage that follows s. Isha is followed by the next day's Fajr.
func (s Stage) Next() Stage {
	switch s {
	case Fajr:
		return Dhuhr
	case Dhuhr:
		return Asr
	case Asr:
		return Maghrib
	case Maghrib:
		return Isha
	case Isha:
		return Fajr
	}
	panic(fmt.Sprintf("prayer: invalid Stage %d", int(s)))
}

func (s Stage) String() string {
	switch s {
	case Fajr:
		return "Fajr"
	case Dhuhr:
		return "Dhuhr"
	case Asr:
		return "Asr"
	case Maghrib:
		return "Maghrib"
	case Isha:
		return "Isha"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Short returns a single-character abbreviation for status lines.
func (s Stage) Short() string {
	switch s {
	case Fajr:
		return "F"
	case Dhuhr:
		return "D"
	case Asr:
		return "A"
	case Maghrib:
		return "M"
	case Isha:
		return "I"
	}
	return "?"
}

// Valid reports whether s is one of the five stages.
func (s Stage) Valid() bool {
	return s >= Fajr && s <= Isha
}

// ParseStage resolves a stage name case-insensitively.
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages {
		if strings.EqualFold(s.String(), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return 0, &InputError{Field: "stage", Value: name, Reason: "valid stages: Fajr, Dhuhr, Asr, Maghrib, Isha"}
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("prayer: invalid Stage %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	v, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
