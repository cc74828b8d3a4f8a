package prayer

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStageNext_Ring(t *testing.T) {
	want := map[Stage]Stage{
		Fajr:    Dhuhr,
		Dhuhr:   Asr,
		Asr:     Maghrib,
		Maghrib: Isha,
		Isha:    Fajr,
	}
	for from, to := range want {
		if got := from.Next(); got != to {
			t.Errorf("%v.Next() = %v, want %v", from, got, to)
		}
	}

	// Five steps around the ring return to the start.
	s := Asr
	for i := 0; i < StageCount; i++ {
		s = s.Next()
	}
	if s != Asr {
		t.Errorf("ring of %d steps ended at %v, want Asr", StageCount, s)
	}
}

func TestStageStrings(t *testing.T) {
	names := []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}
	shorts := []string{"F", "D", "A", "M", "I"}
	for i, s := range Stages {
		if s.String() != names[i] {
			t.Errorf("Stages[%d].String() = %q, want %q", i, s.String(), names[i])
		}
		if s.Short() != shorts[i] {
			t.Errorf("Stages[%d].Short() = %q, want %q", i, s.Short(), shorts[i])
		}
	}
	if got := Stage(9).String(); got != "Stage(9)" {
		t.Errorf("invalid stage String() = %q", got)
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{"Fajr", Fajr, false},
		{"maghrib", Maghrib, false},
		{" ISHA ", Isha, false},
		{"Sunrise", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStage(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("ParseStage(%q) error = %v, want ErrInvalidInput", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStage(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseStage(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStageJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		S Stage `json:"s"`
	}{Maghrib})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"s":"Maghrib"}` {
		t.Errorf("marshal = %s", data)
	}

	var out struct {
		S Stage `json:"s"`
	}
	if err := json.Unmarshal([]byte(`{"s":"asr"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.S != Asr {
		t.Errorf("unmarshal = %v, want Asr", out.S)
	}
}
