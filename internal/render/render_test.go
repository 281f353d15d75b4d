package render

import (
	"testing"

	"seiza/internal/translit"
)

func TestNewSpec(t *testing.T) {
	tr := translit.Result{
		Extracted:    [3]string{"JA", "15", "CA"},
		Japanese:     [3]string{"ジア", "十五", "カ"},
		StarSign:     "Capricorn",
		JapaneseName: "ジャネ",
	}

	spec := NewSpec("job-1", "Jane", tr)

	if spec.JobID != "job-1" {
		t.Errorf("expected job id job-1, got %q", spec.JobID)
	}
	want := [6]string{"ジア", "十五", "カ", "ジア 十五 カ", "ジャネ", "Jane"}
	if spec.Texts != want {
		t.Errorf("expected texts %v, got %v", want, spec.Texts)
	}
}

func TestSlotWindowsOrdered(t *testing.T) {
	if len(slotWindows) != 6 {
		t.Fatalf("expected 6 slot windows, got %d", len(slotWindows))
	}
	if slotWindows[0][0] != "1.435" || slotWindows[5][1] != "999.0" {
		t.Errorf("unexpected boundary windows: %v, %v", slotWindows[0], slotWindows[5])
	}
}
