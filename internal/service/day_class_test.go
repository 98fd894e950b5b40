package service

import "testing"

func TestClassifyDayPrecedence(t *testing.T) {
	cases := []struct {
		name  string
		facts DayFacts
		want  DayClass
	}{
		{"empty", DayFacts{}, DayEmpty},
		{"active only", DayFacts{HasActive: true}, DayActive},
		{"skipped only", DayFacts{SkippedOnly: true}, DaySkippedOnly},
		{"rest earned", DayFacts{IsRest: true, RestEarned: true}, DayRestEarned},
		{"rest unearned", DayFacts{IsRest: true}, DayRestUnearned},
		// Active 压过休息日：当天补了产出仍按产出日计
		{"active beats earned rest", DayFacts{HasActive: true, IsRest: true, RestEarned: true}, DayActive},
		{"active beats unearned rest", DayFacts{HasActive: true, IsRest: true}, DayActive},
		// 休息日压过 skipped
		{"earned rest beats skipped", DayFacts{SkippedOnly: true, IsRest: true, RestEarned: true}, DayRestEarned},
		{"unearned rest beats skipped", DayFacts{SkippedOnly: true, IsRest: true}, DayRestUnearned},
	}

	for _, tc := range cases {
		if got := ClassifyDay(tc.facts); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestDayClassString(t *testing.T) {
	if DayActive.String() != "active" || DayEmpty.String() != "empty" {
		t.Fatal("unexpected day class labels")
	}
}
