package translit

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTranslate(t *testing.T) {
	t.Run("reference submission", func(t *testing.T) {
		r := Translate("Jane", date(1990, time.January, 15))

		if r.Extracted != [3]string{"JA", "15", "CA"} {
			t.Errorf("expected extracted [JA 15 CA], got %v", r.Extracted)
		}
		if r.StarSign != "Capricorn" {
			t.Errorf("expected star sign Capricorn, got %q", r.StarSign)
		}
		if r.Japanese != [3]string{"ジア", "十五", "カ"} {
			t.Errorf("expected japanese [ジア 十五 カ], got %v", r.Japanese)
		}
		if r.JapaneseName != "ジャネ" {
			t.Errorf("expected japanese name ジャネ, got %q", r.JapaneseName)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := Translate("Jane Doe", date(1990, time.January, 15))
		b := Translate("Jane Doe", date(1990, time.January, 15))
		if a != b {
			t.Errorf("results differ: %v vs %v", a, b)
		}
		for i, v := range a.Japanese {
			if v == "" {
				t.Errorf("japanese slot %d is empty", i)
			}
		}
	})

	t.Run("full name spans words", func(t *testing.T) {
		r := Translate("Jane Doe", date(1990, time.January, 15))
		if r.JapaneseName != "ジャネ ドエ" {
			t.Errorf("expected ジャネ ドエ, got %q", r.JapaneseName)
		}
	})

	t.Run("single digit day is zero padded", func(t *testing.T) {
		r := Translate("Jane", date(1990, time.January, 5))
		if r.Extracted[1] != "05" {
			t.Errorf("expected day key 05, got %q", r.Extracted[1])
		}
		if r.Japanese[1] != "零五" {
			t.Errorf("expected 零五, got %q", r.Japanese[1])
		}
	})

	t.Run("short name", func(t *testing.T) {
		r := Translate("J", date(1990, time.January, 15))
		if r.Extracted[0] != "J" {
			t.Errorf("expected name key J, got %q", r.Extracted[0])
		}
		if r.Japanese[0] != "ジ" {
			t.Errorf("expected ジ, got %q", r.Japanese[0])
		}
	})
}

func TestDisplay(t *testing.T) {
	r := Translate("Jane", date(1990, time.January, 15))
	want := "Your characters: JA → ジア, 15 → 十五, CA → カ"
	if got := r.Display(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestStarSign(t *testing.T) {
	tests := []struct {
		month time.Month
		day   int
		want  string
	}{
		{time.January, 19, "Capricorn"},
		{time.January, 20, "Aquarius"},
		{time.February, 18, "Aquarius"},
		{time.February, 19, "Pisces"},
		{time.February, 29, "Pisces"},
		{time.March, 20, "Pisces"},
		{time.March, 21, "Aries"},
		{time.April, 19, "Aries"},
		{time.April, 20, "Taurus"},
		{time.May, 21, "Gemini"},
		{time.June, 21, "Cancer"},
		{time.July, 22, "Cancer"},
		{time.July, 23, "Leo"},
		{time.August, 22, "Leo"},
		{time.August, 23, "Virgo"},
		{time.September, 23, "Libra"},
		{time.October, 23, "Scorpio"},
		{time.November, 22, "Sagittarius"},
		{time.December, 21, "Sagittarius"},
		{time.December, 22, "Capricorn"},
	}

	for _, tt := range tests {
		if got := StarSign(tt.month, tt.day); got != tt.want {
			t.Errorf("StarSign(%s, %d): expected %s, got %s", tt.month, tt.day, tt.want, got)
		}
	}
}

func TestKatakanaFor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"three char syllable", "sha", "シャ"},
		{"syllable then pair", "kyoko", "キョコ"},
		{"digraph cluster", "jack", "ジャック"},
		{"mixed table and digraph", "smith", "スミス"},
		{"consonant run", "chris", "チリス"},
		{"voiced ji", "fuji", "フヂ"},
		{"voiced zu", "suzu", "スヅ"},
		{"case insensitive", "JANE", "ジャネ"},
		{"unknown passes through upper", "a-b", "ア-ブ"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := katakanaFor(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestJapaneseFor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"exact pair", "JO", "ジョ"},
		{"kanji day", "15", "十五"},
		{"kanji day upper range", "31", "三十一"},
		{"padded day walks per digit", "05", "零五"},
		{"pair miss walks per letter", "VI", "ブイ"},
		{"name like goes katakana", "Taro", "タロ"},
		{"unknown character passes through", "A1?", "ア一?"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := japaneseFor(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
