// Package translit derives the Japanese overlay values for a name and
// birth date. Conversion is table-driven and pure: romaji syllables map
// to katakana by greedy longest match, day numbers map to kanji, and
// the star sign comes from a fixed month/day window table. Everything
// here is deterministic and safe for concurrent use.
package translit

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Result carries the values extracted from a submission and their
// Japanese renderings. Extracted and Japanese are index-aligned:
// name key, day of month, star-sign key.
type Result struct {
	Extracted    [3]string `json:"extracted"`
	Japanese     [3]string `json:"japanese"`
	StarSign     string    `json:"star_sign"`
	JapaneseName string    `json:"japanese_name"`
}

// Display returns the human-readable preview line pairing each
// extracted value with its Japanese rendering.
func (r Result) Display() string {
	return fmt.Sprintf("Your characters: %s → %s, %s → %s, %s → %s",
		r.Extracted[0], r.Japanese[0],
		r.Extracted[1], r.Japanese[1],
		r.Extracted[2], r.Japanese[2])
}

// Translate derives the overlay values for a validated name and birth
// date: the first two letters of the name uppercased, the zero-padded
// day of month, and the first two letters of the star sign uppercased,
// each with its Japanese rendering, plus the full name in katakana.
func Translate(name string, birthday time.Time) Result {
	name = strings.TrimSpace(name)

	nameKey := upperPrefix(name, 2)
	dayKey := fmt.Sprintf("%02d", birthday.Day())
	sign := StarSign(birthday.Month(), birthday.Day())
	signKey := upperPrefix(sign, 2)

	return Result{
		Extracted:    [3]string{nameKey, dayKey, signKey},
		Japanese:     [3]string{japaneseFor(nameKey), japaneseFor(dayKey), japaneseFor(signKey)},
		StarSign:     sign,
		JapaneseName: japaneseFor(name),
	}
}

// StarSign returns the western zodiac sign for a month and day. A
// day outside every window falls back to Capricorn.
func StarSign(month time.Month, day int) string {
	m := int(month)
	for _, w := range signWindows {
		if (m == w.startMonth && day >= w.startDay) || (m == w.endMonth && day <= w.endDay) {
			return w.name
		}
	}
	return "Capricorn"
}

// upperPrefix returns the first n characters of s, uppercased and
// trimmed. Short strings come back whole.
func upperPrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.TrimSpace(strings.ToUpper(string(runes)))
}

// japaneseFor renders a short extracted value in Japanese: exact table
// match first, katakana conversion for name-like text, then a
// character-by-character walk that passes unknown characters through.
func japaneseFor(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if jp, ok := japaneseTable[text]; ok {
		return jp
	}
	if nameLike(text) {
		return katakanaFor(text)
	}
	var b strings.Builder
	for _, r := range text {
		if jp, ok := japaneseTable[string(r)]; ok {
			b.WriteString(jp)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// nameLike reports whether text is more than two characters of letters
// and spaces, the shape of a romanized name rather than a short key.
func nameLike(text string) bool {
	if len([]rune(text)) <= 2 {
		return false
	}
	letters := 0
	for _, r := range text {
		if r == ' ' {
			continue
		}
		if !unicode.IsLetter(r) {
			return false
		}
		letters++
	}
	return letters > 0
}

// katakanaFor converts a romanized name to katakana. Matching is
// greedy: three-character syllables first, then two, then one, with
// the digraph fallback consulted on two and one character misses.
// Anything still unmatched passes through uppercased.
func katakanaFor(name string) string {
	runes := []rune(strings.ToLower(strings.TrimSpace(name)))
	var b strings.Builder
	for i := 0; i < len(runes); {
		if i+3 <= len(runes) {
			if kana, ok := katakanaTable[string(runes[i:i+3])]; ok {
				b.WriteString(kana)
				i += 3
				continue
			}
		}
		if i+2 <= len(runes) {
			pair := string(runes[i : i+2])
			if kana, ok := katakanaTable[pair]; ok {
				b.WriteString(kana)
				i += 2
				continue
			}
			if kana, ok := katakanaDigraphs[pair]; ok {
				b.WriteString(kana)
				i += 2
				continue
			}
		}
		ch := string(runes[i])
		if kana, ok := katakanaTable[ch]; ok {
			b.WriteString(kana)
		} else if kana, ok := katakanaDigraphs[ch]; ok {
			b.WriteString(kana)
		} else {
			b.WriteString(strings.ToUpper(ch))
		}
		i++
	}
	return b.String()
}

type signWindow struct {
	name       string
	startMonth int
	startDay   int
	endMonth   int
	endDay     int
}

var signWindows = []signWindow{
	{"Capricorn", 12, 22, 1, 19},
	{"Aquarius", 1, 20, 2, 18},
	{"Pisces", 2, 19, 3, 20},
	{"Aries", 3, 21, 4, 19},
	{"Taurus", 4, 20, 5, 20},
	{"Gemini", 5, 21, 6, 20},
	{"Cancer", 6, 21, 7, 22},
	{"Leo", 7, 23, 8, 22},
	{"Virgo", 8, 23, 9, 22},
	{"Libra", 9, 23, 10, 22},
	{"Scorpio", 10, 23, 11, 21},
	{"Sagittarius", 11, 22, 12, 21},
}

// katakanaTable maps romaji syllables to katakana. The voiced ji and
// zu take the da-row forms ヂ and ヅ.
var katakanaTable = map[string]string{
	"a": "ア", "i": "イ", "u": "ウ", "e": "エ", "o": "オ",
	"ka": "カ", "ki": "キ", "ku": "ク", "ke": "ケ", "ko": "コ",
	"sa": "サ", "shi": "シ", "su": "ス", "se": "セ", "so": "ソ",
	"ta": "タ", "chi": "チ", "tsu": "ツ", "te": "テ", "to": "ト",
	"na": "ナ", "ni": "ニ", "nu": "ヌ", "ne": "ネ", "no": "ノ",
	"ha": "ハ", "hi": "ヒ", "fu": "フ", "he": "ヘ", "ho": "ホ",
	"ma": "マ", "mi": "ミ", "mu": "ム", "me": "メ", "mo": "モ",
	"ya": "ヤ", "yu": "ユ", "yo": "ヨ",
	"ra": "ラ", "ri": "リ", "ru": "ル", "re": "レ", "ro": "ロ",
	"wa": "ワ", "wo": "ヲ", "n": "ン",
	"ga": "ガ", "gi": "ギ", "gu": "グ", "ge": "ゲ", "go": "ゴ",
	"za": "ザ", "ze": "ゼ", "zo": "ゾ",
	"da": "ダ", "ji": "ヂ", "zu": "ヅ", "de": "デ", "do": "ド",
	"ba": "バ", "bi": "ビ", "bu": "ブ", "be": "ベ", "bo": "ボ",
	"pa": "パ", "pi": "ピ", "pu": "プ", "pe": "ペ", "po": "ポ",
	"kya": "キャ", "kyu": "キュ", "kyo": "キョ",
	"sha": "シャ", "shu": "シュ", "sho": "ショ",
	"cha": "チャ", "chu": "チュ", "cho": "チョ",
	"nya": "ニャ", "nyu": "ニュ", "nyo": "ニョ",
	"hya": "ヒャ", "hyu": "ヒュ", "hyo": "ヒョ",
	"mya": "ミャ", "myu": "ミュ", "myo": "ミョ",
	"rya": "リャ", "ryu": "リュ", "ryo": "リョ",
	"gya": "ギャ", "gyu": "ギュ", "gyo": "ギョ",
	"ja": "ジャ", "ju": "ジュ", "jo": "ジョ",
	"bya": "ビャ", "byu": "ビュ", "byo": "ビョ",
	"pya": "ピャ", "pyu": "ピュ", "pyo": "ピョ",

	// Approximations for sounds outside the syllabary.
	"dh": "ド", "th": "ス", "v": "ブ", "f": "フ", "l": "ル",
	"x": "クス", "q": "ク", "w": "ウ", "y": "イ",
}

// katakanaDigraphs covers consonants and clusters the syllable table
// misses, common in western names.
var katakanaDigraphs = map[string]string{
	"b": "ブ", "c": "ク", "d": "ド", "f": "フ", "g": "グ", "h": "ハ",
	"j": "ジ", "k": "ク", "l": "ル", "m": "ム", "n": "ン", "p": "プ",
	"q": "ク", "r": "ル", "s": "ス", "t": "ト", "v": "ブ", "w": "ウ",
	"x": "クス", "y": "イ", "z": "ズ",
	"dh": "ド", "th": "ス", "ph": "フ", "ch": "チ", "sh": "シ",
	"ck": "ック", "ng": "ング", "qu": "ク", "gh": "グ",
}

// japaneseTable renders the short extracted values: common letter
// pairs, day numbers as kanji, and single letters as katakana.
var japaneseTable = map[string]string{
	"JO": "ジョ", "TA": "タ", "AR": "アル", "LE": "レ", "CA": "カ", "GE": "ゲ",
	"AN": "アン", "IN": "イン", "ON": "オン", "EN": "エン", "UN": "ウン",
	"ER": "エル", "OR": "オル", "IR": "イル", "UR": "ウル",

	"0": "零", "1": "一", "2": "二", "3": "三", "4": "四", "5": "五",
	"6": "六", "7": "七", "8": "八", "9": "九",
	"10": "十", "11": "十一", "12": "十二", "13": "十三", "14": "十四", "15": "十五",
	"16": "十六", "17": "十七", "18": "十八", "19": "十九", "20": "二十",
	"21": "二十一", "22": "二十二", "23": "二十三", "24": "二十四", "25": "二十五",
	"26": "二十六", "27": "二十七", "28": "二十八", "29": "二十九", "30": "三十",
	"31": "三十一",

	"A": "ア", "B": "ビ", "C": "シ", "D": "ド", "E": "エ", "F": "フ", "G": "ジ", "H": "ハ",
	"I": "イ", "J": "ジ", "K": "ケ", "L": "ル", "M": "ム", "N": "ン", "O": "オ", "P": "ピ",
	"Q": "ク", "R": "ル", "S": "ス", "T": "ト", "U": "ウ", "V": "ブ", "W": "ウ", "X": "クス",
	"Y": "イ", "Z": "ズ",
}
