package domain

import (
	"fmt"
	"sort"
	"time"
)

// Pillar is one stem/branch pair of the birth chart.
type Pillar struct {
	Stem    string  `json:"stem" yaml:"stem"`
	Branch  string  `json:"branch" yaml:"branch"`
	Element Element `json:"element" yaml:"element"`
	Animal  Animal  `json:"animal" yaml:"animal"`
}

// String renders the pillar as "Geng Horse".
func (p Pillar) String() string {
	return fmt.Sprintf("%s %s", p.Stem, p.Animal)
}

// Chart holds every display value derived from a birth date.
// This is pure domain logic - a deterministic function of year/month/day/hour
type Chart struct {
	Element        Element         `json:"element" yaml:"element"`
	Animal         Animal          `json:"animal" yaml:"animal"`
	Polarity       Polarity        `json:"polarity" yaml:"polarity"`
	YearPillar     Pillar          `json:"yearPillar" yaml:"year_pillar"`
	MonthElement   Element         `json:"monthElement" yaml:"month_element"`
	DayPillar      Pillar          `json:"dayPillar" yaml:"day_pillar"`
	DayElement     Element         `json:"dayElement" yaml:"day_element"`
	HourAnimal     Animal          `json:"hourAnimal,omitempty" yaml:"hour_animal,omitempty"`
	LifePath       int             `json:"lifePath" yaml:"life_path"`
	LuckyNumbers   []int           `json:"luckyNumbers" yaml:"lucky_numbers"`
	LuckyColors    []string        `json:"luckyColors" yaml:"lucky_colors"`
	LuckyDirection string          `json:"luckyDirection" yaml:"lucky_direction"`
	Balance        map[Element]int `json:"balance" yaml:"balance"`
	Dominant       Element         `json:"dominant" yaml:"dominant"`
}

// dayPillarEpoch is 1900-01-01, a Jia-Xu day (stem 0, branch 10).
var dayPillarEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewChart validates the input and derives the chart
func NewChart(in BirthInput) (*Chart, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return DeriveChart(in.Year, in.Month, in.Day, in.Hour), nil
}

// DeriveChart computes the chart without validating the date.
// Any integer inputs produce a chart; callers that accept user input go
// through NewChart.
func DeriveChart(year, month, day int, hour *int) *Chart {
	yearPillar := YearPillar(year)
	dayPillar := DayPillar(year, month, day)

	c := &Chart{
		Element:      yearPillar.Element,
		Animal:       yearPillar.Animal,
		Polarity:     YearPolarity(year),
		YearPillar:   yearPillar,
		MonthElement: MonthElement(month),
		DayPillar:    dayPillar,
		DayElement:   dayPillar.Element,
		LifePath:     LifePath(year, month, day),
	}
	if hour != nil {
		c.HourAnimal = HourAnimal(*hour)
	}

	c.LuckyNumbers = LuckyNumbers(c.Element, c.Animal)
	c.LuckyColors = LuckyColors(c.Element)
	c.LuckyDirection = LuckyDirection(c.Animal)
	c.Balance, c.Dominant = elementBalance(c, hour)

	return c
}

// YearPillar returns the stem/branch of the (calendar) year.
func YearPillar(year int) Pillar {
	stem := mod(year-4, 10)
	branch := mod(year-4, 12)
	return Pillar{
		Stem:    heavenlyStems[stem],
		Branch:  earthlyBranches[branch],
		Element: stemElements[stem/2],
		Animal:  animals[branch],
	}
}

// YearElement returns the element of the year. 1990 is Metal.
func YearElement(year int) Element {
	return YearPillar(year).Element
}

// YearAnimal returns the zodiac animal of the year. 1990 is Horse.
func YearAnimal(year int) Animal {
	return animals[mod(year-4, 12)]
}

// YearPolarity returns Yang for even years and Yin for odd years.
func YearPolarity(year int) Polarity {
	if mod(year, 2) == 0 {
		return Yang
	}
	return Yin
}

// MonthElement returns the element of the month branch.
// January is Chou, February Yin, ..., December Zi.
func MonthElement(month int) Element {
	return branchElements[mod(month, 12)]
}

// DayPillar returns the stem/branch of the day counted from 1900-01-01.
func DayPillar(year, month, day int) Pillar {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	offset := int((date.Unix() - dayPillarEpoch.Unix()) / 86400)

	stem := mod(offset, 10)
	branch := mod(offset+10, 12)
	return Pillar{
		Stem:    heavenlyStems[stem],
		Branch:  earthlyBranches[branch],
		Element: stemElements[stem/2],
		Animal:  animals[branch],
	}
}

// HourAnimal returns the animal of the two-hour block. 23:00-00:59 is Rat.
func HourAnimal(hour int) Animal {
	return animals[mod((hour+1)/2, 12)]
}

// LuckyNumbers combines the element's He Tu pair with one animal number.
func LuckyNumbers(e Element, a Animal) []int {
	seen := map[int]bool{}
	var out []int
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	if pair, ok := elementNumbers[e]; ok {
		add(pair[0])
		add(pair[1])
	}
	if idx := a.Index(); idx >= 0 {
		add(idx%9 + 1)
	}

	sort.Ints(out)
	return out
}

// LuckyColors returns the colors associated with the element.
func LuckyColors(e Element) []string {
	colors := elementColors[e]
	out := make([]string, len(colors))
	copy(out, colors)
	return out
}

// LuckyDirection returns the compass direction of the animal's branch.
func LuckyDirection(a Animal) string {
	if idx := a.Index(); idx >= 0 {
		return branchDirections[idx]
	}
	return ""
}

// elementBalance counts year, month, day and hour elements. Ties go to the
// year element, then to generating-cycle order.
func elementBalance(c *Chart, hour *int) (map[Element]int, Element) {
	balance := make(map[Element]int, len(Elements))
	for _, e := range Elements {
		balance[e] = 0
	}

	balance[c.YearPillar.Element]++
	balance[branchElements[mod(c.Animal.Index(), 12)]]++
	balance[c.MonthElement]++
	balance[c.DayPillar.Element]++
	balance[branchElements[mod(c.DayPillar.Animal.Index(), 12)]]++
	if hour != nil {
		balance[branchElements[mod((*hour+1)/2, 12)]]++
	}

	dominant := c.Element
	for _, e := range Elements {
		if balance[e] > balance[dominant] {
			dominant = e
		}
	}
	return balance, dominant
}
