// Package prompt renders the instructions sent to the language model for a
// personalized Four Pillars reading.
package prompt

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/quentinrf/bazi-reading/internal/domain"
)

// DefaultLanguage is used when the request does not name one.
const DefaultLanguage = "English"

// Prompt is a system/user message pair.
type Prompt struct {
	System string
	User   string
}

// Sections the model must produce, in order. The PDF renderer turns each
// "## " line into a heading.
var Sections = []string{
	"Your Core Nature",
	"Element Balance",
	"Love & Relationships",
	"Career & Wealth",
	"Health & Wellbeing",
	"Life Path Number",
	"The Year Ahead",
	"Lucky Guidance",
}

const systemText = `You are a warm, insightful master of Chinese Four Pillars (BaZi) astrology and numerology.
Write in {{.Language}}. Address the reader directly as "you"{{if .Name}} and by their name, {{.Name}}, in the opening{{end}}.
Structure the reading with exactly these section headings, each on its own line starting with "## ":
{{range .Sections}}- {{.}}
{{end}}
Each section is two to four paragraphs of flowing prose. No bullet lists, no tables, no markdown other than the headings.
Stay positive and practical. Never give medical, legal or financial advice; frame guidance as reflection.`

const userText = `Please write a complete personalized reading for this birth chart.

Birth date: {{.Date}}{{if .Hour}} at {{.Hour}}:00{{end}}
Year pillar: {{.Chart.YearPillar}} ({{.Chart.Polarity}} {{.Chart.Element}} {{.Chart.Animal}})
Core element: {{.Chart.Element}} - {{.ElementTraits}}
Zodiac animal: {{.Chart.Animal}} - {{.AnimalTraits}}
Month element: {{.Chart.MonthElement}}
Day pillar: {{.Chart.DayPillar}} (day master {{.Chart.DayElement}})
{{- if .Chart.HourAnimal}}
Hour animal: {{.Chart.HourAnimal}}
{{- end}}
Element balance: {{.Balance}}
Dominant element: {{.Chart.Dominant}}
Life path number: {{.Chart.LifePath}}
Lucky numbers: {{.LuckyNumbers}}
Lucky colors: {{.LuckyColors}}
Lucky direction: {{.Chart.LuckyDirection}}
{{- if .Situation}}
Current situation: the reader is {{.Situation}}. Give the Love & Relationships and Career & Wealth sections extra attention to this.
{{- end}}`

var (
	systemTmpl = template.Must(template.New("system").Parse(systemText))
	userTmpl   = template.Must(template.New("user").Parse(userText))
)

type view struct {
	Language      string
	Name          string
	Sections      []string
	Date          string
	Hour          string
	Chart         *domain.Chart
	ElementTraits string
	AnimalTraits  string
	Balance       string
	LuckyNumbers  string
	LuckyColors   string
	Situation     string
}

// Build renders the prompt pair for a birth input and its chart.
func Build(in domain.BirthInput, chart *domain.Chart, language string) (Prompt, error) {
	if chart == nil {
		return Prompt{}, fmt.Errorf("chart is required")
	}
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}

	v := view{
		Language:      language,
		Name:          strings.TrimSpace(in.Name),
		Sections:      Sections,
		Date:          in.Date().Format("January 2, 2006"),
		Chart:         chart,
		ElementTraits: chart.Element.Traits(),
		AnimalTraits:  chart.Animal.Traits(),
		Balance:       formatBalance(chart.Balance),
		LuckyNumbers:  joinInts(chart.LuckyNumbers),
		LuckyColors:   strings.Join(chart.LuckyColors, ", "),
		Situation:     in.Situation.Label(),
	}
	if in.Hour != nil {
		v.Hour = fmt.Sprintf("%02d", *in.Hour)
	}

	var sys, user bytes.Buffer
	if err := systemTmpl.Execute(&sys, v); err != nil {
		return Prompt{}, fmt.Errorf("render system prompt: %w", err)
	}
	if err := userTmpl.Execute(&user, v); err != nil {
		return Prompt{}, fmt.Errorf("render user prompt: %w", err)
	}

	return Prompt{System: sys.String(), User: user.String()}, nil
}

func formatBalance(balance map[domain.Element]int) string {
	parts := make([]string, 0, len(balance))
	for _, e := range domain.Elements {
		parts = append(parts, fmt.Sprintf("%s %d", e, balance[e]))
	}
	return strings.Join(parts, ", ")
}

func joinInts(nums []int) string {
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
