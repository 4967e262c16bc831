package domain

import "time"

// Reading is a generated text reading together with the chart it describes
type Reading struct {
	Chart     *Chart
	Text      string
	Provider  string
	Model     string
	CreatedAt time.Time
}

// WordCount returns a rough word count of the reading text.
func (r *Reading) WordCount() int {
	count := 0
	inWord := false
	for _, c := range r.Text {
		space := c == ' ' || c == '\n' || c == '\t' || c == '\r'
		if !space && !inWord {
			count++
		}
		inWord = !space
	}
	return count
}
