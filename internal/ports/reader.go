package ports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/bazi-reading/internal/domain"
	"github.com/quentinrf/bazi-reading/internal/prompt"
)

// Reader computes the chart for a birth input and asks the analyst for the
// written reading
type Reader struct {
	analyst Analyst
}

// NewReader creates a reader backed by analyst
func NewReader(analyst Analyst) *Reader {
	return &Reader{analyst: analyst}
}

// Read validates the input, renders the prompt and calls the analyst.
// Validation failures are returned unwrapped so callers can map them to 400.
func (r *Reader) Read(ctx context.Context, in domain.BirthInput, language string) (*domain.Reading, error) {
	chart, err := domain.NewChart(in)
	if err != nil {
		return nil, err
	}

	p, err := prompt.Build(in, chart, language)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	start := time.Now()
	text, err := r.analyst.CompleteWithSystem(ctx, p.System, p.User)
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", r.analyst.Provider(), err)
	}

	reading := &domain.Reading{
		Chart:     chart,
		Text:      strings.TrimSpace(text),
		Provider:  r.analyst.Provider(),
		Model:     r.analyst.Model(),
		CreatedAt: time.Now().UTC(),
	}

	log.Info().
		Str("provider", reading.Provider).
		Str("model", reading.Model).
		Str("element", string(chart.Element)).
		Str("animal", string(chart.Animal)).
		Int("words", reading.WordCount()).
		Dur("took", time.Since(start)).
		Msg("generated reading")

	return reading, nil
}
