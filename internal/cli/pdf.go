package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quentinrf/bazi-reading/internal/adapters/pdf"
	"github.com/quentinrf/bazi-reading/internal/domain"
	"github.com/quentinrf/bazi-reading/internal/ports"
)

func pdfCmd() *cobra.Command {
	var (
		birth   birthFlags
		reading string
		out     string
		font    string
	)

	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Render a reading text file into the PDF customers receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := birth.input()
			chart, err := domain.NewChart(in)
			if err != nil {
				return err
			}

			text, err := os.ReadFile(reading)
			if err != nil {
				return fmt.Errorf("read reading: %w", err)
			}
			if strings.TrimSpace(string(text)) == "" {
				return domain.ErrEmptyReading
			}

			var opts []pdf.Option
			if font != "" {
				opt, err := pdf.LoadFont(font)
				if err != nil {
					return err
				}
				opts = append(opts, opt)
			}

			renderer := pdf.NewRenderer("bazi", opts...)
			var buf bytes.Buffer
			err = renderer.Render(ports.Document{
				Title:       ports.DocumentTitle,
				Name:        in.Name,
				Birth:       in,
				Chart:       chart,
				Reading:     string(text),
				GeneratedAt: time.Now().UTC(),
			}, &buf)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}

			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			log.Debug().Str("path", out).Int("bytes", buf.Len()).Msg("wrote reading PDF")
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, buf.Len())
			return nil
		},
	}

	birth.register(cmd)
	cmd.Flags().StringVarP(&reading, "reading", "r", "", "Path to the reading text (required)")
	cmd.Flags().StringVar(&out, "out", "reading.pdf", "Output PDF path")
	cmd.Flags().StringVar(&font, "font", "", "TrueType font for scripts the built-in font lacks (e.g. CJK)")
	_ = cmd.MarkFlagRequired("reading")
	return cmd
}
