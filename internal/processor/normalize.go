package processor

import (
	"github.com/woozymasta/chainage/internal/chainage"

	"github.com/rs/zerolog/log"
)

// NormalizeFile normalizes the chainage labels of a feature collection or a
// chainage table and writes the result to output. Malformed labels are
// reported in the returned report and do not fail the run.
func NormalizeFile(input, output string, opts chainage.NormalizeOptions, s Settings) (chainage.NormalizeReport, error) {
	table, err := isTable(input)
	if err != nil {
		return chainage.NormalizeReport{}, err
	}

	var report chainage.NormalizeReport
	var data []byte

	if table {
		rows, err := ReadTable(input)
		if err != nil {
			return report, err
		}
		if len(rows) == 0 {
			return report, &chainage.EmptyInputError{}
		}
		report = chainage.NormalizeTable(rows)
		if data, err = EncodeTable(output, rows, s); err != nil {
			return report, err
		}
	} else {
		fc, err := ReadCollection(input)
		if err != nil {
			return report, err
		}
		if len(fc.Features) == 0 {
			return report, &chainage.EmptyInputError{}
		}
		report = chainage.NormalizeCollection(fc, opts)
		if data, err = EncodeCollection(DetectFormat(output), fc, s); err != nil {
			return report, err
		}
	}

	if err := writeFile(output, data); err != nil {
		return report, err
	}

	log.Info().
		Str("input", input).
		Str("output", output).
		Int("changed", report.Changed).
		Msg("Chainage optimization completed")

	return report, nil
}
