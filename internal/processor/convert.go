package processor

import (
	"github.com/rs/zerolog/log"
)

// ConvertFile converts between GeoJSON and KML, the direction following the
// file extensions. It returns the number of features read.
func ConvertFile(input, output string, s Settings) (int, error) {
	fc, err := ReadCollection(input)
	if err != nil {
		return 0, err
	}

	if err := WriteCollection(output, fc, s); err != nil {
		return 0, err
	}

	log.Info().
		Str("input", input).
		Str("output", output).
		Str("from", DetectFormat(input).String()).
		Str("to", DetectFormat(output).String()).
		Int("features", len(fc.Features)).
		Msg("File converted")

	return len(fc.Features), nil
}
