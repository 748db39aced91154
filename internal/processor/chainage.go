package processor

import (
	"github.com/woozymasta/chainage/internal/chainage"

	"github.com/rs/zerolog/log"
)

// AddChainage reads the routes in input, places chainage markers and writes
// the routes followed by their markers to output. When table is not empty the
// markers are also written there as a chainage table.
func AddChainage(input, output, table string, opts chainage.Options, s Settings) (*chainage.Result, error) {
	fc, err := ReadCollection(input)
	if err != nil {
		return nil, err
	}

	res, err := chainage.Generate(fc, opts, nil)
	if err != nil {
		return nil, err
	}

	// encode everything before the first write
	outs := make([]pending, 0, 2)
	data, err := EncodeCollection(DetectFormat(output), res.Collection(fc), s)
	if err != nil {
		return nil, err
	}
	outs = append(outs, pending{path: output, data: data})

	if table != "" {
		data, err := EncodeTable(table, chainage.Table(res.Markers), s)
		if err != nil {
			return nil, err
		}
		outs = append(outs, pending{path: table, data: data})
	}

	if err := writeFiles(outs...); err != nil {
		return nil, err
	}

	log.Info().
		Str("input", input).
		Str("output", output).
		Int("features", len(fc.Features)).
		Int("markers", len(res.Markers)).
		Msg("Chainage markers added")

	return res, nil
}
