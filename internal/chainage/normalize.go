package chainage

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Label pattern captures: 1=km, 2=meters. Trailing text is kept as is.
var labelPattern = regexp.MustCompile(`^(\d+)\+(\d+)`)

// DefaultDropProperties are removed from records by the optimizer before
// labels are normalized.
var DefaultDropProperties = []string{"name", "styleUrl"}

// NormalizeLabel bumps labels ending in 99 meters to the next hundred:
// "12+099" becomes "12+100", "12+999" becomes "13+000". A meter part written
// as exactly "99" is read as the last meter before the next kilometer, so
// "12+99" becomes "13+000". Other labels are returned unchanged.
func NormalizeLabel(label string) (string, error) {
	match := labelPattern.FindStringSubmatch(label)
	if match == nil {
		return label, ErrMalformedLabel
	}

	km, err := strconv.Atoi(match[1])
	if err != nil {
		return label, fmt.Errorf("%w: %v", ErrMalformedLabel, err)
	}
	m, err := strconv.Atoi(match[2])
	if err != nil {
		return label, fmt.Errorf("%w: %v", ErrMalformedLabel, err)
	}
	rest := label[len(match[0]):]

	switch {
	case match[2] == "99":
		km++
		m = 0
	case m%100 == 99:
		m++
		km += m / 1000
		m %= 1000
	default:
		return label, nil
	}

	return fmt.Sprintf("%d+%03d%s", km, m, rest), nil
}

// NormalizeOptions configures a normalization pass.
type NormalizeOptions struct {
	// Property holding the label, defaults to "chainage".
	Property string
	// Drop lists properties removed from every record.
	Drop []string
	// SkipUnlabeled counts features without the property in
	// NormalizeReport.Unlabeled instead of reporting them as malformed.
	// Route features of a generated collection never carry a label.
	SkipUnlabeled bool
}

// NormalizeReport summarizes a normalization pass.
type NormalizeReport struct {
	Records int
	Changed int
	// Unlabeled counts features skipped for lacking the property.
	Unlabeled   int
	Diagnostics []MalformedLabelWarning
}

// NormalizeCollection rewrites the labels of every feature in fc in place.
// Records without a usable label are left untouched and reported.
func NormalizeCollection(fc *geojson.FeatureCollection, opts NormalizeOptions) NormalizeReport {
	property := opts.Property
	if property == "" {
		property = DefaultProperty
	}

	report := NormalizeReport{Records: len(fc.Features)}
	for i, f := range fc.Features {
		for _, key := range opts.Drop {
			delete(f.Properties, key)
		}

		raw, ok := f.Properties[property]
		if !ok && opts.SkipUnlabeled {
			log.Debug().Int("record", i).Msg("Feature has no label, skipped")
			report.Unlabeled++
			continue
		}
		if !ok || raw == nil {
			report.warn(MalformedLabelWarning{Index: i, Value: raw, Reason: "label missing"})
			continue
		}
		label, ok := raw.(string)
		if !ok {
			report.warn(MalformedLabelWarning{Index: i, Value: raw, Reason: "label is not a string"})
			continue
		}

		if normalized, changed := report.apply(i, label); changed {
			f.Properties[property] = normalized
		}
	}

	log.Info().
		Int("records", report.Records).
		Int("changed", report.Changed).
		Int("unlabeled", report.Unlabeled).
		Int("warnings", len(report.Diagnostics)).
		Msg("Chainage normalization completed")

	return report
}

// NormalizeTable rewrites the labels of a marker table in place.
func NormalizeTable(rows []TableRow) NormalizeReport {
	report := NormalizeReport{Records: len(rows)}
	for i := range rows {
		if rows[i].Label == "" {
			report.warn(MalformedLabelWarning{Index: i, Value: rows[i].Label, Reason: "label missing"})
			continue
		}
		if normalized, changed := report.apply(i, rows[i].Label); changed {
			rows[i].Label = normalized
		}
	}

	log.Info().
		Int("records", report.Records).
		Int("changed", report.Changed).
		Int("warnings", len(report.Diagnostics)).
		Msg("Chainage table normalization completed")

	return report
}

func (r *NormalizeReport) apply(index int, label string) (string, bool) {
	normalized, err := NormalizeLabel(label)
	if err != nil {
		r.warn(MalformedLabelWarning{Index: index, Value: label, Reason: "label does not match {km}+{m}"})
		return label, false
	}
	if normalized == label {
		return label, false
	}

	log.Debug().
		Int("record", index).
		Str("from", label).
		Str("to", normalized).
		Msg("Chainage normalized")

	r.Changed++
	return normalized, true
}

func (r *NormalizeReport) warn(w MalformedLabelWarning) {
	log.Warn().
		Int("record", w.Index).
		Interface("value", w.Value).
		Msg(w.Reason)
	r.Diagnostics = append(r.Diagnostics, w)
}
