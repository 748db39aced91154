package chainage

// TableRow is one line of a chainage table.
type TableRow struct {
	Label string  `yaml:"chainage" json:"chainage"`
	Lon   float64 `yaml:"lon" json:"lon"`
	Lat   float64 `yaml:"lat" json:"lat"`
}

// Table lists markers as table rows, in marker order.
func Table(markers []Marker) []TableRow {
	rows := make([]TableRow, 0, len(markers))
	for _, m := range markers {
		rows = append(rows, TableRow{
			Label: m.Label,
			Lon:   m.Point.Lon(),
			Lat:   m.Point.Lat(),
		})
	}
	return rows
}
