// Package menu implements the interactive text menu of geotool.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/woozymasta/chainage/internal/chainage"
	"github.com/woozymasta/chainage/internal/processor"

	"github.com/rs/zerolog/log"
)

// errQuit ends the menu loop.
var errQuit = errors.New("quit")

// Converter turns a KML file into a directory of GeoJSON files.
type Converter interface {
	Run(ctx context.Context, kmlPath string) (string, error)
}

// Menu is the interactive loop. All collaborators are injected so the menu
// can be driven from tests.
type Menu struct {
	in  *bufio.Scanner
	out io.Writer

	Converter Converter
	Chainage  chainage.Options
	Normalize chainage.NormalizeOptions
	Settings  processor.Settings
}

type action struct {
	key   string
	title string
	run   func(ctx context.Context) error
}

// New returns a menu reading answers from in and printing prompts to out.
func New(in io.Reader, out io.Writer, conv Converter) *Menu {
	return &Menu{
		in:        bufio.NewScanner(in),
		out:       out,
		Converter: conv,
		Chainage:  chainage.DefaultOptions(),
		Normalize: chainage.NormalizeOptions{Property: chainage.DefaultProperty, Drop: chainage.DefaultDropProperties},
		Settings:  processor.DefaultSettings(),
	}
}

func (m *Menu) actions() []action {
	return []action{
		{"1", "Convert KML to GeoJSON", m.kmlToGeoJSON},
		{"2", "Convert GeoJSON to KML", m.geoJSONToKML},
		{"3", "Add chainage markers to GeoJSON", m.addChainage},
		{"4", "Optimize chainage number system", m.optimize},
		{"5", "Quit", func(context.Context) error { return errQuit }},
	}
}

// Run shows the menu until the user quits or the input ends.
// Failed actions are logged and the menu is shown again.
func (m *Menu) Run(ctx context.Context) error {
	actions := m.actions()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(m.out, "\nChoose an option:")
		for _, a := range actions {
			_, _ = fmt.Fprintf(m.out, "%s. %s\n", a.key, a.title)
		}

		choice, ok := m.ask("Enter your choice: ")
		if !ok {
			return m.in.Err()
		}

		var selected *action
		for i := range actions {
			if actions[i].key == choice {
				selected = &actions[i]
				break
			}
		}
		if selected == nil {
			log.Error().Str("choice", choice).Msg("Invalid choice, please choose a valid option")
			continue
		}

		err := selected.run(ctx)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			log.Error().Err(err).Str("action", selected.title).Msg("Action failed")
		}
	}
}

// ask prints prompt and returns the trimmed answer, false once input ends.
func (m *Menu) ask(prompt string) (string, bool) {
	_, _ = fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

// askFile asks for a path and checks it exists.
func (m *Menu) askFile(prompt string) (string, error) {
	path, ok := m.ask(prompt)
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found: %s", path)
	}
	return path, nil
}

func (m *Menu) kmlToGeoJSON(ctx context.Context) error {
	path, err := m.askFile("Enter the path to the KML: ")
	if err != nil {
		return err
	}

	dir, err := m.Converter.Run(ctx, path)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(m.out, "GeoJSON directory generated: %s\n", dir)
	return nil
}

func (m *Menu) geoJSONToKML(context.Context) error {
	path, err := m.askFile("Enter the path to the GeoJSON: ")
	if err != nil {
		return err
	}

	return m.toKML(path)
}

func (m *Menu) toKML(path string) error {
	out := processor.SwapExt(path, ".kml")
	if _, err := processor.ConvertFile(path, out, m.Settings); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(m.out, "Successfully converted %s to %s\n", path, out)
	return nil
}

func (m *Menu) addChainage(context.Context) error {
	input, err := m.askFile("Enter the input path to the GeoJSON: ")
	if err != nil {
		return err
	}
	output, ok := m.ask("Enter the output path to the GeoJSON: ")
	if !ok || output == "" {
		return errors.New("output path is required")
	}

	res, err := processor.AddChainage(input, output, "", m.Chainage, m.Settings)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(m.out, "Chainage markers added (%d) and saved to %s\n", len(res.Markers), output)
	return nil
}

func (m *Menu) optimize(context.Context) error {
	input, err := m.askFile("Enter the input path to the GeoJSON: ")
	if err != nil {
		return err
	}
	output, ok := m.ask("Enter the output path to the GeoJSON: ")
	if !ok || output == "" {
		return errors.New("output path is required")
	}

	report, err := processor.NormalizeFile(input, output, m.Normalize, m.Settings)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(m.out, "Chainage optimization completed (%d labels changed). Output saved to %s\n", report.Changed, output)

	answer, _ := m.ask("Do you want to convert the output to KML? (yes/no): ")
	switch strings.ToLower(answer) {
	case "yes", "y":
		return m.toKML(output)
	}

	_, _ = fmt.Fprintln(m.out, "Optimization complete. Check the optimized GeoJSON output.")
	return nil
}
