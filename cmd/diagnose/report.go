package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robert-malhotra/go-sciio/internal/dtype"
	"github.com/robert-malhotra/go-sciio/sciio"
)

type styles struct {
	title lipgloss.Style
	key   lipgloss.Style
	value lipgloss.Style
	err   lipgloss.Style
	faint lipgloss.Style
}

func colorStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		key:   lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		value: lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		faint: lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func plainStyles() styles {
	s := lipgloss.NewStyle()
	return styles{title: s, key: s, value: s, err: s, faint: s}
}

type reportOptions struct {
	stats     bool
	maxPlanes int64
	table     bool
}

// report prints the metadata of r and optionally per-plane statistics.
func report(w io.Writer, r sciio.AnyReader, st styles, opts reportOptions) error {
	m, ok := r.Metadata()
	if !ok {
		return sciio.ErrNoSource
	}

	line := func(indent, k string, v any) {
		fmt.Fprintf(w, "%s%s %s\n", indent, st.key.Render(k+":"), st.value.Render(fmt.Sprint(v)))
	}

	fmt.Fprintln(w, st.title.Render(fmt.Sprintf("%s (%s)", m.DatasetName(), m.FormatName())))
	line("", "Files", strings.Join(m.UsedFiles(), ", "))
	line("", "Payload", m.SourceLocation())
	line("", "Images", m.ImageCount())

	for i, img := range m.Images() {
		fmt.Fprintf(w, "  %s\n", st.key.Render(fmt.Sprintf("Image %d", i)))
		axes := make([]string, 0, img.AxisCount())
		for _, a := range img.Axes() {
			axes = append(axes, a.String())
		}
		line("    ", "Axes", strings.Join(axes, " "))
		line("    ", "Pixel type", fmt.Sprintf("%s %s", img.PixelType(), img.ByteOrder()))
		line("    ", "Interleaved axes", img.InterleavedAxisCount())
		line("    ", "Planes", fmt.Sprintf("%d of %d bytes", img.PlaneCount(), img.PlaneBytes()))
		if !img.OrderCertain() {
			fmt.Fprintf(w, "    %s\n", st.faint.Render("axis order uncertain"))
		}

		if !opts.stats {
			continue
		}
		n := min(img.PlaneCount(), opts.maxPlanes)
		for p := range n {
			plane, err := r.OpenPlane(i, p)
			if err != nil {
				return err
			}
			values, err := sciio.Samples(plane)
			if err != nil {
				return err
			}
			s := dtype.Summarize(values)
			line("    ", fmt.Sprintf("Plane %d", p),
				fmt.Sprintf("min=%g max=%g mean=%.4g stddev=%.4g", s.Min, s.Max, s.Mean, s.StdDev))
		}
		if n < img.PlaneCount() {
			fmt.Fprintf(w, "    %s\n", st.faint.Render(fmt.Sprintf("%d more planes", img.PlaneCount()-n)))
		}
	}

	if opts.table {
		t := m.Table()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		fmt.Fprintf(w, "  %s\n", st.key.Render("Header"))
		for _, k := range keys {
			line("    ", k, t[k])
		}
	}
	return nil
}
