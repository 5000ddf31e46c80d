package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/star/satplot/internal/basemap"
	"github.com/star/satplot/internal/groundtrack"
)

// ErrNoTerminal is returned when the terminal renderer is asked to run
// without an interactive terminal on stdout.
var ErrNoTerminal = errors.New("terminal renderer requires an interactive terminal")

const (
	glyphOcean = ' '
	glyphLand  = '░'
	glyphGrid  = '·'
	glyphTrack = '•'

	colorOcean = "236"
	colorLand  = "101"
	colorGrid  = "60"
	colorTrack = "46" // green
)

// MapModel is the bubbletea model for the terminal map.
type MapModel struct {
	width  int
	height int

	track *groundtrack.Track
	land  *basemap.Land

	showGrid bool
	showLand bool
}

// NewMapModel builds a model showing track over land.
func NewMapModel(track *groundtrack.Track, land *basemap.Land) MapModel {
	return MapModel{
		track:    track,
		land:     land,
		showGrid: true,
		showLand: true,
	}
}

// SetSize updates the viewport size.
func (m MapModel) SetSize(width, height int) MapModel {
	m.width = width
	m.height = height
	return m
}

// Init implements tea.Model.
func (m MapModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m MapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.showGrid = !m.showGrid
		case "b":
			m.showLand = !m.showLand
		}
	case tea.WindowSizeMsg:
		m = m.SetSize(msg.Width, msg.Height)
	}
	return m, nil
}

// View implements tea.Model.
func (m MapModel) View() string {
	if m.width < 20 || m.height < 8 {
		return "Map view requires larger terminal"
	}

	// Header and status take one line each.
	canvasHeight := m.height - 2

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCanvas(m.width, canvasHeight))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m MapModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorGrid))

	name := "ground track"
	if m.track != nil && m.track.Satellite != "" {
		name = m.track.Satellite
	}
	return fmt.Sprintf("%s | %s", titleStyle.Render(name), dimStyle.Render("q quit  g grid  b basemap"))
}

func (m MapModel) renderStatus() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorGrid))
	if m.track == nil || m.track.Len() == 0 {
		return dimStyle.Render("no samples")
	}

	first := m.track.Points[0]
	last := m.track.Points[m.track.Len()-1]
	bounds := m.track.Bounds()
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color(colorTrack))
	return accent.Render(fmt.Sprintf("%d samples", m.track.Len())) + dimStyle.Render(fmt.Sprintf(
		" | %s → %s | lat %.1f°..%.1f°",
		first.Time.UTC().Format("2006-01-02 15:04"),
		last.Time.UTC().Format("2006-01-02 15:04"),
		bounds.MinLat, bounds.MaxLat,
	))
}

// renderCanvas draws an equirectangular map, one cell per rune.
func (m MapModel) renderCanvas(width, height int) string {
	canvas := make([][]rune, height)
	colors := make([][]string, height)
	for y := 0; y < height; y++ {
		canvas[y] = make([]rune, width)
		colors[y] = make([]string, width)
		lat := maxLat - (float64(y)+0.5)*(maxLat-minLat)/float64(height)
		for x := 0; x < width; x++ {
			canvas[y][x] = glyphOcean
			colors[y][x] = colorOcean
			if m.showLand && !m.land.Empty() {
				lon := minLon + (float64(x)+0.5)*(maxLon-minLon)/float64(width)
				if m.land.Contains(lon, lat) {
					canvas[y][x] = glyphLand
					colors[y][x] = colorLand
				}
			}
		}
	}

	if m.showGrid {
		for lon := minLon + gridDeg; lon < maxLon; lon += gridDeg {
			x := cellX(lon, width)
			for y := 0; y < height; y++ {
				canvas[y][x] = glyphGrid
				colors[y][x] = colorGrid
			}
		}
		for lat := minLat + gridDeg; lat < maxLat; lat += gridDeg {
			y := cellY(lat, height)
			for x := 0; x < width; x++ {
				canvas[y][x] = glyphGrid
				colors[y][x] = colorGrid
			}
		}
	}

	if m.track != nil {
		for _, p := range m.track.Points {
			x, y := cellX(p.Longitude, width), cellY(p.Latitude, height)
			canvas[y][x] = glyphTrack
			colors[y][x] = colorTrack
		}
	}

	// Style runs of equal colour together.
	var b strings.Builder
	for y := 0; y < height; y++ {
		start := 0
		for x := 1; x <= width; x++ {
			if x < width && colors[y][x] == colors[y][start] {
				continue
			}
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[y][start]))
			b.WriteString(style.Render(string(canvas[y][start:x])))
			start = x
		}
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func cellX(lon float64, width int) int {
	return clamp(int(math.Floor((lon-minLon)/(maxLon-minLon)*float64(width))), width)
}

func cellY(lat float64, height int) int {
	return clamp(int(math.Floor((maxLat-lat)/(maxLat-minLat)*float64(height))), height)
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// TerminalRenderer shows the map full-screen until the user quits.
type TerminalRenderer struct {
	Land *basemap.Land

	isTerminal func() bool
}

// NewTerminalRenderer returns a TerminalRenderer drawing over land.
func NewTerminalRenderer(land *basemap.Land) *TerminalRenderer {
	return &TerminalRenderer{
		Land:       land,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
}

// Render runs the bubbletea program on the calling goroutine. Cancelling
// ctx closes the program.
func (r *TerminalRenderer) Render(ctx context.Context, track *groundtrack.Track) error {
	if r.isTerminal != nil && !r.isTerminal() {
		return ErrNoTerminal
	}

	p := tea.NewProgram(NewMapModel(track, r.Land), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running terminal map: %w", err)
	}
	return nil
}
