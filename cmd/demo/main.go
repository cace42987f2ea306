package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/kass/go-geo-hatch/pkg/hatch"
	"github.com/kass/go-geo-hatch/pkg/lineindex"
	"github.com/kass/go-geo-hatch/pkg/models"
)

// Config structure for YAML configuration
type Config struct {
	Demo struct {
		Field struct {
			CenterLat float64 `yaml:"center_lat"`
			CenterLon float64 `yaml:"center_lon"`
			RadiusKm  float64 `yaml:"radius_km"`
			Vertices  int     `yaml:"vertices"`
		} `yaml:"field"`
		Spacings []float64 `yaml:"spacings"`
		Bearing  float64   `yaml:"bearing"`
		Offset   float64   `yaml:"offset"`
	} `yaml:"demo"`
}

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1).
			MarginTop(1).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))
)

type stage int

const (
	stagePlanar stage = iota
	stagePlanarComplete
	stageGeodesic
	stageGeodesicComplete
	stageIndexing
	stageDone
)

type hatchStats struct {
	runs     int
	segments int
	duration time.Duration
}

type indexStats struct {
	count       int64
	boxHits     int
	radiusHits  int
	nearestHits int
	duration    time.Duration
}

type model struct {
	stage           stage
	spinner         spinner.Model
	progress        progress.Model
	progressPercent float64

	planarStats   hatchStats
	geodesicStats hatchStats
	idxStats      indexStats

	messages []string
	width    int
	height   int
}

type progressMsg float64
type stageStartMsg stage
type stageCompleteMsg struct {
	stage stage
	stats interface{}
}
type messageMsg string

func initialModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	p := progress.New(progress.WithDefaultGradient())

	return model{
		stage:    stagePlanar,
		spinner:  s,
		progress: p,
		messages: []string{},
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		m.progressPercent = float64(msg)
		return m, m.progress.SetPercent(float64(msg))

	case messageMsg:
		m.messages = append(m.messages, string(msg))
		if len(m.messages) > 5 {
			m.messages = m.messages[1:]
		}
		return m, nil

	case stageStartMsg:
		m.stage = stage(msg)
		m.progressPercent = 0
		return m, m.progress.SetPercent(0)

	case stageCompleteMsg:
		switch msg.stage {
		case stagePlanar:
			if stats, ok := msg.stats.(hatchStats); ok {
				m.planarStats = stats
			}
			m.stage = stagePlanarComplete
		case stageGeodesic:
			if stats, ok := msg.stats.(hatchStats); ok {
				m.geodesicStats = stats
			}
			m.stage = stageGeodesicComplete
		case stageIndexing:
			if stats, ok := msg.stats.(indexStats); ok {
				m.idxStats = stats
			}
			m.stage = stageDone
		}
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🌍 Geo-Hatch Demo"))
	b.WriteString("\n\n")

	switch m.stage {
	case stagePlanar:
		b.WriteString(subtitleStyle.Render("Planar Hatching"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Generating plans with planar fidelity...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stagePlanarComplete:
		b.WriteString(renderHatchStats("Planar Hatching", m.planarStats))

	case stageGeodesic:
		b.WriteString(subtitleStyle.Render("Geodesic Hatching"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Generating plans with geodesic fidelity...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageGeodesicComplete:
		b.WriteString(renderHatchStats("Geodesic Hatching", m.geodesicStats))

	case stageIndexing:
		b.WriteString(subtitleStyle.Render("Indexing the Plan"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Building R-Tree index and running queries...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageDone:
		b.WriteString(renderSummary(m))
	}

	if len(m.messages) > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Recent activity:"))
		b.WriteString("\n")
		for _, msg := range m.messages {
			b.WriteString(dimStyle.Render("• " + msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Press 'q' to quit"))

	return b.String()
}

func renderHatchStats(title string, stats hatchStats) string {
	content := fmt.Sprintf(
		"✓ Plans generated: %s\n"+
			"✓ Segments emitted: %s\n"+
			"✓ Total time: %s\n"+
			"✓ Segments per second: %s",
		statStyle.Render(fmt.Sprintf("%d", stats.runs)),
		statStyle.Render(fmt.Sprintf("%d", stats.segments)),
		statStyle.Render(stats.duration.String()),
		statStyle.Render(fmt.Sprintf("%.0f", float64(stats.segments)/stats.duration.Seconds())),
	)

	return boxStyle.Render(successStyle.Render(title+" Complete!\n\n") + content)
}

func renderSummary(m model) string {
	summary := titleStyle.Render("🎉 Demo Complete!")
	summary += "\n\n"

	summary += infoStyle.Render("The hatching pipeline demonstrated:")
	summary += "\n\n"

	features := []string{
		fmt.Sprintf("• Planar sweeps: %s segments", statStyle.Render(fmt.Sprintf("%d", m.planarStats.segments))),
		fmt.Sprintf("• Geodesic sweeps: %s segments", statStyle.Render(fmt.Sprintf("%d", m.geodesicStats.segments))),
		fmt.Sprintf("• R-Tree queries over %s indexed segments", statStyle.Render(fmt.Sprintf("%d", m.idxStats.count))),
	}

	for _, feature := range features {
		summary += successStyle.Render(feature) + "\n"
	}

	summary += "\n"
	summary += boxStyle.Render(
		infoStyle.Render("Query Results:\n\n") +
			fmt.Sprintf("Bounding box hits: %s\n", statStyle.Render(fmt.Sprintf("%d", m.idxStats.boxHits))) +
			fmt.Sprintf("Radius hits: %s\n", statStyle.Render(fmt.Sprintf("%d", m.idxStats.radiusHits))) +
			fmt.Sprintf("Nearest found: %s\n", statStyle.Render(fmt.Sprintf("%d", m.idxStats.nearestHits))) +
			fmt.Sprintf("Index time: %s", statStyle.Render(m.idxStats.duration.String())),
	)

	return summary
}

func loadConfig() (Config, error) {
	var config Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		// Fall back to the checked-in example
		data, err = os.ReadFile("config.yaml.example")
		if err != nil {
			return config, fmt.Errorf("config.yaml not found. Please copy config.yaml.example to config.yaml")
		}
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// fieldRing builds the demo's test polygon: a convex field boundary with
// vertices on a circle around the configured center.
func fieldRing(cfg Config) models.Ring {
	r := rand.New(rand.NewSource(1))
	vertices := cfg.Demo.Field.Vertices
	if vertices < 4 {
		vertices = 16
	}

	angles := make([]float64, vertices)
	for i := range angles {
		angles[i] = r.Float64() * 2 * math.Pi
	}
	sort.Float64s(angles)

	radiusDeg := cfg.Demo.Field.RadiusKm / 111.0
	ring := make(models.Ring, vertices)
	for i, angle := range angles {
		ring[i] = models.GeoPoint{
			Lon: cfg.Demo.Field.CenterLon + radiusDeg*math.Cos(angle)/math.Cos(cfg.Demo.Field.CenterLat*math.Pi/180),
			Lat: cfg.Demo.Field.CenterLat + radiusDeg*math.Sin(angle),
		}
	}
	return ring
}

var program *tea.Program

func executeDemo(cfg Config) {
	ring := fieldRing(cfg)

	var lastPlan []models.Segment
	runSweeps := func(st stage, fidelity models.Fidelity) hatchStats {
		program.Send(stageStartMsg(st))
		stats := hatchStats{}
		start := time.Now()
		for i, spacing := range cfg.Demo.Spacings {
			params := models.Params{
				Spacing:  spacing,
				Bearing:  cfg.Demo.Bearing,
				Offset:   cfg.Demo.Offset,
				Fidelity: fidelity,
			}
			segments, err := hatch.Generate(ring, params)
			if err != nil {
				program.Send(messageMsg(fmt.Sprintf("Generate error at spacing %.0f: %v", spacing, err)))
				continue
			}
			stats.runs++
			stats.segments += len(segments)
			lastPlan = segments
			program.Send(messageMsg(fmt.Sprintf("%s spacing %.0fm: %d segments", fidelity, spacing, len(segments))))
			program.Send(progressMsg(float64(i+1) / float64(len(cfg.Demo.Spacings))))
		}
		stats.duration = time.Since(start)
		program.Send(stageCompleteMsg{stage: st, stats: stats})
		return stats
	}

	runSweeps(stagePlanar, models.FidelityPlanar)
	time.Sleep(time.Second)
	runSweeps(stageGeodesic, models.FidelityGeodesic)
	time.Sleep(time.Second)

	// Index the finest geodesic plan and query it
	program.Send(stageStartMsg(stageIndexing))
	start := time.Now()
	index := lineindex.NewSegmentIndex()
	if err := index.IndexSegments(lastPlan); err != nil {
		program.Send(messageMsg(fmt.Sprintf("Indexing error: %v", err)))
	}
	program.Send(progressMsg(0.4))

	center := models.GeoPoint{Lon: cfg.Demo.Field.CenterLon, Lat: cfg.Demo.Field.CenterLat}
	radiusDeg := cfg.Demo.Field.RadiusKm / 111.0
	box := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: center.Lon - radiusDeg, Lat: center.Lat - radiusDeg/2},
		TopRight:   models.GeoPoint{Lon: center.Lon + radiusDeg, Lat: center.Lat + radiusDeg/2},
	}
	boxHits, _ := index.QueryBox(box)
	program.Send(progressMsg(0.6))
	radiusHits, _ := index.QueryRadius(center, cfg.Demo.Field.RadiusKm*500)
	program.Send(progressMsg(0.8))
	nearestHits := index.Nearest(center, 10)
	program.Send(progressMsg(1.0))

	program.Send(stageCompleteMsg{
		stage: stageIndexing,
		stats: indexStats{
			count:       index.Count(),
			boxHits:     len(boxHits),
			radiusHits:  len(radiusHits),
			nearestHits: len(nearestHits),
			duration:    time.Since(start),
		},
	})
}

func printSummary(m model) {
	colorReset := "\033[0m"
	colorGreen := "\033[32m"
	colorBold := "\033[1m"
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		colorReset = ""
		colorGreen = ""
		colorBold = ""
	}

	fmt.Printf("\n%sGeo-Hatch demo summary%s\n", colorBold, colorReset)
	fmt.Printf("%s✓%s Planar: %d plans, %d segments in %v\n",
		colorGreen, colorReset, m.planarStats.runs, m.planarStats.segments, m.planarStats.duration)
	fmt.Printf("%s✓%s Geodesic: %d plans, %d segments in %v\n",
		colorGreen, colorReset, m.geodesicStats.runs, m.geodesicStats.segments, m.geodesicStats.duration)
	fmt.Printf("%s✓%s Indexed %d segments; box=%d radius=%d nearest=%d\n",
		colorGreen, colorReset, m.idxStats.count, m.idxStats.boxHits,
		m.idxStats.radiusHits, m.idxStats.nearestHits)
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	program = tea.NewProgram(initialModel())

	go executeDemo(cfg)

	finalModel, err := program.Run()
	if err != nil {
		log.Fatal(err)
	}

	if m, ok := finalModel.(model); ok {
		printSummary(m)
	}
}
