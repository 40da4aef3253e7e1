// Command ftlmon is a terminal dashboard that polls an FTL's metrics
// registry and renders free-pool occupancy, erase totals, and recent
// garbage-collection activity. It never touches FTL internals directly;
// it only ever reads the Prometheus registry, the same surface an external
// monitoring agent would scrape.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/ftlsim/pkg/device"
	"github.com/dd0wney/ftlsim/pkg/ftl"
	"github.com/dd0wney/ftlsim/pkg/geometry"
	"github.com/dd0wney/ftlsim/pkg/metrics"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#888888")).
			Padding(0, 1).
			MarginRight(1)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	reg      *metrics.Registry
	snap     metrics.Snapshot
	tick     int
	lastErr  error
	wearBar  progress.Model
	maxErase float64
}

func initialModel(reg *metrics.Registry, maxErase uint32) model {
	return model{
		reg:      reg,
		wearBar:  progress.New(progress.WithDefaultGradient()),
		maxErase: float64(maxErase),
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		m.tick++
		snap, err := m.reg.Snapshot()
		m.lastErr = err
		if err == nil {
			m.snap = snap
		}
		return m, tickCmd()
	}
	return m, nil
}

func (m model) View() string {
	header := titleStyle.Render("ftlmon") + fmt.Sprintf("  (tick %d)\n\n", m.tick)

	if m.lastErr != nil {
		return header + errorStyle.Render(m.lastErr.Error()) + "\n"
	}

	pool := boxStyle.Render(fmt.Sprintf(
		"free pool\n%d blocks", int(m.snap.Gauges["ftl_pool_free_blocks"])))
	wear := boxStyle.Render(fmt.Sprintf(
		"wear spread\n%d erases", int(m.snap.Gauges["ftl_wear_spread"])))
	atCap := boxStyle.Render(fmt.Sprintf(
		"at erase cap\n%d blocks", int(m.snap.Gauges["ftl_blocks_at_erase_cap"])))
	erases := boxStyle.Render(fmt.Sprintf(
		"erases issued\n%d", int(m.snap.Counters["ftl_erase_total"])))
	cleans := boxStyle.Render(fmt.Sprintf(
		"clean cycles\n%d", int(m.snap.Counters["ftl_gc_clean_total"])))
	shuffles := boxStyle.Render(fmt.Sprintf(
		"shuffles\n%d", int(m.snap.Counters["ftl_gc_shuffle_total"])))

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, pool, wear, atCap)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, erases, cleans, shuffles)

	var wearRatio float64
	if m.maxErase > 0 {
		wearRatio = m.snap.Gauges["ftl_wear_spread"] / m.maxErase
	}
	bar := "wear spread / erase cap\n" + m.wearBar.ViewAs(wearRatio)

	return header + row1 + "\n" + row2 + "\n\n" + bar + "\n\nq to quit\n"
}

func main() {
	workload := flag.Bool("workload", true, "run a synthetic background workload while monitoring")
	flag.Parse()

	reg := metrics.NewRegistry()

	if *workload {
		go runBackgroundWorkload(reg)
	}

	if _, err := tea.NewProgram(initialModel(reg, 50)).Run(); err != nil {
		log.Fatalf("ftlmon: %v", err)
	}
}

// runBackgroundWorkload drives a small FTL so the dashboard has something
// to show when launched standalone, without a live host attached.
func runBackgroundWorkload(reg *metrics.Registry) {
	geo, err := geometry.New(32, 1, 1, 1, 32, 50, 20)
	if err != nil {
		return
	}
	dev := device.NewSimDevice(4096, geo.BlockSize)
	f := ftl.New(geo, dev, ftl.Options{Metrics: reg, PageSize: 4096})

	rng := rand.New(rand.NewSource(1))
	ctx := context.Background()
	for {
		ev := &ftl.Event{Type: ftl.EventWrite, Logical: rng.Uint64() % geo.Usable}
		_ = f.Translate(ctx, ev)
		time.Sleep(2 * time.Millisecond)
	}
}
