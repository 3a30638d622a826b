package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacklineage/pkg/errors"
	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/pipeline"
	"github.com/matzehuels/stacklineage/pkg/view"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listFocalStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		focus string
		depth int
	)

	cmd := &cobra.Command{
		Use:   "explore <graph>",
		Short: "Browse views interactively",
		Long: `Browse the view around a focal node in the terminal. Every toggle rebuilds
the view.

Keys:
  f  full graph        c  compact datasets    j  task jobs
  d  datasets          x  collapse dataset    ⏎  focus selected node
  ↑/↓ move             q  quit`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateDepth(depth); err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return err
			}
			g, _, err := runner.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			vopts := c.config().ViewOptions(focus)
			if err := requireFocus(focus, vopts.Full); err != nil {
				return err
			}
			if !vopts.Full && !lineage.NewIndex(g).Has(focus) {
				return errors.New(errors.ErrCodeNodeNotFound, "node %q not in graph", focus)
			}

			m := NewExploreModel(g, vopts, depth)
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	addViewFlags(cmd)
	cmd.Flags().StringVar(&focus, "focus", "", "focal node ID (required unless --full)")
	cmd.Flags().IntVar(&depth, "depth", 0, "limit traversal to this many hops (0 = unlimited)")
	_ = cmd.RegisterFlagCompletionFunc("focus", completeFocus)
	return cmd
}

// =============================================================================
// ExploreModel - Interactive view browser
// =============================================================================

// ExploreModel is the bubbletea model behind the explore command.
type ExploreModel struct {
	Graph   *lineage.Graph
	Options view.Options
	Depth   int
	Current view.View
	Cursor  int
	Height  int
	Offset  int
}

// NewExploreModel creates the model and builds the initial view.
func NewExploreModel(g *lineage.Graph, opts view.Options, depth int) ExploreModel {
	m := ExploreModel{Graph: g, Options: opts, Depth: depth, Height: 20}
	m.rebuild()
	return m
}

func (m *ExploreModel) rebuild() {
	m.Current = pipeline.Build(context.Background(), m.Graph, m.Options, m.Depth)
	if m.Cursor >= len(m.Current.Nodes) {
		m.Cursor = max(len(m.Current.Nodes)-1, 0)
	}
	m.Offset = min(m.Offset, m.Cursor)
}

// selected returns the node under the cursor.
func (m ExploreModel) selected() (view.Node, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Current.Nodes) {
		return view.Node{}, false
	}
	return m.Current.Nodes[m.Cursor], true
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down":
			if m.Cursor < len(m.Current.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "f":
			m.Options.Full = !m.Options.Full
			m.rebuild()
		case "c":
			m.Options.Compact = !m.Options.Compact
			m.rebuild()
		case "j":
			m.Options.ShowJobs = !m.Options.ShowJobs
			m.rebuild()
		case "d":
			m.Options.ShowDatasets = !m.Options.ShowDatasets
			m.rebuild()
		case "x":
			if n, ok := m.selected(); ok && n.Kind == lineage.KindDataset {
				m.Options = m.Options.ToggleCollapsed(n.ID)
				m.rebuild()
			}
		case "enter":
			if n, ok := m.selected(); ok && n.ID != m.Options.FocalID {
				m.Options.FocalID = n.ID
				m.Cursor, m.Offset = 0, 0
				m.rebuild()
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Lineage of " + focusLabel(m.Current.FocalID)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(m.toggles()))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Current.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Current.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		path := "·"
		if n.OnPath {
			path = "●"
		}
		size := fmt.Sprintf("%.0f×%.0f", n.Width, n.Height)
		if m.Options.IsCollapsed(n.ID) {
			size += " (collapsed)"
		}
		rows = append(rows, []string{cursor, path, kindLabel(n), n.Payload.Name(), size})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Kind", "Name", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Current.Nodes) {
				return lipgloss.NewStyle()
			}
			n := m.Current.Nodes[idx]
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case n.ID == m.Current.FocalID:
				return listFocalStyle
			case !n.OnPath:
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	s := m.Current.Stats()
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d nodes · %d edges (%d synthesized) · %d on path",
		s.Nodes, s.Edges, s.Synthetic, s.OnPath)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  ⏎ focus  f/c/j/d toggle  x collapse  q quit"))

	return b.String()
}

func (m ExploreModel) toggles() string {
	on := func(name string, v bool) string {
		if v {
			return "[x] " + name
		}
		return "[ ] " + name
	}
	return strings.Join([]string{
		on("full", m.Options.Full),
		on("compact", m.Options.Compact),
		on("jobs", m.Options.ShowJobs),
		on("datasets", m.Options.ShowDatasets),
	}, "  ")
}

func kindLabel(n view.Node) string {
	if n.Kind == lineage.KindJob {
		if j, ok := n.Payload.Job(); ok && j.IsTask() {
			return "task"
		}
		return "job"
	}
	return "dataset"
}
