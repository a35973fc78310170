package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depmanifest/pkg/manifest"
	"github.com/matzehuels/depmanifest/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "browse <manifest>",
		Short: "Browse the resolved dependencies interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.resolve(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			p := tea.NewProgram(NewDependencyListModel(result), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

// =============================================================================
// DependencyListModel - Role-filtered dependency viewer
// =============================================================================

// roleFilters is the cycle of filters toggled with tab. RoleUnknown shows all.
var roleFilters = append([]manifest.Role{manifest.RoleUnknown}, manifest.Roles()...)

// DependencyListModel is the bubbletea model for browsing a resolution.
type DependencyListModel struct {
	Project  string
	Platform string
	All      []manifest.Resolved

	Filter  manifest.Role // RoleUnknown shows every role
	Visible []manifest.Resolved
	Cursor  int
	Height  int
	Offset  int
}

// NewDependencyListModel creates a model showing every dependency of result.
func NewDependencyListModel(result *pipeline.Result) DependencyListModel {
	m := DependencyListModel{
		Project:  result.Project,
		Platform: result.Platform.String(),
		All:      result.Dependencies,
		Height:   15,
	}
	m.applyFilter(manifest.RoleUnknown)
	return m
}

func (m *DependencyListModel) applyFilter(r manifest.Role) {
	m.Filter = r
	m.Visible = nil
	for _, d := range m.All {
		if r == manifest.RoleUnknown || d.Role == r {
			m.Visible = append(m.Visible, d)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m DependencyListModel) nextFilter() manifest.Role {
	for i, r := range roleFilters {
		if r == m.Filter {
			return roleFilters[(i+1)%len(roleFilters)]
		}
	}
	return manifest.RoleUnknown
}

func (m DependencyListModel) Init() tea.Cmd {
	return nil
}

func (m DependencyListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "tab":
			m.applyFilter(m.nextFilter())
		case "a":
			m.applyFilter(manifest.RoleUnknown)
		case "o", "e", "t":
			m.applyFilter(map[string]manifest.Role{
				"o": manifest.RoleOptionalCompile,
				"e": manifest.RoleCompileExport,
				"t": manifest.RoleTestOnly,
			}[msg.String()])
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DependencyListModel) View() string {
	var b strings.Builder

	title := m.Project
	if title == "" {
		title = "Dependencies"
	}
	b.WriteString(StyleTitle.Render(title))
	if m.Platform != "" {
		b.WriteString(listDimStyle.Render("  platform " + m.Platform))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab cycle role  a/o/e/t filter  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Visible))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Visible[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, d.Coordinate.String(), d.Version, d.Role.String(), versionSource(d)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Dependency", "Version", "Role", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Visible) {
				return lipgloss.NewStyle()
			}
			switch {
			case col == 3:
				return roleStyle(m.Visible[idx].Role)
			case idx == m.Cursor:
				return listSelectedStyle
			case col == 4:
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	filter := "all roles"
	if m.Filter != manifest.RoleUnknown {
		filter = m.Filter.String()
	}
	pos := 0
	if len(m.Visible) > 0 {
		pos = m.Cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %s · %d total", pos, len(m.Visible), filter, len(m.All))))

	return b.String()
}
