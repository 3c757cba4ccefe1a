package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/perspectives/pkg/config"
	"github.com/matzehuels/perspectives/pkg/io"
	"github.com/matzehuels/perspectives/pkg/pipeline"
)

const defaultLiveOutput = "live.png"

var liveInputStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorDim).
	Padding(0, 1).
	Width(48)

var liveCursorStyle = lipgloss.NewStyle().Foreground(colorCyan)

// liveOpts holds the command-line flags for the live command.
type liveOpts struct {
	output   string
	debounce time.Duration
	noCache  bool
}

// liveCommand creates the live command, which re-renders an image file
// while the user types.
func (c *CLI) liveCommand() *cobra.Command {
	var opts liveOpts

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Re-render an image file while typing",
		Long: `Open an interactive text field and re-render the output file once typing
pauses for the debounce interval. Blank text renders the background only.

Keep the output open in an image viewer that reloads on change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("debounce") {
				opts.debounce = c.Config.Live.Debounce
			}
			return c.runLive(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", defaultLiveOutput, "output file, re-written on every render")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", config.DefaultDebounce, "delay after the last keystroke before rendering")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runLive(ctx context.Context, opts liveOpts) error {
	format, err := io.FormatFromFilename(opts.output)
	if err != nil {
		return err
	}
	base := c.Config.RenderOptions("")
	base.Format = format
	if err := base.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	m := newLiveModel(ctx, runner, base, opts.output, opts.debounce)
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if lm, ok := final.(liveModel); ok && lm.writes > 0 {
		printSuccess("wrote %s", opts.output)
	}
	return nil
}

// =============================================================================
// liveModel - debounced re-rendering
// =============================================================================

// debounceMsg fires once the debounce interval after keystroke seq has passed.
type debounceMsg struct{ seq int }

// renderedMsg carries the render started for keystroke seq.
type renderedMsg struct {
	seq int
	res *pipeline.Result
	err error
}

// liveModel is the bubbletea model of the live command. Every edit bumps
// seq; timers and renders tagged with an older seq are dropped, so only the
// latest text is ever written.
type liveModel struct {
	ctx      context.Context
	runner   *pipeline.Runner
	base     pipeline.Options
	output   string
	debounce time.Duration

	text   []rune
	seq    int
	status string
	err    error
	writes int
}

func newLiveModel(ctx context.Context, runner *pipeline.Runner, base pipeline.Options, output string, debounce time.Duration) liveModel {
	return liveModel{
		ctx:      ctx,
		runner:   runner,
		base:     base,
		output:   output,
		debounce: debounce,
		status:   "type to render",
	}
}

func (m liveModel) Init() tea.Cmd {
	return nil
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyBackspace:
			if len(m.text) == 0 {
				return m, nil
			}
			m.text = m.text[:len(m.text)-1]
		case tea.KeyCtrlU:
			m.text = nil
		case tea.KeySpace:
			m.text = append(m.text, ' ')
		case tea.KeyRunes:
			m.text = append(m.text, msg.Runes...)
		default:
			return m, nil
		}
		m.seq++
		m.status = "waiting..."
		return m, m.schedule()

	case debounceMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.status = "rendering..."
		return m, m.render()

	case renderedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.err = msg.err
		if msg.err == nil {
			m.err = io.WriteBytes(msg.res.Artifact, m.output)
		}
		if m.err != nil {
			m.status = ""
			return m, nil
		}
		m.writes++
		m.status = fmt.Sprintf("wrote %s · %s", m.output, formatBytes(len(msg.res.Artifact)))
		if strings.TrimSpace(string(m.text)) == "" {
			m.status = fmt.Sprintf("cleared %s", m.output)
		}
	}
	return m, nil
}

// schedule starts the debounce timer for the current edit.
func (m liveModel) schedule() tea.Cmd {
	seq := m.seq
	if m.debounce <= 0 {
		return func() tea.Msg { return debounceMsg{seq: seq} }
	}
	return tea.Tick(m.debounce, func(time.Time) tea.Msg { return debounceMsg{seq: seq} })
}

// render runs the pipeline for the current text off the event loop.
func (m liveModel) render() tea.Cmd {
	seq := m.seq
	opts := m.base
	opts.Text = string(m.text)
	return func() tea.Msg {
		res, err := m.runner.Execute(m.ctx, opts)
		return renderedMsg{seq: seq, res: res, err: err}
	}
}

func (m liveModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("perspectives live"))
	b.WriteString("\n")
	b.WriteString(liveInputStyle.Render(string(m.text) + liveCursorStyle.Render("█")))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(StyleError.Render(iconError + " " + m.err.Error()))
	} else {
		b.WriteString(StyleHighlight.Render(iconInfo) + " " + StyleDim.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render("esc quit  ctrl+u clear"))
	b.WriteString("\n")

	return b.String()
}
