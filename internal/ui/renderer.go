package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/arnavsurve/podctl/internal/project"
	"github.com/fatih/color"
)

// Renderer handles terminal output with colors and spinners
type Renderer struct {
	out         io.Writer
	mu          sync.Mutex
	spinning    bool
	spinnerDone chan struct{}
}

// NewRenderer creates a Renderer writing to stderr
func NewRenderer() *Renderer {
	return NewRendererTo(os.Stderr)
}

// NewRendererTo creates a Renderer writing to w
func NewRendererTo(w io.Writer) *Renderer {
	return &Renderer{out: w}
}

// Colors
var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Spinner frames
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StartSpinner starts an animated spinner with a message
func (r *Renderer) StartSpinner(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spinning {
		return
	}

	r.spinning = true
	r.spinnerDone = make(chan struct{})
	done := r.spinnerDone

	msg := fmt.Sprintf(format, args...)

	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r.mu.Lock()
				select {
				case <-done:
					r.mu.Unlock()
					return
				default:
				}
				fmt.Fprintf(r.out, "\r%s %s", cyan(spinnerFrames[frame]), msg)
				r.mu.Unlock()
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}()
}

// StopSpinner stops the spinner and clears its line
func (r *Renderer) StopSpinner() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.spinning {
		return
	}

	close(r.spinnerDone)
	r.spinning = false

	fmt.Fprint(r.out, "\r\033[K")
}

func (r *Renderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// Success prints a success message
func (r *Renderer) Success(format string, args ...any) {
	r.printf("%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// Error prints an error message
func (r *Renderer) Error(format string, args ...any) {
	r.printf("%s %s\n", red("✗"), fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (r *Renderer) Warning(format string, args ...any) {
	r.printf("%s %s\n", yellow("!"), fmt.Sprintf(format, args...))
}

// Info prints an info message
func (r *Renderer) Info(format string, args ...any) {
	r.printf("  %s\n", fmt.Sprintf(format, args...))
}

// Dim prints dimmed/secondary text
func (r *Renderer) Dim(format string, args ...any) {
	r.printf("  %s\n", dim(fmt.Sprintf(format, args...)))
}

// Notice prints an integration notice verbatim.
func (r *Renderer) Notice(message string) {
	r.printf("%s %s\n", cyan("»"), message)
}

// Warn prints an integration warning followed by its remediation actions.
func (r *Renderer) Warn(message string, actions []string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", yellow("[!]"), message)
	for _, a := range actions {
		fmt.Fprintf(&b, "    - %s\n", a)
	}
	r.printf("%s", b.String())
}

// RenderTargets prints the targets of a detected project
func (r *Renderer) RenderTargets(info *project.ProjectInfo) {
	r.printf("\n%s %s\n", bold(info.Name), dim(fmt.Sprintf("(%s)", info.Type)))

	if len(info.Targets) == 0 {
		r.Info("No targets found")
		return
	}

	// Group by project, keeping detection order
	var order []string
	byProject := make(map[string][]project.Target)
	for _, t := range info.Targets {
		if _, ok := byProject[t.Project]; !ok {
			order = append(order, t.Project)
		}
		byProject[t.Project] = append(byProject[t.Project], t)
	}

	for _, proj := range order {
		r.printf("\n%s\n", bold(proj))
		for _, t := range byProject[proj] {
			libs := dim("no libraries")
			if len(t.Libraries) > 0 {
				libs = green(strings.Join(t.Libraries, ", "))
			}
			r.printf("  %s %s %s\n", t.Name, dim(shortProductType(t.ProductType)), libs)
		}
	}
	r.printf("\n")
}

func shortProductType(productType string) string {
	if productType == "" {
		return ""
	}
	return "[" + productType + "]"
}
