// Package cli implements an apex/log handler for cmd/mk, grounded on
// the teacher's internal/log/handlers/cli/cli.go: colorized,
// level-prefixed lines written through github.com/mattn/go-colorable
// so Windows terminals still get ANSI colors from
// github.com/fatih/color. This design drops the teacher's
// progress-bar and table/section "typed log" machinery — cmd/mk has
// no long-running progress UI to drive — and keeps only the plain
// level/message/fields line format.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
)

// Default is the handler cmd/mk installs on the apex/log logger.
var Default = New(os.Stderr)

var bold = color.New(color.Bold)

// colors maps each log level to the color it is printed in.
var colors = [...]*color.Color{
	log.DebugLevel: color.New(color.FgWhite),
	log.InfoLevel:  color.New(color.FgBlue),
	log.WarnLevel:  color.New(color.FgYellow),
	log.ErrorLevel: color.New(color.FgRed),
	log.FatalLevel: color.New(color.FgRed),
}

// marks maps each log level to the bullet printed before the message.
var marks = [...]string{
	log.DebugLevel: "•",
	log.InfoLevel:  "•",
	log.WarnLevel:  "•",
	log.ErrorLevel: "⨯",
	log.FatalLevel: "⨯",
}

// Handler implements log.Handler.
type Handler struct {
	mu     sync.Mutex
	Writer io.Writer
}

// New builds a Handler writing to w, wrapping w in a colorable writer
// when it is a *os.File so ANSI codes render on Windows consoles too.
func New(w io.Writer) *Handler {
	if f, ok := w.(*os.File); ok {
		return &Handler{Writer: colorable.NewColorable(f)}
	}
	return &Handler{Writer: w}
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	col := colors[e.Level]
	mark := marks[e.Level]

	line := col.Sprintf("%s %-25s", bold.Sprintf("%4s", mark), e.Message)
	names := e.Fields.Names()
	var extra []string
	for _, name := range names {
		extra = append(extra, fmt.Sprintf("%s=%v", col.Sprint(name), e.Fields.Get(name)))
	}
	if len(extra) > 0 {
		line += " " + strings.Join(extra, " ")
	}
	fmt.Fprintln(h.Writer, line)
	return nil
}
