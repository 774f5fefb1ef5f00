package view

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/V4T54L/restnav/internal/display"
	"github.com/V4T54L/restnav/internal/domain"
)

// ViewRecorder records opened views in the event log.
type ViewRecorder interface {
	AddView(title string, agg domain.Aggregator, panel any) *domain.LogEntry
}

// Panel is what the console keeps for an opened view.
type Panel struct {
	Kind  string
	Title string
	Text  string
}

// ConsoleViewOpener renders displayable models as plain text tables.
type ConsoleViewOpener struct {
	mu       sync.Mutex
	out      io.Writer
	recorder ViewRecorder
	logger   *slog.Logger
}

func NewConsoleViewOpener(out io.Writer, recorder ViewRecorder, logger *slog.Logger) *ConsoleViewOpener {
	return &ConsoleViewOpener{
		out:      out,
		recorder: recorder,
		logger:   logger.With("component", "console_view"),
	}
}

type rowSource interface {
	Title() string
	Rows() []*domain.TObject
	Columns() []display.Column
}

// OpenListView prints one line per row with the layout columns.
func (v *ConsoleViewOpener) OpenListView(agg domain.Aggregator) {
	model, ok := agg.Model().(rowSource)
	if !ok {
		v.logger.Warn("list view without rows", "kind", agg.Kind())
		return
	}

	text := renderList(model)
	v.open(agg, &Panel{Kind: "list", Title: model.Title(), Text: text})
}

// OpenObjectView prints the object title followed by its properties.
func (v *ConsoleViewOpener) OpenObjectView(agg domain.Aggregator) {
	model, ok := agg.Model().(*display.ObjectModel)
	if !ok || model.Object() == nil {
		v.logger.Warn("object view without object", "kind", agg.Kind())
		return
	}

	text := renderObject(model)
	v.open(agg, &Panel{Kind: "object", Title: model.Title(), Text: text})
}

func (v *ConsoleViewOpener) open(agg domain.Aggregator, panel *Panel) {
	v.mu.Lock()
	_, err := io.WriteString(v.out, panel.Text)
	v.mu.Unlock()
	if err != nil {
		v.logger.Error("failed to write view", "title", panel.Title, "error", err)
	}

	if v.recorder != nil {
		v.recorder.AddView(panel.Title, agg, panel)
	}
	v.logger.Info("view opened", "kind", panel.Kind, "title", panel.Title)
}

func renderList(model rowSource) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "== %s ==\n", model.Title())

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	cols := model.Columns()
	fmt.Fprint(tw, "#")
	for _, c := range cols {
		fmt.Fprintf(tw, "\t%s", c.Name)
	}
	fmt.Fprintln(tw)
	for i, row := range model.Rows() {
		fmt.Fprintf(tw, "%d", i+1)
		if len(cols) == 0 {
			fmt.Fprintf(tw, "\t%s", row.Title)
		}
		for _, c := range cols {
			fmt.Fprintf(tw, "\t%s", memberValue(row, c.ID))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
	return buf.String()
}

func renderObject(model *display.ObjectModel) string {
	var buf strings.Builder
	obj := model.Object()
	fmt.Fprintf(&buf, "== %s ==\n", model.Title())

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, p := range model.Properties() {
		name, ok := model.Description(p.ID)
		if !ok {
			name = p.ID
		}
		value := formatValue(p.Value)
		if value == "" {
			value = memberValue(obj, p.ID)
		}
		fmt.Fprintf(tw, "%s:\t%s\n", name, value)
	}
	tw.Flush()
	return buf.String()
}

func memberValue(obj *domain.TObject, id string) string {
	if obj == nil {
		return ""
	}
	m, ok := obj.Members[id]
	if !ok {
		return ""
	}
	return formatValue(m.Value)
}

// formatValue prints strings unquoted and references by their title.
func formatValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var ref struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &ref); err == nil && ref.Title != "" {
		return ref.Title
	}
	return string(raw)
}
