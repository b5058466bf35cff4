// Package pipeline wires extraction, planning and animation together and reports a
// ready, partial or failed status with counts at each stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mindreel/failure"
	"mindreel/hierarchy"
	"mindreel/importer"
	"mindreel/mindmap"
	"mindreel/validation"
)

// Status is the caller-facing outcome of a stage.
type Status string

const (
	StatusReady   Status = "ready"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

func worse(a, b Status) Status {
	rank := map[Status]int{StatusReady: 0, StatusPartial: 1, StatusFailed: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// ExtractionObserver receives extraction statistics. metrics.Collector implements it.
type ExtractionObserver interface {
	ObserveExtraction(status string, nodes int)
}

// MarkupSource yields the diagram candidates of a live page.
type MarkupSource interface {
	SVGMarkup(ctx context.Context) ([]string, error)
}

// Report describes one extraction pass.
type Report struct {
	Status          Status   `json:"status"`
	Source          string   `json:"source,omitempty"`
	Format          string   `json:"format"`
	DiagramSelected bool     `json:"diagram_selected"`
	NodesExtracted  int      `json:"nodes_extracted"`
	NodesInTree     int      `json:"nodes_in_tree"`
	Strategy        string   `json:"strategy,omitempty"`
	RootCandidates  []string `json:"root_candidates,omitempty"`
	RejectedEdges   int      `json:"rejected_edges"`
	Detached        []string `json:"detached,omitempty"`
	Problems        []string `json:"problems,omitempty"`
}

// Extractor turns markup into mindmap data: import, rebuild the hierarchy, validate.
type Extractor struct {
	registry  *importer.ImporterRegistry
	builder   hierarchy.Builder
	validator *validation.TreeValidator
	logger    *zap.Logger
	observer  ExtractionObserver
}

// NewExtractor creates an extractor. logger and observer may be nil.
func NewExtractor(iopts importer.Options, hopts hierarchy.Options, logger *zap.Logger, observer ExtractionObserver) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		registry:  importer.NewImporterRegistryWithOptions(iopts),
		builder:   hierarchy.NewBuilder(hopts),
		validator: validation.NewTreeValidator(),
		logger:    logger,
		observer:  observer,
	}
}

// ExtractFile reads path and extracts it, choosing the importer by extension.
func (e *Extractor) ExtractFile(path string) (*mindmap.Data, *Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return e.Extract(path, "", string(content))
}

// ExtractPage reads every svg on a live page and extracts the mindmap among them.
func (e *Extractor) ExtractPage(ctx context.Context, src MarkupSource) (*mindmap.Data, *Report, error) {
	candidates, err := src.SVGMarkup(ctx)
	if err != nil {
		return nil, nil, failure.Wrap(failure.KindDriver, "read page", err)
	}
	return e.Extract("page", "SVG", strings.Join(candidates, "\n"))
}

// Extract runs one extraction pass over content. source names the input for titles and
// importer selection; format forces an importer by name when not empty.
//
// Finding no diagram or no nodes is not an error: the report is failed and the data is
// empty. An ambiguous hierarchy yields flat data without a root and a partial report.
func (e *Extractor) Extract(source, format, content string) (*mindmap.Data, *Report, error) {
	rep := &Report{Source: source}

	var imp importer.Importer
	var err error
	if format != "" {
		imp, err = e.registry.Get(format)
	} else {
		imp, err = e.registry.ForFile(source, content)
	}
	if err != nil {
		if strings.TrimSpace(content) == "" {
			return e.finish(mindmap.New(titleFor("", source), nil, nil, nil, ""), rep), rep, nil
		}
		return nil, nil, failure.Wrap(failure.KindParse, "detect", err)
	}
	rep.Format = imp.GetFormatName()

	ext, err := imp.Import(content)
	if err != nil {
		return nil, nil, failure.Wrap(failure.KindParse, "import", err)
	}
	rep.DiagramSelected = ext.Selected || len(ext.Nodes) > 0
	rep.NodesExtracted = len(ext.Nodes)
	title := titleFor(ext.Title, source)

	if len(ext.Nodes) == 0 {
		e.logger.Warn("no mindmap nodes found",
			zap.String("source", source),
			zap.Bool("diagram_selected", ext.Selected))
		return e.finish(mindmap.New(title, nil, nil, ext.Connections, ext.Markup), rep), rep, nil
	}

	res, err := e.builder.Build(ext.Nodes, ext.Connections)
	switch {
	case errors.Is(err, failure.ErrHierarchyAmbiguous):
		e.logger.Warn("hierarchy is ambiguous", zap.String("source", source), zap.Error(err))
		rep.Problems = append(rep.Problems, err.Error())
	case err != nil:
		return nil, nil, err
	}

	nodes := ext.Nodes
	var root *mindmap.Node
	if res != nil {
		rep.Strategy = res.Strategy
		rep.RootCandidates = res.Candidates
		rep.RejectedEdges = len(res.Rejected)
		rep.Detached = res.Detached
		if len(res.Nodes) > 0 {
			nodes = res.Nodes
		}
		root = res.Root
	}

	data := mindmap.New(title, root, nodes, ext.Connections, ext.Markup)
	rep.NodesInTree = mindmap.Count(root)

	for _, v := range e.validator.Validate(data) {
		rep.Problems = append(rep.Problems, v.String())
	}
	return e.finish(data, rep), rep, nil
}

func (e *Extractor) finish(data *mindmap.Data, rep *Report) *mindmap.Data {
	switch {
	case len(data.Nodes) == 0:
		rep.Status = StatusFailed
	case data.Root == nil || rep.RejectedEdges > 0 || len(rep.Detached) > 0 || len(rep.Problems) > 0:
		rep.Status = StatusPartial
	default:
		rep.Status = StatusReady
	}

	e.logger.Info("extraction finished",
		zap.String("source", rep.Source),
		zap.String("status", string(rep.Status)),
		zap.Int("nodes", rep.NodesExtracted),
		zap.Int("nodes_in_tree", rep.NodesInTree),
		zap.String("strategy", rep.Strategy))
	if e.observer != nil {
		e.observer.ObserveExtraction(string(rep.Status), rep.NodesExtracted)
	}
	return data
}

func titleFor(title, source string) string {
	if title != "" {
		return title
	}
	base := filepath.Base(source)
	if base == "." || base == "/" || base == "page" || base == "" {
		return "Mindmap"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
