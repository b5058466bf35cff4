package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"mindreel/hierarchy"
	"mindreel/mindmap"
)

// Importer interface defines methods for reading mindmap nodes from various formats
type Importer interface {
	// CanImport checks if the given content can be imported by this importer
	CanImport(content string) bool

	// Import extracts the flat node list and any explicit edges from content.
	// Content without a recognisable diagram yields an empty extraction, not an error.
	Import(content string) (*Extraction, error)

	// GetFormatName returns the human-readable name of the format
	GetFormatName() string

	// GetFileExtensions returns common file extensions for this format
	GetFileExtensions() []string
}

// Extraction is the flat output of an importer, before any hierarchy is rebuilt.
type Extraction struct {
	Title       string
	Nodes       []*mindmap.Node
	Connections []mindmap.Connection
	Markup      string // The diagram the nodes were read from
	Selected    bool   // False when no candidate diagram qualified
}

// Options tune the importers.
type Options struct {
	Bands             hierarchy.Bands
	MinTextLength     int // Labels shorter than this (in runes) are noise
	MinCandidateBytes int // Fallback candidates must be larger than this
}

// DefaultOptions returns the settings used for the hosted notebook markup.
func DefaultOptions() Options {
	return Options{
		Bands:             hierarchy.DefaultBands,
		MinTextLength:     2,
		MinCandidateBytes: 5000,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.Bands) == 0 {
		o.Bands = d.Bands
	}
	if o.MinTextLength <= 0 {
		o.MinTextLength = d.MinTextLength
	}
	if o.MinCandidateBytes < 0 {
		o.MinCandidateBytes = 0
	}
	return o
}

// ImporterRegistry manages available importers
type ImporterRegistry struct {
	importers []Importer
}

// NewImporterRegistry creates a new importer registry with default options
func NewImporterRegistry() *ImporterRegistry {
	return NewImporterRegistryWithOptions(DefaultOptions())
}

// NewImporterRegistryWithOptions creates a registry whose importers share opts
func NewImporterRegistryWithOptions(opts Options) *ImporterRegistry {
	return &ImporterRegistry{
		importers: []Importer{
			NewSVGImporter(opts),
			NewJSONImporter(),
			NewOutlineImporter(opts),
		},
	}
}

// Register adds a new importer to the registry
func (r *ImporterRegistry) Register(importer Importer) {
	r.importers = append(r.importers, importer)
}

// DetectFormat attempts to detect the format of the given content
func (r *ImporterRegistry) DetectFormat(content string) (Importer, error) {
	for _, imp := range r.importers {
		if imp.CanImport(content) {
			return imp, nil
		}
	}
	return nil, fmt.Errorf("unable to detect format")
}

// ForFile picks an importer by file extension, falling back to content detection
func (r *ImporterRegistry) ForFile(path, content string) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		for _, imp := range r.importers {
			for _, e := range imp.GetFileExtensions() {
				if e == ext {
					return imp, nil
				}
			}
		}
	}
	return r.DetectFormat(content)
}

// Import attempts to import content using auto-detection
func (r *ImporterRegistry) Import(content string) (*Extraction, error) {
	importer, err := r.DetectFormat(content)
	if err != nil {
		return nil, err
	}
	return importer.Import(content)
}

// Get returns the importer with the given format name
func (r *ImporterRegistry) Get(format string) (Importer, error) {
	for _, imp := range r.importers {
		if strings.EqualFold(imp.GetFormatName(), format) {
			return imp, nil
		}
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}

// ImportWithFormat imports content using a specific format
func (r *ImporterRegistry) ImportWithFormat(content, format string) (*Extraction, error) {
	importer, err := r.Get(format)
	if err != nil {
		return nil, err
	}
	return importer.Import(content)
}

// GetAvailableFormats returns a list of available import formats
func (r *ImporterRegistry) GetAvailableFormats() []string {
	formats := make([]string, len(r.importers))
	for i, imp := range r.importers {
		formats[i] = imp.GetFormatName()
	}
	return formats
}
