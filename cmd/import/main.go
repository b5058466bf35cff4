package main

import (
	"flag"
	"fmt"
	"os"

	"mindreel/export"
	"mindreel/hierarchy"
	"mindreel/importer"
	"mindreel/pipeline"
)

func main() {
	var (
		inputFile  = flag.String("i", "", "Input file path")
		format     = flag.String("f", "", "Format (svg, json, outline) - auto-detect if not specified")
		output     = flag.String("o", "", "Output file path (default: stdout)")
		flat       = flag.Bool("flat", false, "Write the flat node list instead of the nested tree")
		rootPolicy = flag.String("root", "strict", "Root policy for explicit edges: strict, first, geometric")
	)

	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Error: input file required (-i)\n")
		flag.Usage()
		os.Exit(1)
	}

	policy, err := hierarchy.ParseRootPolicy(*rootPolicy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	hopts := hierarchy.DefaultOptions()
	hopts.RootPolicy = policy

	content, err := os.ReadFile(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		os.Exit(1)
	}

	extractor := pipeline.NewExtractor(importer.DefaultOptions(), hopts, nil, nil)
	data, rep, err := extractor.Extract(*inputFile, *format, string(content))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing mindmap: %v\n", err)
		os.Exit(1)
	}
	for _, p := range rep.Problems {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", p)
	}

	var exporter export.Exporter = export.NewJSONExporter()
	if *flat || data.Root == nil {
		exporter = export.NewFlatExporter()
	}
	jsonData, err := exporter.Export(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting to JSON: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		err = os.WriteFile(*output, []byte(jsonData), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully imported mindmap to %s\n", *output)
	} else {
		fmt.Println(jsonData)
	}
}
