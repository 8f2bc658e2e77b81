package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/LdDl/osmworld"
	"github.com/LdDl/osmworld/internal/logging"
	"github.com/LdDl/osmworld/pathfinder"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	dataDir       = flag.String("data-dir", "data", "Directory with 'roads.json' and 'pois.json' documents")
	out           = flag.String("out", "graph.csv", "Filename of 'Comma-Separated Values' (CSV) formatted file. E.g.: if file name is 'graph.csv' then 3 files will be produced: 'graph.csv' (edges), 'graph_vertices.csv', 'graph_shortcuts.csv'")
	units         = flag.String("units", "m", "Units of output weights. Expected values: m for meters / km for kilometers")
	doContraction = flag.Bool("contract", true, "Prepare contraction hierarchies?")
	logLevel      = flag.String("log-level", "info", "Log level. Expected values: debug / info / warn / error")
	logFormat     = flag.String("log-format", "console", "Log format. Expected values: console / json")
)

func main() {
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("Export failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	dataset, err := osmworld.LoadDataset(*dataDir)
	if err != nil {
		return err
	}
	pf := pathfinder.New(pathfinder.WithLogger(logger))
	pf.Build(dataset.Roads)
	logger.Info("Graph is ready", zap.Int("nodes", pf.NodeCount()), zap.Int("edges", pf.EdgeCount()))

	fnamePart := strings.Split(*out, ".csv") // to guarantee proper filename and its extension
	fnameEdges := fnamePart[0] + ".csv"
	fnameVertices := fnamePart[0] + "_vertices.csv"
	fnameShortcuts := fnamePart[0] + "_shortcuts.csv"

	graph, err := pf.ContractionHierarchy(*doContraction)
	if err != nil {
		return err
	}

	positions := make(map[int64]osmworld.Point3, pf.NodeCount())
	for _, node := range pf.Nodes() {
		positions[node.ID] = node.Position
	}

	/* Edges file */
	if err := writeCSV(fnameEdges, func(writer *csv.Writer) error {
		// 		from_vertex_id - int64, ID of source graph node
		// 		to_vertex_id - int64, ID of target graph node
		// 		weight - float64, Weight of an edge (meters/kilometers)
		//      geom - planar geometry (WKT)
		// 		road_id - int64, ID of road the edge was built from
		err := writer.Write([]string{"from_vertex_id", "to_vertex_id", "weight", "geom", "road_id"})
		if err != nil {
			return err
		}
		for _, node := range pf.Nodes() {
			for _, edge := range node.Edges {
				cost := edge.Distance
				if strings.ToLower(*units) == "km" {
					cost /= 1000.0
				}
				err = writer.Write([]string{
					fmt.Sprintf("%d", node.ID),
					fmt.Sprintf("%d", edge.Neighbor),
					fmt.Sprintf("%f", cost),
					osmworld.PrepareWKTLinestring([]osmworld.Point3{node.Position, positions[edge.Neighbor]}),
					fmt.Sprintf("%d", edge.SourceRoadID),
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return errors.Wrap(err, "Can't write edges")
	}

	/* Vertices file */
	if err := writeCSV(fnameVertices, func(writer *csv.Writer) error {
		// 		vertex_id - int64, ID of graph node
		// 		order_pos - int, Position of vertex in hierarchies (evaluted by library)
		// 		importance - int, Importance of vertex in graph (evaluted by library)
		//      geom - planar geometry (WKT)
		err := writer.Write([]string{"vertex_id", "order_pos", "importance", "geom"})
		if err != nil {
			return err
		}
		for i := range graph.Vertices {
			label := graph.Vertices[i].Label
			err = writer.Write([]string{
				fmt.Sprintf("%d", label),
				fmt.Sprintf("%d", graph.Vertices[i].OrderPos()),
				fmt.Sprintf("%d", graph.Vertices[i].Importance()),
				osmworld.PrepareWKTPoint(positions[label]),
			})
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return errors.Wrap(err, "Can't write vertices")
	}

	if *doContraction {
		/* Write shortcuts */
		// 	from_vertex_id - int64, ID of source vertex
		// 	to_vertex_id - int64, ID of target vertex
		// 	weight - float64, Weight of an edge
		// 	via_vertex_id - int64, ID of vertex through which the shortcut exists
		if err := graph.ExportShortcutsToFile(fnameShortcuts); err != nil {
			return errors.Wrap(err, "Can't write shortcuts")
		}
	}
	logger.Info("Done", zap.String("edges", fnameEdges), zap.String("vertices", fnameVertices))
	return nil
}

func writeCSV(fname string, write func(*csv.Writer) error) error {
	file, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	writer.Comma = ';'
	if err := write(writer); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}
