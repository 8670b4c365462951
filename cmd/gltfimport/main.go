// gltfimport is a CLI utility for importing glTF 2.0 scenes into the host
// scene model and inspecting the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/Faultbox/gltfscene/internal/config"
	"github.com/Faultbox/gltfscene/internal/host"
	"github.com/Faultbox/gltfscene/internal/importer"
	"github.com/Faultbox/gltfscene/internal/logger"
	"github.com/Faultbox/gltfscene/pkg/gltfdoc"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import", "i":
		cmdImport(args)
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gltfimport - glTF 2.0 scene importer

Usage:
  gltfimport <command> [options] <file.gltf|file.glb>

Commands:
  import [options] <file>    Import the scene and print a summary
  info <file>                Show document information
  dump [-host] [-depth N] <file>
                             Dump the document, or the imported host data

Import options:
  -config <path>             Config file (default: ./gltfimport.yaml)
  -debug                     Enable debug logging
  -log-file <path>           Also write logs to a rotating file
  -pack-images               Pack image data instead of linking files
  -no-images                 Do not create images
  -no-yup-correction         Keep glTF Y-up axes
  -collection <name>         Collection that receives imported objects

Examples:
  gltfimport info scene.glb
  gltfimport import -debug -pack-images scene.gltf
  gltfimport dump -host -depth 4 character.glb`)
}

// runImport loads cfg's logger and imports path into fresh host data.
func runImport(path string, cfg *config.Config) (*host.Data, *importer.Result, error) {
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	doc, bin, err := gltfdoc.Load(path)
	if err != nil {
		return nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	data := host.NewData()
	res, err := importer.Import(ctx, doc, bin, data, importer.Options{
		Logger:            logger.Log.With(zap.String("file", path)),
		Files:             bin.Files(),
		LoadImages:        cfg.Import.LoadImages,
		PackImages:        cfg.Import.PackImages,
		SkipYUpCorrection: cfg.Import.SkipYUpCorrection,
		ActiveCollection:  cfg.Import.ActiveCollection,
	})
	return data, res, err
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gltfimport import [options] <file>")
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, res, err := runImport(fs.Arg(0), cfg)
	defer logger.Sync()
	if err != nil {
		if res == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger.Warn("import incomplete", zap.Error(err), zap.Stringer("stage", res.Stage))
	}

	printSummary(fs.Arg(0), data, res)
}

func printSummary(path string, data *host.Data, res *importer.Result) {
	counts := map[string]int{}
	for _, o := range data.Objects {
		counts[o.Type.String()]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Session:   %s\n", res.SessionID)
	fmt.Printf("Stage:     %s\n", res.Stage)
	fmt.Printf("Objects:   %d\n", len(data.Objects))
	for _, t := range types {
		fmt.Printf("  %-10s %d\n", t, counts[t])
	}
	fmt.Printf("Meshes:    %d\n", len(data.Meshes))
	fmt.Printf("Images:    %d\n", len(data.Images))

	if len(data.Armatures) > 0 {
		fmt.Println()
		fmt.Println("Armatures:")
		for _, a := range data.Armatures {
			fmt.Printf("  %-24s %d bones\n", a.Name, len(a.Bones))
		}
	}

	fmt.Println()
	fmt.Println("Scenes:")
	for _, s := range res.Scenes {
		fmt.Printf("  %-24s %d objects\n", s.Name, len(s.Collection.AllObjects()))
	}
	if res.ActiveObject != nil {
		fmt.Printf("\nActive:    %s\n", res.ActiveObject.Name)
	}
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gltfimport info <file>")
		os.Exit(1)
	}

	doc, _, err := gltfdoc.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File:       %s\n", args[0])
	fmt.Printf("Nodes:      %d\n", len(doc.Nodes))
	fmt.Printf("Meshes:     %d\n", len(doc.Meshes))
	fmt.Printf("Skins:      %d\n", len(doc.Skins))
	fmt.Printf("Cameras:    %d\n", len(doc.Cameras))
	fmt.Printf("Images:     %d\n", len(doc.Images))
	fmt.Printf("Animations: %d\n", len(doc.Animations))
	if doc.Scene != nil {
		fmt.Printf("Default:    scene %d\n", *doc.Scene)
	}

	fmt.Println()
	fmt.Println("Scenes:")
	if len(doc.Scenes) == 0 {
		fmt.Println("  (none, all parentless nodes form one scene)")
	}
	for i, s := range doc.Scenes {
		name := s.Name
		if name == "" {
			name = importer.DefaultSceneName
		}
		fmt.Printf("  %2d %-24s %d roots\n", i, name, len(s.Nodes))
	}

	if len(doc.Skins) > 0 {
		fmt.Println()
		fmt.Println("Skins:")
		for i, s := range doc.Skins {
			var joints []string
			for _, j := range s.Joints {
				if j >= 0 && j < len(doc.Nodes) && doc.Nodes[j].Name != "" {
					joints = append(joints, doc.Nodes[j].Name)
				} else {
					joints = append(joints, fmt.Sprint(j))
				}
			}
			fmt.Printf("  %2d %-24s %s\n", i, s.Name, strings.Join(joints, ", "))
		}
	}
}

func cmdDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	hostData := fs.Bool("host", false, "Dump the imported host data instead of the document")
	depth := fs.Int("depth", 0, "Limit nesting depth (0 = unlimited)")
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gltfimport dump [-host] [-depth N] <file>")
		os.Exit(1)
	}

	sc := spew.NewDefaultConfig()
	sc.DisableCapacities = true
	sc.DisablePointerAddresses = true
	sc.SortKeys = true
	sc.MaxDepth = *depth

	if !*hostData {
		doc, _, err := gltfdoc.Load(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		sc.Fdump(os.Stdout, doc)
		return
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	data, _, err := runImport(fs.Arg(0), cfg)
	defer logger.Sync()
	if err != nil && data == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sc.Fdump(os.Stdout, data)
}
