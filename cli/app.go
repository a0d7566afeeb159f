// Package cli contains the meshbvh command line: it builds hierarchies over procedural meshes
// and runs ray, mesh-mesh and sphere queries against them.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Global flags.
	configFlag          = "config"
	debugFlag           = "debug"
	splitFlag           = "split"
	leafSizeFlag        = "leaf-size"
	medianThresholdFlag = "median-threshold"
	fullSATFlag         = "full-sat"

	// Mesh flags.
	meshFlag       = "mesh"
	sizeFlag       = "size"
	resolutionFlag = "resolution"
	positionFlag   = "position"
	scaleFlag      = "scale"

	// Query flags.
	originFlag    = "origin"
	directionFlag = "direction"
	modeFlag      = "mode"
	otherMeshFlag = "other-mesh"
	offsetFlag    = "offset"
	rotateZFlag   = "rotate-z"
	quickFlag     = "quick"
	centerFlag    = "center"
	radiusFlag    = "radius"

	meshCube   = "cube"
	meshSphere = "sphere"
	meshGrid   = "grid"
)

func meshFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  meshFlag,
			Value: meshSphere,
			Usage: "mesh to build: cube, sphere or grid",
		},
		&cli.Float64Flag{
			Name:  sizeFlag,
			Value: 1,
			Usage: "cube edge, sphere radius or grid cell size",
		},
		&cli.IntFlag{
			Name:  resolutionFlag,
			Value: 16,
			Usage: "sphere slices (stacks are half this) or grid cells per side",
		},
		&cli.Float64SliceFlag{
			Name:  positionFlag,
			Value: cli.NewFloat64Slice(0, 0, 0),
			Usage: "world position of the mesh as `X,Y,Z`",
		},
		&cli.Float64SliceFlag{
			Name:  scaleFlag,
			Value: cli.NewFloat64Slice(1, 1, 1),
			Usage: "per-axis scale of the mesh as `X,Y,Z`",
		},
	}
}

var app = &cli.App{
	Name:            "meshbvh",
	Usage:           "build bounding volume hierarchies over meshes and query them",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.PathFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "load hierarchy configuration from JSON `FILE`",
		},
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  splitFlag,
			Usage: "split policy: midpoint, median or sorted_median",
		},
		&cli.IntFlag{
			Name:  leafSizeFlag,
			Usage: "largest face count of a leaf",
		},
		&cli.IntFlag{
			Name:  medianThresholdFlag,
			Usage: "face count above which median splitting is forced; 0 disables",
		},
		&cli.BoolFlag{
			Name:  fullSATFlag,
			Usage: "test all 15 separating axes between node boxes",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "stats",
			Usage:  "build a hierarchy and print its shape",
			Flags:  meshFlags(),
			Action: StatsAction,
		},
		{
			Name:  "pick",
			Usage: "cast a ray at a mesh and print every hit, nearest first",
			Flags: append(meshFlags(),
				&cli.Float64SliceFlag{
					Name:  originFlag,
					Value: cli.NewFloat64Slice(-5, 0.1, 0.05),
					Usage: "ray origin as `X,Y,Z`",
				},
				&cli.Float64SliceFlag{
					Name:  directionFlag,
					Value: cli.NewFloat64Slice(1, 0, 0),
					Usage: "ray direction as `X,Y,Z`",
				},
				&cli.StringFlag{
					Name:  modeFlag,
					Value: "both",
					Usage: "faces to report: front, back, both or disabled",
				},
			),
			Action: PickAction,
		},
		{
			Name:  "collide",
			Usage: "test a mesh against a second, moved copy of another mesh",
			Flags: append(meshFlags(),
				&cli.StringFlag{
					Name:  otherMeshFlag,
					Value: meshCube,
					Usage: "second mesh: cube, sphere or grid",
				},
				&cli.Float64SliceFlag{
					Name:  offsetFlag,
					Value: cli.NewFloat64Slice(0.5, 0, 0),
					Usage: "world position of the second mesh as `X,Y,Z`",
				},
				&cli.Float64Flag{
					Name:  rotateZFlag,
					Usage: "rotation of the second mesh about z in degrees",
				},
				&cli.BoolFlag{
					Name:  quickFlag,
					Usage: "only test the root boxes",
				},
			),
			Action: CollideAction,
		},
		{
			Name:  "sphere",
			Usage: "test a sphere against a mesh's root box",
			Flags: append(meshFlags(),
				&cli.Float64SliceFlag{
					Name:  centerFlag,
					Value: cli.NewFloat64Slice(0, 0, 2),
					Usage: "sphere center as `X,Y,Z`",
				},
				&cli.Float64Flag{
					Name:  radiusFlag,
					Value: 1,
					Usage: "sphere radius",
				},
			),
			Action: SphereAction,
		},
		{
			Name:  "plot",
			Usage: "draw the xy footprint of a mesh's leaf boxes",
			Flags: append(meshFlags(),
				&cli.PathFlag{
					Name:     outFlag,
					Required: true,
					Usage:    "image to write; the format follows the extension, e.g. .png or .svg",
				},
				&cli.IntFlag{
					Name:  depthFlag,
					Usage: "skip leaves deeper than this; 0 draws every leaf",
				},
			),
			Action: PlotAction,
		},
		{
			Name:   "version",
			Usage:  "print version info for this program",
			Action: VersionAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
