package cli

import (
	"encoding/json"
	"os"
	"runtime/debug"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/meshbvh/bvh"
	"go.viam.com/meshbvh/logging"
	"go.viam.com/meshbvh/meshgen"
	"go.viam.com/meshbvh/spatialmath"
	"go.viam.com/meshbvh/utils"
)

// newLogger writes to the app's error stream so command output stays parseable.
func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("meshbvh")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(debugFlag) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.INFO)
	}
	return logger
}

// hierarchyConfig layers the global flags over the config file, if any.
func hierarchyConfig(c *cli.Context) (*bvh.Config, error) {
	attributes := map[string]interface{}{}
	if path := c.Path(configFlag); path != "" {
		//nolint:gosec
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "cannot read config")
		}
		if err := json.Unmarshal(data, &attributes); err != nil {
			return nil, errors.Wrapf(err, "cannot parse config %q", path)
		}
	}
	if c.IsSet(splitFlag) {
		attributes["split_policy"] = c.String(splitFlag)
	}
	if c.IsSet(leafSizeFlag) {
		attributes["leaf_size"] = c.Int(leafSizeFlag)
	}
	if c.IsSet(medianThresholdFlag) {
		attributes["median_threshold"] = c.Int(medianThresholdFlag)
	}
	if c.IsSet(fullSATFlag) {
		attributes["full_sat"] = c.Bool(fullSATFlag)
	}
	return bvh.ParseConfig(attributes)
}

func generateMesh(kind string, size float64, resolution int) (*bvh.IndexedMesh, error) {
	if size <= 0 {
		return nil, errors.Errorf("mesh size must be positive, got %v", size)
	}
	switch kind {
	case meshCube:
		return meshgen.Box(r3.Vector{}, r3.Vector{X: size, Y: size, Z: size}), nil
	case meshSphere:
		return meshgen.Sphere(size, resolution/2, resolution), nil
	case meshGrid:
		return meshgen.Grid(resolution, resolution, size), nil
	}
	return nil, errors.Errorf("unknown mesh %q, expected cube, sphere or grid", kind)
}

// buildHierarchy builds the mesh described by the command's mesh flags.
func buildHierarchy(c *cli.Context, cfg *bvh.Config, logger logging.Logger, kind string) (*bvh.Hierarchy, error) {
	mesh, err := generateMesh(kind, c.Float64(sizeFlag), c.Int(resolutionFlag))
	if err != nil {
		return nil, err
	}
	return bvh.Build(bvh.NewMeshGroup(mesh), cfg, logger)
}

// placeFromFlags sets slot's transform from the --position and --scale flags.
func placeFromFlags(c *cli.Context, h *bvh.Hierarchy, slot bvh.Slot) error {
	position, err := vectorFlag(c, positionFlag)
	if err != nil {
		return err
	}
	scale, err := vectorFlag(c, scaleFlag)
	if err != nil {
		return err
	}
	return h.SetTransform(slot, mgl64.Translate3D(position.X, position.Y, position.Z), scale)
}

type commandSetup struct {
	logger logging.Logger
	cfg    *bvh.Config
	h      *bvh.Hierarchy
}

func setupCommand(c *cli.Context) (*commandSetup, error) {
	logger := newLogger(c)
	cfg, err := hierarchyConfig(c)
	if err != nil {
		return nil, err
	}
	h, err := buildHierarchy(c, cfg, logger, c.String(meshFlag))
	if err != nil {
		return nil, err
	}
	if err := placeFromFlags(c, h, bvh.SlotSelf); err != nil {
		return nil, err
	}
	return &commandSetup{logger: logger, cfg: cfg, h: h}, nil
}

// StatsAction is the corresponding Action for 'stats'.
func StatsAction(c *cli.Context) error {
	s, err := setupCommand(c)
	if err != nil {
		return err
	}
	stats := s.h.BuildStats()
	printf(c.App.Writer, "faces %d vertices %d", s.h.NumFaces(), s.h.NumVertices())
	if !s.h.HasGeometry() {
		warningf(c.App.ErrWriter, "mesh has no faces")
		return nil
	}
	printf(c.App.Writer, "nodes %d leaves %d depth %d largest leaf %d policy %s",
		stats.Nodes, stats.Leaves, stats.MaxDepth, stats.MaxLeafFaces, stats.Policy)
	bounds, _ := s.h.Bounds()
	printf(c.App.Writer, "bounds %s %s", formatVector(bounds.Min), formatVector(bounds.Max))
	return nil
}

// PickAction is the corresponding Action for 'pick'.
func PickAction(c *cli.Context) error {
	mode, err := spatialmath.PickModeFromString(c.String(modeFlag))
	if err != nil {
		return err
	}
	origin, err := vectorFlag(c, originFlag)
	if err != nil {
		return err
	}
	direction, err := vectorFlag(c, directionFlag)
	if err != nil {
		return err
	}
	s, err := setupCommand(c)
	if err != nil {
		return err
	}

	results, err := s.h.IntersectRay(origin, direction, mode)
	if err != nil {
		return err
	}
	s.logger.Debugw("ray query", "box_tests", s.h.QueryStats().BoxTests, "triangle_tests", s.h.QueryStats().TriangleTests)

	printf(c.App.Writer, "%d hits", results.Len())
	for r := results.Head(); r != nil; r = r.Next() {
		printf(c.App.Writer, "mesh %d face %d distance %.4f point %s",
			r.MeshID(), r.FaceID(), r.Distance(), formatVector(r.HitPoint()))
	}
	return nil
}

// CollideAction is the corresponding Action for 'collide'.
func CollideAction(c *cli.Context) error {
	s, err := setupCommand(c)
	if err != nil {
		return err
	}
	other, err := buildHierarchy(c, s.cfg, s.logger.Sublogger("other"), c.String(otherMeshFlag))
	if err != nil {
		return err
	}
	offset, err := vectorFlag(c, offsetFlag)
	if err != nil {
		return err
	}
	world := mgl64.Translate3D(offset.X, offset.Y, offset.Z).Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(c.Float64(rotateZFlag))))
	if err := other.SetTransform(bvh.SlotOther, world, r3.Vector{X: 1, Y: 1, Z: 1}); err != nil {
		return err
	}

	if c.Bool(quickFlag) {
		pair, ok, err := s.h.IntersectHierarchyQuick(other)
		if err != nil {
			return err
		}
		printf(c.App.Writer, "overlap %t", ok)
		if ok {
			printf(c.App.Writer, "self box %s %s", formatVector(pair.A.Min), formatVector(pair.A.Max))
			printf(c.App.Writer, "other box %s %s", formatVector(pair.B.Min), formatVector(pair.B.Max))
		}
		return nil
	}

	hit, err := s.h.IntersectHierarchy(other)
	if err != nil {
		return err
	}
	s.logger.Debugw("mesh query", "box_tests", s.h.QueryStats().BoxTests, "triangle_tests", s.h.QueryStats().TriangleTests)

	selfResults := s.h.Results(bvh.SlotSelf)
	otherResults := other.Results(bvh.SlotOther)
	printf(c.App.Writer, "collision %t self faces %d other faces %d", hit, selfResults.Len(), otherResults.Len())
	for r := selfResults.Head(); r != nil; r = r.Next() {
		printf(c.App.Writer, "self face %d centroid %s normal %s",
			r.FaceID(), formatVector(r.Point().Mul(1./3.)), formatVector(r.Normal()))
	}
	for r := otherResults.Head(); r != nil; r = r.Next() {
		printf(c.App.Writer, "other face %d centroid %s normal %s",
			r.FaceID(), formatVector(r.Point().Mul(1./3.)), formatVector(r.Normal()))
	}
	return nil
}

// SphereAction is the corresponding Action for 'sphere'.
func SphereAction(c *cli.Context) error {
	center, err := vectorFlag(c, centerFlag)
	if err != nil {
		return err
	}
	radius := c.Float64(radiusFlag)
	s, err := setupCommand(c)
	if err != nil {
		return err
	}

	contact, ok, err := s.h.IntersectBoxSphere(center, utils.Square(radius))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "overlap %t", ok)
	if ok {
		printf(c.App.Writer, "contact %s normal %s", formatVector(contact.Point), formatVector(contact.Normals[0]))
	}
	return nil
}

// VersionAction is the corresponding Action for 'version'.
func VersionAction(c *cli.Context) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("error reading build info")
	}
	if c.Bool(debugFlag) {
		printf(c.App.Writer, "%s", info.String())
	}
	settings := make(map[string]string, len(info.Settings))
	for _, setting := range info.Settings {
		settings[setting.Key] = setting.Value
	}
	version := "?"
	if rev, ok := settings["vcs.revision"]; ok && len(rev) >= 8 {
		version = rev[:8]
		if settings["vcs.modified"] == "true" {
			version += "+"
		}
	}
	mathVersion := "?"
	for _, dep := range info.Deps {
		if dep.Path == "github.com/go-gl/mathgl" {
			mathVersion = dep.Version
		}
	}
	printf(c.App.Writer, "Version %s Git=%s mathgl=%s", info.Main.Version, version, mathVersion)
	return nil
}
