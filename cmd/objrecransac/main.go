// Command objrecransac runs the rigid-object recognition pipeline
// against a scene point cloud dump, grounded on the teacher's main.go
// flag-driven CLI (flag.String/flag.Bool/flag.Parse, not a framework).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/kwv/objrecransac/config"
	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/model"
	"github.com/kwv/objrecransac/mqttpublish"
	"github.com/kwv/objrecransac/pointcloud"
	"github.com/kwv/objrecransac/recognizer"
	"github.com/kwv/objrecransac/telemetry"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configFile         = flag.String("config", "config.yaml", "Path to configuration file")
	sceneFile          = flag.String("scene", "", "Path to the scene point cloud JSON dump (required)")
	successProbability = flag.Float64("success-probability", 0.99, "Desired probability of sampling at least one full-object OPP")
	publishMQTT        = flag.Bool("mqtt", false, "Publish recognized objects to MQTT using config.yaml's mqtt section")
	verbose            = flag.Bool("verbose", false, "Log pipeline stage timings")
)

func main() {
	flag.Parse()
	fmt.Printf("objrecransac version: %s\n", Version)

	if *sceneFile == "" {
		log.Fatal("--scene is required (path to a JSON point cloud dump)")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lib, err := loadLibrary(cfg.ModelLibraryDir, cfg.Recognizer.PairWidth, cfg.Recognizer.PairWidthTolerance, cfg.Recognizer.VoxelSize)
	if err != nil {
		log.Fatalf("Failed to load model library: %v", err)
	}

	scenePoints, err := pointcloud.Load(*sceneFile)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}
	fmt.Printf("Loaded scene: %d points from %s\n", len(scenePoints), *sceneFile)

	r := recognizer.New(lib, cfg.Recognizer.VoxelSize,
		recognizer.WithPairWidth(cfg.Recognizer.PairWidth),
		recognizer.WithPairWidthTolerance(cfg.Recognizer.PairWidthTolerance),
		recognizer.WithVisibility(cfg.Recognizer.Visibility),
		recognizer.WithRelativeNumOfIllegalPts(cfg.Recognizer.RelativeNumOfIllegalPts),
		recognizer.WithIntersectionFraction(cfg.Recognizer.IntersectionFraction),
		recognizer.WithMatchConfidenceThreshold(cfg.Recognizer.MatchConfidenceThreshold),
		recognizer.WithICP(cfg.Recognizer.UseICP, cfg.Recognizer.FracOfPointsForICPRefinement, 1.1),
		recognizer.WithWorkers(cfg.Recognizer.Workers),
	)

	if *verbose {
		r.WithLogger(telemetry.New())
	}

	scenePos, sceneNorm := splitXYZ(scenePoints)
	outputs, err := r.Recognize(context.Background(), scenePos, sceneNorm, *successProbability)
	if err != nil {
		log.Fatalf("Recognize failed: %v", err)
	}

	fmt.Printf("\nRecognized %d object(s):\n", len(outputs))
	for _, o := range outputs {
		fmt.Printf("  %-20s confidence=%.3f translation=(%.3f,%.3f,%.3f)\n",
			o.ObjectName, o.MatchConfidence, o.RigidTransform.T[0], o.RigidTransform.T[1], o.RigidTransform.T[2])
	}

	if *publishMQTT {
		if err := publish(cfg.MQTT, outputs); err != nil {
			log.Fatalf("Failed to publish to MQTT: %v", err)
		}
	}
}

// loadLibrary builds a model.Library from every *.json file under dir,
// using the file's base name (without extension) as the model name.
func loadLibrary(dir string, pairWidth, tolerance, voxelSize float64) (*model.Library, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("globbing model library directory %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no model point clouds (*.json) found in %s", dir)
	}

	clouds := make(map[string][]geom.Point, len(files))
	for _, f := range files {
		points, err := pointcloud.Load(f)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		clouds[name] = points
		fmt.Printf("Loaded model %-20s %d points from %s\n", name, len(points), f)
	}

	builder := model.NewBuilder(pairWidth, tolerance)
	return builder.Build(clouds, voxelSize)
}

func splitXYZ(points []geom.Point) ([]geom.Vec3, []geom.Vec3) {
	pos := make([]geom.Vec3, len(points))
	norm := make([]geom.Vec3, len(points))
	for i, p := range points {
		pos[i] = p.Position
		norm[i] = p.Normal
	}
	return pos, norm
}

// publish connects briefly to the configured broker and fire-and-forgets
// every recognized object, mirroring the teacher's one-shot MQTT publish
// usage in main.go's render path rather than its long-lived service mode.
func publish(cfg config.MQTTConfig, outputs []recognizer.Output) error {
	if cfg.Broker == "" {
		return fmt.Errorf("mqtt.broker is not configured")
	}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connecting to MQTT broker %s: %w", cfg.Broker, token.Error())
	}
	defer client.Disconnect(250)

	publisher := mqttpublish.NewPublisher(client, cfg.PublishPrefix)
	if err := publisher.Publish(outputs); err != nil {
		return err
	}
	fmt.Printf("Published %d detection(s) to %s\n", len(outputs), cfg.Broker)
	return nil
}
