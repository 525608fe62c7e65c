// Command objrecvis is a debug visualizer: it renders a scene point
// cloud top-down plus a set of accepted-hypothesis bounding boxes to
// SVG, or to PNG when the output path ends in .png. The SVG path is
// grounded on the teacher's VectorRenderer (mesh/vector_renderer.go)
// — canvas.Path built from MoveTo/LineTo/Close calls, rendered via
// canvas/renderers/svg. It is deliberately not wired into recognizer:
// it exists to eyeball a recognition run's output, not to run one.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kwv/objrecransac/geom"
	"github.com/kwv/objrecransac/pointcloud"
)

var (
	sceneFile  = flag.String("scene", "", "Path to the scene point cloud JSON dump (required)")
	boxesFile  = flag.String("boxes", "", "Path to a JSON array of hypothesis bounding boxes to overlay (optional)")
	outputFile = flag.String("output", "scene.svg", "Output path (.svg, or .png for a raster image)")
	padding    = flag.Float64("padding", 0.05, "Padding, in scene units, around the rendered content")
	pointSize  = flag.Float64("point-size", 0.003, "Radius of each rendered scene point, in scene units")
)

// box is one hypothesis's axis-aligned footprint, the JSON shape a
// caller can derive from transformed model full-leaf positions.
type box struct {
	Name    string  `json:"name"`
	MinX    float64 `json:"minX"`
	MinY    float64 `json:"minY"`
	MaxX    float64 `json:"maxX"`
	MaxY    float64 `json:"maxY"`
	Confide float64 `json:"matchConfidence"`
}

func main() {
	flag.Parse()
	if *sceneFile == "" {
		log.Fatal("--scene is required (path to a JSON point cloud dump)")
	}

	points, err := pointcloud.Load(*sceneFile)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}

	var boxes []box
	if *boxesFile != "" {
		boxes, err = loadBoxes(*boxesFile)
		if err != nil {
			log.Fatalf("Failed to load bounding boxes: %v", err)
		}
	}

	out, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file %s: %v", *outputFile, err)
	}
	defer out.Close()

	if strings.EqualFold(filepath.Ext(*outputFile), ".png") {
		err = renderPNG(points, boxes, out)
	} else {
		err = renderSVG(points, boxes, out)
	}
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	fmt.Printf("Rendered %d scene points and %d hypothesis box(es) to %s\n", len(points), len(boxes), *outputFile)
}

func loadBoxes(path string) ([]box, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bounding box file %s: %w", path, err)
	}
	var boxes []box
	if err := json.Unmarshal(data, &boxes); err != nil {
		return nil, fmt.Errorf("parsing bounding box JSON: %w", err)
	}
	return boxes, nil
}

// renderSVG draws a top-down (XY) projection of the scene plus each
// box's outline to an SVG canvas sized to fit the content plus padding.
func renderSVG(points []geom.Point, boxes []box, w *os.File) error {
	minX, minY, maxX, maxY := worldBounds(points, boxes)
	minX -= *padding
	minY -= *padding
	maxX += *padding
	maxY += *padding
	width := maxX - minX
	height := maxY - minY
	if width <= 0 || height <= 0 {
		return fmt.Errorf("degenerate render bounds (%.3f x %.3f)", width, height)
	}

	toCanvas := func(x, y float64) (float64, float64) {
		return x - minX, (maxY - minY) - (y - minY)
	}

	renderer := svg.New(w, width, height, nil)

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	pointStyle := canvas.DefaultStyle
	pointStyle.Fill = canvas.Paint{Color: canvas.Gray}
	pointStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	for _, p := range points {
		cx, cy := toCanvas(p.Position.X, p.Position.Y)
		dot := canvas.Circle(*pointSize)
		dot = dot.Translate(cx, cy)
		renderer.RenderPath(dot, pointStyle, canvas.Identity)
	}

	boxStyle := canvas.DefaultStyle
	boxStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	boxStyle.Stroke = canvas.Paint{Color: canvas.Red}
	boxStyle.StrokeWidth = 0.002
	for _, b := range boxes {
		path := &canvas.Path{}
		x0, y0 := toCanvas(b.MinX, b.MinY)
		x1, y1 := toCanvas(b.MaxX, b.MinY)
		x2, y2 := toCanvas(b.MaxX, b.MaxY)
		x3, y3 := toCanvas(b.MinX, b.MaxY)
		path.MoveTo(x0, y0)
		path.LineTo(x1, y1)
		path.LineTo(x2, y2)
		path.LineTo(x3, y3)
		path.Close()
		renderer.RenderPath(path, boxStyle, canvas.Identity)
	}

	return nil
}

// renderPNG rasterizes the same top-down projection as renderSVG, plus
// a name/confidence label above each box, since canvas's SVG path has
// no font support here and the teacher's own VectorRenderer skips text
// for the same reason (see its drawText on the raster CompositeRenderer
// instead, mesh/renderer.go).
func renderPNG(points []geom.Point, boxes []box, w *os.File) error {
	minX, minY, maxX, maxY := worldBounds(points, boxes)
	minX -= *padding
	minY -= *padding
	maxX += *padding
	maxY += *padding
	width := maxX - minX
	height := maxY - minY
	if width <= 0 || height <= 0 {
		return fmt.Errorf("degenerate render bounds (%.3f x %.3f)", width, height)
	}

	const scale = 1000.0 // pixels per scene unit
	pxWidth := int(width * scale)
	pxHeight := int(height * scale)

	toPixel := func(x, y float64) (int, int) {
		return int((x - minX) * scale), int((height - (y - minY)) * scale)
	}

	img := image.NewRGBA(image.Rect(0, 0, pxWidth, pxHeight))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	for _, p := range points {
		px, py := toPixel(p.Position.X, p.Position.Y)
		drawDot(img, px, py, color.RGBA{128, 128, 128, 255})
	}

	for _, b := range boxes {
		x0, y0 := toPixel(b.MinX, b.MinY)
		x1, y1 := toPixel(b.MaxX, b.MaxY)
		drawRect(img, x0, y1, x1, y0, color.RGBA{200, 30, 30, 255})
		label := fmt.Sprintf("%s %.2f", b.Name, b.Confide)
		drawText(img, x0, y1-4, label, color.RGBA{0, 0, 0, 255})
	}

	return png.Encode(w, img)
}

// drawDot fills a small square centered on (cx, cy), the raster
// equivalent of renderSVG's canvas.Circle dots.
func drawDot(img *image.RGBA, cx, cy int, c color.RGBA) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			img.Set(cx+dx, cy+dy, c)
		}
	}
}

// drawRect strokes the outline of the rectangle [x0,x1]x[y0,y1].
func drawRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.Set(x, y0, c)
		img.Set(x, y1, c)
	}
	for y := y0; y <= y1; y++ {
		img.Set(x0, y, c)
		img.Set(x1, y, c)
	}
}

// drawText renders text onto img at (x, y), grounded on the teacher's
// drawText (mesh/renderer.go): basicfont.Face7x13 via font.Drawer.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func worldBounds(points []geom.Point, boxes []box) (minX, minY, maxX, maxY float64) {
	bounds := geom.EmptyAABB()
	for _, p := range points {
		bounds = bounds.Extend(p.Position)
	}
	for _, b := range boxes {
		bounds = bounds.Extend(geom.Vec3{X: b.MinX, Y: b.MinY})
		bounds = bounds.Extend(geom.Vec3{X: b.MaxX, Y: b.MaxY})
	}
	return bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y
}
