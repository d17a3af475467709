// Package mapimg renders a shareable PNG card for an evaluation: the
// selected footprint outline with the geocoded point, next to the headline
// figures.
package mapimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mlecomte/toitsol/internal/geom"
	"github.com/mlecomte/toitsol/internal/pipeline"
)

// Card dimensions, wide landscape for link previews.
const (
	CardWidth  = 800
	CardHeight = 420

	mapPanelWidth = 420
	mapPadding    = 40
)

var (
	bgColor      = color.RGBA{24, 30, 44, 255}
	panelColor   = color.RGBA{32, 40, 58, 255}
	roofFill     = color.RGBA{246, 178, 49, 90}
	roofOutline  = color.RGBA{246, 178, 49, 255}
	markerColor  = color.RGBA{235, 87, 87, 255}
	textColor    = color.RGBA{235, 238, 245, 255}
	subtextColor = color.RGBA{150, 160, 180, 255}
)

// Render draws the card for an evaluation result.
func Render(ev *pipeline.Evaluation) ([]byte, error) {
	if len(ev.Rings) == 0 {
		return nil, fmt.Errorf("evaluation has no footprint rings")
	}

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	fillRect(img, img.Bounds(), bgColor)
	fillRect(img, image.Rect(0, 0, mapPanelWidth, CardHeight), panelColor)

	drawFootprint(img, ev)
	drawFigures(img, ev)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// drawFootprint projects the rings to the metric frame, fits them into the
// map panel, and draws fill, outline, and the geocoded point marker.
func drawFootprint(img *image.RGBA, ev *pipeline.Evaluation) {
	var rings []geom.Ring
	for _, ring := range ev.Rings {
		projected := make(geom.Ring, len(ring))
		for i, v := range ring {
			projected[i] = geom.Lambert93(v.Lat, v.Lon)
		}
		rings = append(rings, projected)
	}
	marker := geom.Lambert93(ev.Lat, ev.Lon)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(p geom.Point) {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	for _, r := range rings {
		for _, p := range r {
			extend(p)
		}
	}
	extend(marker)

	spanX := maxX - minX
	spanY := maxY - minY
	span := math.Max(spanX, spanY)
	if span <= 0 {
		span = 1
	}
	scale := float64(mapPanelWidth-2*mapPadding) / span

	// Center the drawing inside the panel; Y axis flips because image
	// coordinates grow downward.
	toPixel := func(p geom.Point) (int, int) {
		x := mapPadding + (p.X-minX-(spanX-span)/2)*scale
		y := float64(CardHeight) - mapPadding - (p.Y-minY-(spanY-span)/2)*scale - (float64(CardHeight)-float64(mapPanelWidth))/2
		return int(x), int(y)
	}

	type pixelRing []image.Point
	var pixelRings []pixelRing
	for _, r := range rings {
		pr := make(pixelRing, len(r))
		for i, p := range r {
			x, y := toPixel(p)
			pr[i] = image.Point{X: x, Y: y}
		}
		pixelRings = append(pixelRings, pr)
	}

	// Fill by containment against the pixel-space ring, then outline.
	for _, pr := range pixelRings {
		ring := make(geom.Ring, len(pr))
		for i, p := range pr {
			ring[i] = geom.Point{X: float64(p.X), Y: float64(p.Y)}
		}
		min, max := pixelBounds(pr)
		for py := min.Y; py <= max.Y; py++ {
			for px := min.X; px <= max.X; px++ {
				if ring.Contains(geom.Point{X: float64(px), Y: float64(py)}) {
					blend(img, px, py, roofFill)
				}
			}
		}
		for i := range pr {
			j := (i + 1) % len(pr)
			drawLine(img, pr[i], pr[j], roofOutline)
		}
	}

	mx, my := toPixel(marker)
	drawMarker(img, mx, my)
}

func pixelBounds(pr []image.Point) (image.Point, image.Point) {
	min, max := pr[0], pr[0]
	for _, p := range pr[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

func drawFigures(img *image.RGBA, ev *pipeline.Evaluation) {
	x := mapPanelWidth + 30
	y := 60

	drawText(img, "toitsol — potentiel solaire", x, y, subtextColor)
	y += 34

	drawText(img, truncate(ev.DisplayName, 48), x, y, textColor)
	y += 44

	lines := []string{
		fmt.Sprintf("Toit : %.0f m²  (exploitable %.0f m²)", ev.AreaM2, ev.ExploitableM2),
		fmt.Sprintf("Puissance : %.1f kWc", ev.RecommendedKWp),
		fmt.Sprintf("Production : %.0f kWh/an", ev.AnnualEnergyKWh),
		fmt.Sprintf("Economies : %.0f EUR/an", ev.AnnualSavingsEUR),
	}
	if ev.PaybackYears != nil {
		lines = append(lines, fmt.Sprintf("Retour : %.1f ans", *ev.PaybackYears))
	}
	lines = append(lines, ev.VerdictLabel)

	for _, line := range lines {
		drawText(img, line, x, y, textColor)
		y += 30
	}
}

// drawText draws a string with the built-in bitmap face; the card is
// utilitarian, not typographic. The face only carries ASCII glyphs, so
// accented text is folded first.
func drawText(img *image.RGBA, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(foldASCII(text))
}

// truncate shortens a string to at most max runes, never cutting inside a
// multi-byte character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

var accentFolder = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ç", "c", "œ", "oe", "æ", "ae",
	"À", "A", "Â", "A", "Ä", "A",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"Î", "I", "Ï", "I",
	"Ô", "O", "Ö", "O",
	"Ù", "U", "Û", "U", "Ü", "U",
	"Ç", "C", "Œ", "OE", "Æ", "AE",
	"²", "2", "€", "EUR", "°", " ",
)

// foldASCII maps French accented characters to their ASCII base so the
// bitmap face can render them; anything else non-ASCII is dropped.
func foldASCII(s string) string {
	s = accentFolder.Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func drawMarker(img *image.RGBA, x, y int) {
	for dy := -6; dy <= 6; dy++ {
		for dx := -6; dx <= 6; dx++ {
			if dx*dx+dy*dy <= 36 {
				setPixel(img, x+dx, y+dy, markerColor)
			}
		}
	}
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			setPixel(img, x+dx, y+dy, color.RGBA{255, 255, 255, 255})
		}
	}
}

func drawLine(img *image.RGBA, a, b image.Point, col color.RGBA) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	steps := int(math.Max(math.Abs(float64(dx)), math.Abs(float64(dy))))
	if steps == 0 {
		setPixel(img, a.X, a.Y, col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := a.X + int(math.Round(float64(dx)*t))
		y := a.Y + int(math.Round(float64(dy)*t))
		setPixel(img, x, y, col)
		// Thicken to 2px for visibility.
		setPixel(img, x+1, y, col)
		setPixel(img, x, y+1, col)
	}
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func setPixel(img *image.RGBA, x, y int, col color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, col)
	}
}

// blend composites a translucent color over the existing pixel.
func blend(img *image.RGBA, x, y int, col color.RGBA) {
	if !image.Pt(x, y).In(img.Bounds()) {
		return
	}
	orig := img.RGBAAt(x, y)
	a := float64(col.A) / 255
	img.SetRGBA(x, y, color.RGBA{
		R: uint8(float64(col.R)*a + float64(orig.R)*(1-a)),
		G: uint8(float64(col.G)*a + float64(orig.G)*(1-a)),
		B: uint8(float64(col.B)*a + float64(orig.B)*(1-a)),
		A: 255,
	})
}
