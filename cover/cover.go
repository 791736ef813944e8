package cover

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/Luismorlan/bskybook/clients"
	"github.com/Luismorlan/bskybook/model"
)

// Options are the cover's size and layout constants. They are configuration,
// not behavior: the layout algorithm is the same at any resolution.
type Options struct {
	// Target resolution, portrait e-reader aspect ratio.
	Width  int
	Height int

	// Height of the title band at the bottom of a mosaic cover.
	BandHeight int

	// JPEG encode quality.
	Quality int

	// At most this many thumbnails are downloaded per cover.
	MaxImages int

	TitleFontSize    float64
	SubtitleFontSize float64

	// Font sizes for the no-image simple cover.
	SimpleTitleFontSize    float64
	SimpleSubtitleFontSize float64
}

func DefaultOptions() Options {
	return Options{
		Width:                  1264,
		Height:                 1680,
		BandHeight:             200,
		Quality:                95,
		MaxImages:              20,
		TitleFontSize:          60,
		SubtitleFontSize:       24,
		SimpleTitleFontSize:    80,
		SimpleSubtitleFontSize: 30,
	}
}

var (
	mosaicBackground = color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	simpleBackground = color.RGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}
	bandColor        = color.NRGBA{A: 180}
	titleColor       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	subtitleColor    = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// Generator composes cover images from article thumbnails.
type Generator struct {
	opts   Options
	client *clients.HttpClient
	fonts  *FontSet

	log *logrus.Entry
}

func NewGenerator(opts Options, log *logrus.Entry) *Generator {
	return &Generator{
		opts:   opts,
		client: clients.NewHttpClient(clients.BrowserUserAgent, log),
		fonts:  LoadFonts(log),
		log:    log,
	}
}

func (g *Generator) Close() {
	g.client.Close()
}

// GenerateCover builds the cover from the articles' thumbnails and returns
// it as JPEG bytes. With no usable thumbnail it falls back to the simple
// text cover, it never fails because of a bad thumbnail. When outputPath is
// non-empty the encoded image is also written there.
func (g *Generator) GenerateCover(articles []model.Article, title string, outputPath string) ([]byte, error) {
	g.log.Infof("generating cover from %d articles", len(articles))

	urls := []string{}
	for _, a := range articles {
		if a.ThumbnailURL != "" {
			urls = append(urls, a.ThumbnailURL)
		}
	}
	if len(urls) > g.opts.MaxImages {
		urls = urls[:g.opts.MaxImages]
	}

	images := g.downloadImages(urls)

	var canvas *image.RGBA
	if len(images) == 0 {
		g.log.Warn("no thumbnail images available, creating simple cover")
		canvas = g.ComposeSimpleCover(title)
	} else {
		canvas = g.ComposeMosaic(images, title)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: g.opts.Quality}); err != nil {
		return nil, errors.Wrap(err, "fail to encode cover")
	}
	data := buf.Bytes()

	if outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return nil, errors.Wrapf(err, "fail to create directory for %s", outputPath)
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return nil, errors.Wrapf(err, "fail to save cover to %s", outputPath)
		}
		g.log.Infof("saved cover to %s", outputPath)
	}

	return data, nil
}

// downloadImages fetches and decodes the thumbnails. A failed download or
// decode is logged and skipped, never aborts cover generation.
func (g *Generator) downloadImages(urls []string) []image.Image {
	images := []image.Image{}
	for _, u := range urls {
		g.log.Debugf("downloading image %s", u)
		res, err := g.client.Get(u)
		if err != nil {
			g.log.Debugf("fail to download image %s: %v", u, err)
			continue
		}
		img, _, err := image.Decode(res.Body)
		res.Body.Close()
		if err != nil {
			g.log.Debugf("fail to decode image %s: %v", u, err)
			continue
		}
		images = append(images, img)
	}
	g.log.Infof("successfully downloaded %d images", len(images))
	return images
}

// ComposeMosaic lays the images out in a 2-column grid above the title
// band. Every cell is completely covered by cropped image content; an odd
// image count leaves the last cell showing the background color.
func (g *Generator) ComposeMosaic(images []image.Image, title string) *image.RGBA {
	cols := 2
	rows := (len(images) + cols - 1) / cols

	availableHeight := g.opts.Height - g.opts.BandHeight
	cellWidth := g.opts.Width / cols
	cellHeight := availableHeight / rows

	canvas := image.NewRGBA(image.Rect(0, 0, g.opts.Width, g.opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(mosaicBackground), image.Point{}, draw.Src)

	for idx, img := range images {
		row := idx / cols
		col := idx % cols

		cropped := CropToFill(img, cellWidth, cellHeight)

		x := col * cellWidth
		y := row * cellHeight
		cell := image.Rect(x, y, x+cellWidth, y+cellHeight)
		draw.Draw(canvas, cell, cropped, cropped.Bounds().Min, draw.Src)
	}

	g.addTitleOverlay(canvas, title)
	return canvas
}

// CropToFill scales img so it covers targetWidth x targetHeight while
// preserving aspect ratio, then center-crops the excess. The result exactly
// fills the target rectangle, with no letterboxing.
func CropToFill(img image.Image, targetWidth, targetHeight int) image.Image {
	srcWidth := img.Bounds().Dx()
	srcHeight := img.Bounds().Dy()

	imgRatio := float64(srcWidth) / float64(srcHeight)
	targetRatio := float64(targetWidth) / float64(targetHeight)

	var scaleWidth, scaleHeight int
	if imgRatio > targetRatio {
		// Image is wider: scale by height, crop width.
		scaleHeight = targetHeight
		scaleWidth = int(float64(targetHeight) * imgRatio)
	} else {
		// Image is taller: scale by width, crop height.
		scaleWidth = targetWidth
		scaleHeight = int(float64(targetWidth) / imgRatio)
	}
	// Guard against float truncation undershooting the target.
	if scaleWidth < targetWidth {
		scaleWidth = targetWidth
	}
	if scaleHeight < targetHeight {
		scaleHeight = targetHeight
	}

	scaled := image.NewRGBA(image.Rect(0, 0, scaleWidth, scaleHeight))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	left := (scaleWidth - targetWidth) / 2
	top := (scaleHeight - targetHeight) / 2
	return scaled.SubImage(image.Rect(left, top, left+targetWidth, top+targetHeight))
}

// addTitleOverlay darkens the bottom band and draws the title and creation
// subtitle stacked and centered within it.
func (g *Generator) addTitleOverlay(canvas *image.RGBA, title string) {
	band := image.Rect(0, g.opts.Height-g.opts.BandHeight, g.opts.Width, g.opts.Height)
	draw.Draw(canvas, band, image.NewUniform(bandColor), image.Point{}, draw.Over)

	bandCenterY := g.opts.Height - g.opts.BandHeight/2
	g.drawTitleBlock(canvas, title, g.opts.TitleFontSize, g.opts.SubtitleFontSize, 10, bandCenterY)
}

// ComposeSimpleCover renders the no-image fallback: solid background with
// the title and subtitle centered on the page.
func (g *Generator) ComposeSimpleCover(title string) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, g.opts.Width, g.opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(simpleBackground), image.Point{}, draw.Src)

	g.drawTitleBlock(canvas, title, g.opts.SimpleTitleFontSize, g.opts.SimpleSubtitleFontSize, 20, g.opts.Height/2)
	return canvas
}

// drawTitleBlock draws the title and the creation subtitle stacked with the
// given spacing, each independently horizontally centered, the pair
// vertically centered on centerY.
func (g *Generator) drawTitleBlock(canvas *image.RGBA, title string, titleSize, subtitleSize float64, spacing, centerY int) {
	titleFace, err := g.fonts.TitleFace(titleSize)
	if err != nil {
		g.log.Errorf("fail to build title face: %v", err)
		return
	}
	defer titleFace.Close()
	subtitleFace, err := g.fonts.SubtitleFace(subtitleSize)
	if err != nil {
		g.log.Errorf("fail to build subtitle face: %v", err)
		return
	}
	defer subtitleFace.Close()

	subtitle := fmt.Sprintf("Created on %s, by bskybook", FormatCreationDate(time.Now()))

	titleHeight := faceHeight(titleFace)
	subtitleHeight := faceHeight(subtitleFace)
	total := titleHeight + spacing + subtitleHeight
	startY := centerY - total/2

	drawCenteredString(canvas, title, titleFace, titleColor, g.opts.Width, startY)
	drawCenteredString(canvas, subtitle, subtitleFace, subtitleColor, g.opts.Width, startY+titleHeight+spacing)
}

// drawCenteredString draws s horizontally centered, with the top of the
// line at top.
func drawCenteredString(dst *image.RGBA, s string, face font.Face, c color.Color, width, top int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	advance := d.MeasureString(s)
	x := (width - advance.Round()) / 2
	y := top + face.Metrics().Ascent.Ceil()
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func faceHeight(face font.Face) int {
	m := face.Metrics()
	return m.Ascent.Ceil() + m.Descent.Ceil()
}

// OrdinalSuffix returns the English ordinal suffix for a day of month:
// 1st, 2nd, 3rd, 4th ... 11th, 12th, 13th ... 21st, 22nd, 23rd, 31st.
func OrdinalSuffix(day int) string {
	if day%100 >= 10 && day%100 <= 20 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// FormatCreationDate renders t like "Sunday, 26th of October 2025".
func FormatCreationDate(t time.Time) string {
	day := t.Day()
	return fmt.Sprintf("%s, %d%s of %s", t.Format("Monday"), day, OrdinalSuffix(day), t.Format("January 2006"))
}
