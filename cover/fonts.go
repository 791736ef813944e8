package cover

import (
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Candidate font files tried in order before falling back to the embedded
// Go fonts. The fallback means font loading can never fail.
var fontCandidates = []struct {
	bold    string
	regular string
}{
	{
		bold:    "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
		regular: "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	},
	{
		bold:    "/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
		regular: "/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	},
}

// FontSet holds the parsed title (bold) and subtitle (regular) fonts.
type FontSet struct {
	bold    *opentype.Font
	regular *opentype.Font
}

// LoadFonts returns the first loadable candidate font pair, falling back to
// the fonts embedded in the binary.
func LoadFonts(log *logrus.Entry) *FontSet {
	for _, candidate := range fontCandidates {
		bold, err := parseFontFile(candidate.bold)
		if err != nil {
			log.Debugf("fail to load font %s: %v", candidate.bold, err)
			continue
		}
		regular, err := parseFontFile(candidate.regular)
		if err != nil {
			log.Debugf("fail to load font %s: %v", candidate.regular, err)
			continue
		}
		return &FontSet{bold: bold, regular: regular}
	}

	// The embedded Go fonts always parse.
	bold, _ := opentype.Parse(gobold.TTF)
	regular, _ := opentype.Parse(goregular.TTF)
	return &FontSet{bold: bold, regular: regular}
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}

// TitleFace returns a bold face at the given point size.
func (s *FontSet) TitleFace(size float64) (font.Face, error) {
	return opentype.NewFace(s.bold, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// SubtitleFace returns a regular face at the given point size.
func (s *FontSet) SubtitleFace(size float64) (font.Face, error) {
	return opentype.NewFace(s.regular, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}
