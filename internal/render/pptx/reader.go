// Package pptx reads and writes PowerPoint files at the level this server
// needs: slide sizing, text content, and assembling image-only decks. A
// .pptx file is a zip of XML parts; nothing here shells out.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lisashushakova/PresentationConfigurator/internal/domain"
)

// ratioTolerance is how far cx/cy may deviate from an exact aspect ratio
// and still classify. Covers rounding in EMU slide dimensions.
const ratioTolerance = 0.1

// ErrUnsupportedRatio reports a slide size that is neither 16:9 nor 4:3.
type ErrUnsupportedRatio struct {
	Value float64
}

func (e *ErrUnsupportedRatio) Error() string {
	return fmt.Sprintf("unsupported slide aspect ratio %.3f", e.Value)
}

// Reader exposes the parts of one deck file.
type Reader struct {
	zr *zip.Reader
}

// NewReader opens a deck file from memory.
func NewReader(deck []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(deck), int64(len(deck)))
	if err != nil {
		return nil, fmt.Errorf("open deck archive: %w", err)
	}
	return &Reader{zr: zr}, nil
}

// Ratio classifies the deck's slide size.
func (r *Reader) Ratio() (domain.Ratio, error) {
	data, err := r.part("ppt/presentation.xml")
	if err != nil {
		return "", err
	}

	var pres struct {
		SldSz struct {
			CX int64 `xml:"cx,attr"`
			CY int64 `xml:"cy,attr"`
		} `xml:"sldSz"`
	}
	if err := xml.Unmarshal(data, &pres); err != nil {
		return "", fmt.Errorf("parse presentation.xml: %w", err)
	}
	if pres.SldSz.CY == 0 {
		return "", fmt.Errorf("presentation.xml has no slide size")
	}

	value := float64(pres.SldSz.CX) / float64(pres.SldSz.CY)
	switch {
	case abs(value-16.0/9.0) <= ratioTolerance:
		return domain.RatioWidescreen16x9, nil
	case abs(value-4.0/3.0) <= ratioTolerance:
		return domain.RatioStandard4x3, nil
	default:
		return "", &ErrUnsupportedRatio{Value: value}
	}
}

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// SlideTexts returns the concatenated text of each slide in slide order, up
// to maxSlides slides.
func (r *Reader) SlideTexts(maxSlides int) ([]string, error) {
	type slidePart struct {
		num  int
		file *zip.File
	}
	var parts []slidePart

	for _, f := range r.zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, slidePart{num: num, file: f})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].num < parts[j].num })

	if maxSlides > 0 && len(parts) > maxSlides {
		parts = parts[:maxSlides]
	}

	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		rc, err := p.file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p.file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p.file.Name, err)
		}

		text, err := extractText(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p.file.Name, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// SlideCount returns the number of slide parts in the deck.
func (r *Reader) SlideCount() int {
	n := 0
	for _, f := range r.zr.File {
		if slidePartRe.MatchString(f.Name) {
			n++
		}
	}
	return n
}

// Theme returns the deck's first theme part, or nil when absent. Used to
// re-skin assembled decks with a style reference.
func (r *Reader) Theme() []byte {
	data, err := r.part("ppt/theme/theme1.xml")
	if err != nil {
		return nil
	}
	return data
}

func (r *Reader) part(name string) ([]byte, error) {
	for _, f := range r.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("deck has no part %s", name)
}

// extractText walks a slide part and joins every run of drawing text. The
// DrawingML namespace uses <a:t> for text runs; namespaces are matched by
// local name so prefix choices don't matter.
func extractText(slideXML []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(slideXML))

	var (
		parts  []string
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
		case xml.EndElement:
			inText = false
		case xml.CharData:
			if inText {
				if s := strings.TrimSpace(string(t)); s != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, " "), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
