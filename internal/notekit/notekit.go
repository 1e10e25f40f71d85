// Package notekit parses the vendor's binary note container and renders
// its pages to PNG. A container starts with a version signature, carries
// metadata as address-linked blocks of <KEY:VALUE> pairs, and ends with a
// 4-byte little-endian trailer pointing at the footer block. The footer
// lists page block addresses; each page names its id and main layer, and
// the layer points at a run-length-encoded grayscale bitmap.
package notekit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"strconv"
)

// ErrMalformed is returned when the bytes are not a valid note container.
var ErrMalformed = errors.New("notekit: malformed document")

const (
	signaturePrefix = "noteSN_FILE_VER_"

	// Fixed device canvas.
	pageWidth  = 1404
	pageHeight = 1872
)

var metaPair = regexp.MustCompile(`<([^:<>]+):([^<>]*)>`)

type pageInfo struct {
	id         string
	bitmapAddr int
}

// Document is a parsed note container.
type Document struct {
	data  []byte
	pages []pageInfo
}

// Parse validates the container and indexes its pages.
func Parse(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte(signaturePrefix)) {
		return nil, fmt.Errorf("%w: missing signature", ErrMalformed)
	}
	if len(data) < len(signaturePrefix)+4 {
		return nil, fmt.Errorf("%w: truncated trailer", ErrMalformed)
	}
	footerAddr := int(binary.LittleEndian.Uint32(data[len(data)-4:]))
	footer, err := readBlock(data, footerAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: footer: %v", ErrMalformed, err)
	}
	meta := parseMeta(footer)

	var pages []pageInfo
	for i := 1; ; i++ {
		addrs := meta["PAGE"+strconv.Itoa(i)]
		if len(addrs) == 0 {
			break
		}
		page, err := parsePage(data, addrs[0])
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrMalformed, i, err)
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrMalformed)
	}
	return &Document{data: data, pages: pages}, nil
}

func parsePage(data []byte, addr string) (pageInfo, error) {
	block, err := readBlockAt(data, addr)
	if err != nil {
		return pageInfo{}, err
	}
	meta := parseMeta(block)
	ids := meta["PAGEID"]
	if len(ids) == 0 || ids[0] == "" {
		return pageInfo{}, errors.New("missing PAGEID")
	}
	page := pageInfo{id: ids[0]}

	// A page without a main layer bitmap renders blank.
	if layers := meta["MAINLAYER"]; len(layers) > 0 && layers[0] != "" && layers[0] != "0" {
		layerBlock, err := readBlockAt(data, layers[0])
		if err != nil {
			return pageInfo{}, fmt.Errorf("main layer: %v", err)
		}
		layerMeta := parseMeta(layerBlock)
		if bitmaps := layerMeta["LAYERBITMAP"]; len(bitmaps) > 0 && bitmaps[0] != "" && bitmaps[0] != "0" {
			bitmapAddr, err := strconv.Atoi(bitmaps[0])
			if err != nil {
				return pageInfo{}, fmt.Errorf("bad LAYERBITMAP address %q", bitmaps[0])
			}
			page.bitmapAddr = bitmapAddr
		}
	}
	return page, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// PageID returns the embedded id of a page.
func (d *Document) PageID(index int) (string, error) {
	if index < 0 || index >= len(d.pages) {
		return "", fmt.Errorf("page %d out of range [0, %d)", index, len(d.pages))
	}
	return d.pages[index].id, nil
}

// RenderPage decodes a page's bitmap and encodes it as a PNG.
func (d *Document) RenderPage(index int) ([]byte, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range [0, %d)", index, len(d.pages))
	}
	img := image.NewGray(image.Rect(0, 0, pageWidth, pageHeight))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	if addr := d.pages[index].bitmapAddr; addr != 0 {
		bitmap, err := readBlock(d.data, addr)
		if err != nil {
			return nil, fmt.Errorf("page %d bitmap: %w", index, err)
		}
		decodeRLE(bitmap, img.Pix)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding page %d: %w", index, err)
	}
	return buf.Bytes(), nil
}

// readBlock reads the length-prefixed block starting at addr.
func readBlock(data []byte, addr int) ([]byte, error) {
	if addr <= 0 || addr+4 > len(data) {
		return nil, fmt.Errorf("block address %d out of bounds", addr)
	}
	n := int(binary.LittleEndian.Uint32(data[addr : addr+4]))
	if addr+4+n > len(data) {
		return nil, fmt.Errorf("block at %d runs past end of file", addr)
	}
	return data[addr+4 : addr+4+n], nil
}

func readBlockAt(data []byte, addr string) ([]byte, error) {
	n, err := strconv.Atoi(addr)
	if err != nil {
		return nil, fmt.Errorf("bad block address %q", addr)
	}
	return readBlock(data, n)
}

// parseMeta extracts <KEY:VALUE> pairs; keys may repeat.
func parseMeta(block []byte) map[string][]string {
	meta := make(map[string][]string)
	for _, m := range metaPair.FindAllSubmatch(block, -1) {
		key, value := string(m[1]), string(m[2])
		meta[key] = append(meta[key], value)
	}
	return meta
}

// decodeRLE expands (colorcode, length) pairs into the pixel buffer.
// Lengths with the high bit set encode long runs in 128-pixel units.
// Trailing pixels beyond the encoded data stay background white.
func decodeRLE(data []byte, pix []byte) {
	pos := 0
	for i := 0; i+1 < len(data) && pos < len(pix); i += 2 {
		shade := shadeOf(data[i])
		length := int(data[i+1])
		run := length + 1
		if length&0x80 != 0 {
			run = ((length & 0x7f) + 1) << 7
		}
		if pos+run > len(pix) {
			run = len(pix) - pos
		}
		for j := 0; j < run; j++ {
			pix[pos+j] = shade
		}
		pos += run
	}
}

func shadeOf(code byte) byte {
	switch code {
	case 0x61:
		return 0x00 // black
	case 0x62:
		return 0xff // background
	case 0x63:
		return 0x30 // dark gray
	case 0x64:
		return 0x9d // gray
	case 0x65:
		return 0xfe // white
	default:
		// Device firmware also emits direct grayscale values.
		return code
	}
}
