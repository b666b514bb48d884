package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Image is one element of the unique-image sequence: the content hash of the
// encoded bytes and the file the image was persisted to.
type Image struct {
	Hash string
	Path string
}

// rawImage is an embedded raster resource in document order, before
// de-duplication.
type rawImage struct {
	pageNr   int
	objNr    int
	fileType string
	data     []byte
}

// Images walks the document's embedded raster resources in page order (and,
// within a page, object-number order), de-duplicates them by SHA-256 over the
// encoded bytes, and persists each first-seen distinct image to imageDir as
// note_<n>.<ext> with a gapless counter starting at 1.
//
// The first distinct image in the whole document is the reader logo: its hash
// is recorded so later copies still deduplicate, but it is neither persisted
// nor returned.
//
// imageDir is cleared before extraction so stale files from a previous run
// cannot leak into the note-to-image correlation.
func Images(path, imageDir string) ([]Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	pages, err := api.ExtractImagesRaw(f, nil, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("extracting images: %w", err)
	}

	raws, err := flatten(pages)
	if err != nil {
		return nil, err
	}
	return writeUnique(raws, imageDir)
}

// flatten reads every raster resource into memory and orders the whole set
// by (page, object number). A read failure is fatal for the document: a
// silently skipped resource would shift every later note's image assignment.
func flatten(pages []map[int]model.Image) ([]rawImage, error) {
	var raws []rawImage
	for _, pageImages := range pages {
		objNrs := make([]int, 0, len(pageImages))
		for nr := range pageImages {
			objNrs = append(objNrs, nr)
		}
		sort.Ints(objNrs)

		for _, nr := range objNrs {
			img := pageImages[nr]
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("reading image object %d on page %d: %w", nr, img.PageNr, err)
			}
			raws = append(raws, rawImage{
				pageNr:   img.PageNr,
				objNr:    nr,
				fileType: img.FileType,
				data:     data,
			})
		}
	}
	sort.Slice(raws, func(i, j int) bool {
		if raws[i].pageNr != raws[j].pageNr {
			return raws[i].pageNr < raws[j].pageNr
		}
		return raws[i].objNr < raws[j].objNr
	})
	return raws, nil
}

// writeUnique applies the dedup rule, drops the leading logo, and persists
// the survivors under sequential names.
func writeUnique(raws []rawImage, imageDir string) ([]Image, error) {
	if err := clearDir(imageDir); err != nil {
		return nil, fmt.Errorf("preparing image dir: %w", err)
	}

	seen := make(map[string]bool)
	images := make([]Image, 0, len(raws))
	counter := 1

	for _, raw := range raws {
		sum := sha256.Sum256(raw.data)
		hash := hex.EncodeToString(sum[:])
		if seen[hash] {
			continue
		}
		logo := len(seen) == 0
		seen[hash] = true
		if logo {
			// First distinct image in the document is the reader logo.
			slog.Debug("extract: skipping reader logo", "page", raw.pageNr, "obj", raw.objNr)
			continue
		}

		name := fmt.Sprintf("note_%03d.%s", counter, extension(raw.fileType))
		path := filepath.Join(imageDir, name)
		if err := os.WriteFile(path, raw.data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		images = append(images, Image{Hash: hash, Path: path})
		counter++
	}

	slog.Info("extract: unique note images persisted", "count", len(images), "dir", imageDir)
	return images, nil
}

// clearDir empties imageDir, creating it if needed.
func clearDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func extension(fileType string) string {
	if fileType == "" {
		return "png"
	}
	return fileType
}

// Paths projects the storage references out of an image sequence, in order.
func Paths(images []Image) []string {
	paths := make([]string, len(images))
	for i, img := range images {
		paths[i] = img.Path
	}
	return paths
}
