package bandstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"golang.org/x/net/context"
)

var registerDrivers sync.Once

// BandKeyFromFilename derives the store key from a source filename
// following the positional naming convention: extension separators are
// unified with underscores and the second-to-last token is the band
// identifier (e.g. S2_20200615_04.tif yields identifier 04 and key
// B04). The reserved composite identifier maps to CompositeKey.
func BandKeyFromFilename(filename string) (string, error) {
	tokens := strings.Split(strings.ReplaceAll(filename, ".", "_"), "_")
	if len(tokens) < 2 {
		return "", fmt.Errorf("filename %s does not encode a band identifier as its second-to-last token", filename)
	}
	id := tokens[len(tokens)-2]
	if id == "" {
		return "", fmt.Errorf("filename %s yields an empty band identifier", filename)
	}
	if id == CompositeKey {
		return CompositeKey, nil
	}
	return bandKeyPrefix + id, nil
}

// Load builds the band store from every regular file in dir. When
// bandFiles is non-empty it is used as an explicit role-to-filename
// table validated up front; otherwise each key is derived from the
// filename convention. Any unreadable or undecodable file is fatal.
func Load(ctx context.Context, dir string, bandFiles map[string]string) (*Store, error) {
	if len(bandFiles) > 0 {
		return loadMapped(ctx, dir, bandFiles)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read data directory %s: %v", dir, err)
	}

	bands := make(map[string]*Band)
	var composite *Composite
	keySources := make(map[string]string)

	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("cannot stat %s: %v", entry.Name(), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		key, err := BandKeyFromFilename(entry.Name())
		if err != nil {
			return nil, err
		}
		if prev, found := keySources[key]; found {
			return nil, fmt.Errorf("band name collision: %s derived from both %s and %s", key, prev, entry.Name())
		}
		keySources[key] = entry.Name()

		if err := readInto(bands, &composite, key, filepath.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
	}

	if len(bands) == 0 {
		return nil, fmt.Errorf("data directory %s contains no band rasters", dir)
	}

	return NewStore(bands, composite)
}

func loadMapped(ctx context.Context, dir string, bandFiles map[string]string) (*Store, error) {
	fileRoles := make(map[string]string)
	for _, role := range sortedRoles(bandFiles) {
		filename := bandFiles[role]
		if role == "" || filename == "" {
			return nil, fmt.Errorf("band file table contains an empty role or filename")
		}
		if prev, found := fileRoles[filename]; found {
			return nil, fmt.Errorf("band file table maps both %s and %s to %s", prev, role, filename)
		}
		fileRoles[filename] = role
	}

	bands := make(map[string]*Band)
	var composite *Composite

	for _, role := range sortedRoles(bandFiles) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		path := filepath.Join(dir, bandFiles[role])
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("band %s: missing source file %s: %v", role, path, err)
		}
		if err := readInto(bands, &composite, role, path); err != nil {
			return nil, err
		}
	}

	if len(bands) == 0 {
		return nil, fmt.Errorf("band file table for %s names no band rasters", dir)
	}

	return NewStore(bands, composite)
}

// readInto decodes one raster into either the band map or the
// composite slot. Stored arrays are always float64 regardless of the
// source pixel encoding.
func readInto(bands map[string]*Band, composite **Composite, key, path string) error {
	registerDrivers.Do(godal.RegisterAll)

	ds, err := godal.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open raster %s: %v", path, err)
	}
	defer ds.Close()

	structure := ds.Structure()
	width, height := structure.SizeX, structure.SizeY

	if key == CompositeKey {
		if structure.NBands < 2 {
			return fmt.Errorf("composite raster %s has %d channel(s), expected a multi-channel file", path, structure.NBands)
		}
		// Raw decode order is channel-major; storage order is
		// row-major spatial with the channel axis last.
		raw := make([]float64, width*height*structure.NBands)
		if err := ds.Read(0, 0, raw, width, height, godal.BandInterleaved()); err != nil {
			return fmt.Errorf("cannot decode raster %s: %v", path, err)
		}
		*composite = &Composite{
			Data:     interleaveChannels(raw, height, width, structure.NBands),
			Height:   height,
			Width:    width,
			Channels: structure.NBands,
		}
		return nil
	}

	if structure.NBands != 1 {
		return fmt.Errorf("band raster %s has %d channels, expected 1", path, structure.NBands)
	}
	data := make([]float64, width*height)
	if err := ds.Bands()[0].Read(0, 0, data, width, height); err != nil {
		return fmt.Errorf("cannot decode raster %s: %v", path, err)
	}
	bands[key] = &Band{Name: key, Data: data, Height: height, Width: width}
	return nil
}

// interleaveChannels reorders a channel-major buffer ([c][y][x]) into a
// pixel-interleaved one ([y][x][c]).
func interleaveChannels(src []float64, height, width, channels int) []float64 {
	dst := make([]float64, len(src))
	plane := height * width
	for c := 0; c < channels; c++ {
		for i := 0; i < plane; i++ {
			dst[i*channels+c] = src[c*plane+i]
		}
	}
	return dst
}

func sortedRoles(bandFiles map[string]string) []string {
	roles := make([]string, 0, len(bandFiles))
	for role := range bandFiles {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
