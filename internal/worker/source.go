package worker

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"tileforge/internal/grid"
)

// CSVSource reads granule extracts from the job sandbox's input directory:
// one <granule_key>.csv per granule. The job service stages the directory
// before the worker starts.
type CSVSource struct {
	// Dir is the input directory.
	Dir string
	// MaxGranules caps how many granule files are read. Zero means all;
	// test runs cap at a couple of granules for a quick end-to-end pass.
	MaxGranules int
}

var csvColumns = []string{
	"shot_number",
	"beam_name",
	"absolute_time",
	"lon_lowestmode",
	"lat_lowestmode",
	"elev_lowestmode",
	"quality_flag",
	"sensitivity",
	"sensitivity_a2",
	"degrade_flag",
	"surface_flag",
}

// Observations reads every granule file and returns the rows whose timestamp
// falls in the given year and whose position falls in the tile. Files are
// visited in sorted order so repeated calls see identical data.
func (s *CSVSource) Observations(ctx context.Context, tile grid.Tile, year int) ([]Observation, error) {
	pattern := filepath.Join(s.Dir, "*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("scan input dir: %w", err)
	}
	sort.Strings(files)
	if s.MaxGranules > 0 && len(files) > s.MaxGranules {
		files = files[:s.MaxGranules]
	}

	var out []Observation
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs, err := readGranule(file, tile, year)
		if err != nil {
			return nil, err
		}
		out = append(out, obs...)
	}
	return out, nil
}

func readGranule(path string, tile grid.Tile, year int) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open granule: %w", err)
	}
	defer f.Close()

	granuleKey := strings.TrimSuffix(filepath.Base(path), ".csv")
	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("granule %s: read header: %w", granuleKey, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range csvColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("granule %s: missing column %q", granuleKey, name)
		}
	}

	var out []Observation
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("granule %s line %d: %w", granuleKey, line, err)
		}
		o, err := parseRow(rec, col)
		if err != nil {
			return nil, fmt.Errorf("granule %s line %d: %w", granuleKey, line, err)
		}
		ts := time.UnixMicro(o.AbsoluteTime).UTC()
		if ts.Year() != year {
			continue
		}
		if !tile.Contains(o.LonLowestmode, o.LatLowestmode) {
			continue
		}
		o.GranuleKey = granuleKey
		out = append(out, o)
	}
	return out, nil
}

func parseRow(rec []string, col map[string]int) (Observation, error) {
	var o Observation
	var err error

	field := func(name string) string { return strings.TrimSpace(rec[col[name]]) }

	if o.ShotNumber, err = strconv.ParseUint(field("shot_number"), 10, 64); err != nil {
		return o, fmt.Errorf("shot_number: %w", err)
	}
	o.BeamName = field("beam_name")

	ts, err := time.Parse(time.RFC3339, field("absolute_time"))
	if err != nil {
		return o, fmt.Errorf("absolute_time: %w", err)
	}
	o.AbsoluteTime = ts.UTC().UnixMicro()

	if o.LonLowestmode, err = strconv.ParseFloat(field("lon_lowestmode"), 64); err != nil {
		return o, fmt.Errorf("lon_lowestmode: %w", err)
	}
	if o.LatLowestmode, err = strconv.ParseFloat(field("lat_lowestmode"), 64); err != nil {
		return o, fmt.Errorf("lat_lowestmode: %w", err)
	}
	if o.ElevLowestmode, err = strconv.ParseFloat(field("elev_lowestmode"), 64); err != nil {
		return o, fmt.Errorf("elev_lowestmode: %w", err)
	}
	if o.Sensitivity, err = strconv.ParseFloat(field("sensitivity"), 64); err != nil {
		return o, fmt.Errorf("sensitivity: %w", err)
	}
	if o.SensitivityA2, err = strconv.ParseFloat(field("sensitivity_a2"), 64); err != nil {
		return o, fmt.Errorf("sensitivity_a2: %w", err)
	}

	for _, flag := range []struct {
		name string
		dst  *int32
	}{
		{"quality_flag", &o.QualityFlag},
		{"degrade_flag", &o.DegradeFlag},
		{"surface_flag", &o.SurfaceFlag},
	} {
		v, err := strconv.ParseInt(field(flag.name), 10, 32)
		if err != nil {
			return o, fmt.Errorf("%s: %w", flag.name, err)
		}
		*flag.dst = int32(v)
	}
	return o, nil
}
