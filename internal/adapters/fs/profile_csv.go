package fs

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/llb-tools/llbreduce/internal/domain"
)

var csvHeader = []string{"d_spacing", "intensity", "error"}

// ProfileCSV implements ports.ProfileSink by writing one row per bin.
type ProfileCSV struct {
	path string
}

// NewProfileCSV creates a sink writing to path.
func NewProfileCSV(path string) *ProfileCSV {
	return &ProfileCSV{path: path}
}

// Write replaces the file with the current profile.
func (s *ProfileCSV) Write(p *domain.Profile) error {
	return WriteAtomic(s.path, func(w io.Writer) error {
		return EncodeProfile(w, p)
	})
}

// Path returns the output path.
func (s *ProfileCSV) Path() string { return s.path }

// EncodeProfile writes the profile as CSV with a header row.
func EncodeProfile(w io.Writer, p *domain.Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	centers, counts, errs := p.Centers(), p.Counts(), p.Errors()
	for i := range centers {
		row := []string{
			strconv.FormatFloat(centers[i], 'f', 6, 64),
			strconv.FormatFloat(counts[i], 'g', -1, 64),
			strconv.FormatFloat(errs[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
