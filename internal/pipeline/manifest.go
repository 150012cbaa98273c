package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kikiluvv/ytclipper/internal/clips"
	"github.com/kikiluvv/ytclipper/internal/video"
	"github.com/kikiluvv/ytclipper/pkg/util"
)

// ManifestFile is the manifest name inside an output directory.
const ManifestFile = "manifest.json"

func newManifest(jobID string, src *video.Source, ann clips.Annotation, rendered []*clips.Clip) *Manifest {
	m := &Manifest{
		JobID:           jobID,
		URL:             src.URL,
		Source:          src.Path,
		DurationSeconds: src.Seconds(),
		Title:           ann.Title,
		Subtitle:        ann.Subtitle,
		Clips:           make([]ManifestClip, 0, len(rendered)),
		CreatedAt:       time.Now().UTC(),
	}
	for _, c := range rendered {
		m.Clips = append(m.Clips, manifestClip(c))
	}
	return m
}

func manifestClip(c *clips.Clip) ManifestClip {
	return ManifestClip{
		ID:    c.ID,
		Index: c.Index,
		File:  filepath.Base(c.Path),
		Start: c.Start.Seconds(),
		End:   c.End.Seconds(),
	}
}

// WriteManifest writes m to dir/manifest.json, replacing any existing file.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, ManifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return util.ReplaceFile(tmp, path)
}

// ReadManifest loads dir/manifest.json.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// UpdateManifestClip rewrites the entry for clip in dir's manifest. A
// missing manifest is not an error.
func UpdateManifestClip(dir string, clip *clips.Clip) error {
	m, err := ReadManifest(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for i := range m.Clips {
		if m.Clips[i].Index == clip.Index {
			m.Clips[i] = manifestClip(clip)
			return WriteManifest(dir, m)
		}
	}
	return nil
}
