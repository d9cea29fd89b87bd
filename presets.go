package geocam

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ViewPreset is a named camera pose loaded from a YAML file. Optional fields
// are pointers so a preset can pin only some axes and leave the rest alone.
type ViewPreset struct {
	Name    string    `yaml:"name"`
	Center  []float64 `yaml:"center,flow"` // [lng, lat]
	Zoom    *float64  `yaml:"zoom,omitempty"`
	Bearing *float64  `yaml:"bearing,omitempty"`
	Pitch   *float64  `yaml:"pitch,omitempty"`
	// Transition selects how the preset is applied: "jump" (default),
	// "ease" or "fly". Duration is a time.ParseDuration string like "750ms".
	Transition string `yaml:"transition,omitempty"`
	Duration   string `yaml:"duration,omitempty"`
}

// ViewPresetSet is an ordered collection of presets keyed by name.
type ViewPresetSet struct {
	Presets []ViewPreset `yaml:"presets"`
}

// LoadViewPresets reads a preset set from a YAML file.
func LoadViewPresets(filename string) (*ViewPresetSet, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var set ViewPresetSet
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", filename, err)
	}
	for i, p := range set.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d in %s has no name", i, filename)
		}
		if len(p.Center) != 0 && len(p.Center) != 2 {
			return nil, fmt.Errorf("preset %q: center must be [lng, lat]", p.Name)
		}
	}
	return &set, nil
}

// SaveViewPresets writes a preset set to a YAML file.
func SaveViewPresets(set *ViewPresetSet, filename string) error {
	raw, err := yaml.Marshal(set)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, raw, 0644)
}

// Find returns the preset with the given name, or nil.
func (s *ViewPresetSet) Find(name string) *ViewPreset {
	for i := range s.Presets {
		if s.Presets[i].Name == name {
			return &s.Presets[i]
		}
	}
	return nil
}

// ApplyPreset drives the camera to a preset pose using the transition the
// preset names.
func (c *Camera) ApplyPreset(p *ViewPreset, data EventData) error {
	var center *LngLat
	if len(p.Center) == 2 {
		ll, err := NewLngLat(p.Center[0], p.Center[1])
		if err != nil {
			return err
		}
		center = &ll
	}

	var duration *time.Duration
	if p.Duration != "" {
		d, err := time.ParseDuration(p.Duration)
		if err != nil {
			return fmt.Errorf("preset %q: %w", p.Name, err)
		}
		duration = Ptr(d)
	}

	switch p.Transition {
	case "ease":
		return c.EaseTo(EaseOptions{
			Center: center, Zoom: p.Zoom, Bearing: p.Bearing, Pitch: p.Pitch,
			Duration: duration,
		}, data)
	case "fly":
		return c.FlyTo(FlyToOptions{EaseOptions: EaseOptions{
			Center: center, Zoom: p.Zoom, Bearing: p.Bearing, Pitch: p.Pitch,
			Duration: duration,
		}}, data)
	case "", "jump":
		return c.JumpTo(JumpToOptions{
			Center: center, Zoom: p.Zoom, Bearing: p.Bearing, Pitch: p.Pitch,
		}, data)
	default:
		return fmt.Errorf("preset %q: unknown transition %q", p.Name, p.Transition)
	}
}

// PresetWatcher watches directories of preset YAML files and reports the
// path of each changed file once the change burst has settled.
type PresetWatcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewPresetWatcher starts watching the given directories.
func NewPresetWatcher(dirs ...string) (*PresetWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	watcher := &PresetWatcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *PresetWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

// run collapses write bursts with a trailing debounce: file names accumulate
// while events keep arriving and are reported once the file has been quiet
// for the debounce window, so the last write of a burst is never dropped.
// run owns the output channels and closes them on exit.
func (w *PresetWatcher) run() {
	const debounce = 100 * time.Millisecond

	defer close(w.Errors)
	defer close(w.Events)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var quiet <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isPresetFile(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			quiet = timer.C
		case <-quiet:
			quiet = nil
			for name := range pending {
				delete(pending, name)
				select {
				case w.Events <- name:
				case <-w.closeCh:
					return
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			case <-w.closeCh:
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

func isPresetFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
