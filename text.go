package main

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/Zachkp/folio/reveal"
)

//go:embed content.yaml
var defaultContent []byte

// Text sections that can be streamed through the reveal engine
const (
	sectionGreeting = "greeting"
	sectionInfo     = "info"
	sectionProject  = "project"
	sectionSkill    = "skill"
	sectionContact  = "contact"
	sectionLab      = "lab"
)

type Project struct {
	ID          string `yaml:"-"`
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Skill struct {
	ID   string `yaml:"-"`
	Name string `yaml:"name"`
}

type Contact struct {
	ID    string `yaml:"-"`
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	Link  string `yaml:"link,omitempty"`
}

// SiteContent is everything the pages display
type SiteContent struct {
	Greetings []string  `yaml:"greetings"`
	Info      string    `yaml:"info"`
	Projects  []Project `yaml:"projects"`
	Skills    []Skill   `yaml:"skills"`
	Contacts  []Contact `yaml:"contacts"`
}

// Shown when a lab slug is unknown
var fallbackProject = Project{Name: "Project", Description: "An interactive experiment"}

var markupPolicy = bluemonday.UGCPolicy()

func parseContent(data []byte) (*SiteContent, error) {
	var sc SiteContent
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if len(sc.Greetings) == 0 {
		return nil, fmt.Errorf("parse content: at least one greeting is required")
	}

	// Everything ends up in innerHTML, so sanitize once here
	for i := range sc.Greetings {
		sc.Greetings[i] = markupPolicy.Sanitize(sc.Greetings[i])
	}
	sc.Info = markupPolicy.Sanitize(sc.Info)

	seen := make(map[string]bool)
	for i := range sc.Projects {
		p := &sc.Projects[i]
		if p.Slug == "" {
			return nil, fmt.Errorf("parse content: project %d has no slug", i)
		}
		if seen[p.Slug] {
			return nil, fmt.Errorf("parse content: duplicate project slug %q", p.Slug)
		}
		seen[p.Slug] = true
		p.ID = reveal.LeadingZeros(i, 3)
		p.Name = markupPolicy.Sanitize(p.Name)
		p.Description = markupPolicy.Sanitize(p.Description)
	}
	for i := range sc.Skills {
		sc.Skills[i].ID = reveal.LeadingZeros(i, 3)
		sc.Skills[i].Name = markupPolicy.Sanitize(sc.Skills[i].Name)
	}
	for i := range sc.Contacts {
		c := &sc.Contacts[i]
		c.ID = reveal.LeadingZeros(i, 3)
		c.Name = markupPolicy.Sanitize(c.Name)
		c.Value = markupPolicy.Sanitize(c.Value)
	}
	return &sc, nil
}

// Project finds a lab by slug
func (sc *SiteContent) Project(slug string) (Project, bool) {
	for _, p := range sc.Projects {
		if p.Slug == slug {
			return p, true
		}
	}
	return fallbackProject, false
}

// Neighbors returns the labs before and after slug, wrapping around
func (sc *SiteContent) Neighbors(slug string) (prev, next Project) {
	n := len(sc.Projects)
	for i, p := range sc.Projects {
		if p.Slug == slug {
			return sc.Projects[(i+n-1)%n], sc.Projects[(i+1)%n]
		}
	}
	if n == 0 {
		return fallbackProject, fallbackProject
	}
	return sc.Projects[n-1], sc.Projects[0]
}

// Text returns the revealable markup for a section entry
func (sc *SiteContent) Text(section string, i int) (string, bool) {
	switch section {
	case sectionGreeting:
		if i >= 0 && i < len(sc.Greetings) {
			return sc.Greetings[i], true
		}
	case sectionInfo:
		if i == 0 {
			return sc.Info, true
		}
	case sectionProject:
		if i >= 0 && i < len(sc.Projects) {
			return sc.Projects[i].Name, true
		}
	case sectionLab:
		if i >= 0 && i < len(sc.Projects) {
			return sc.Projects[i].Description, true
		}
	case sectionSkill:
		if i >= 0 && i < len(sc.Skills) {
			return sc.Skills[i].Name, true
		}
	case sectionContact:
		if i >= 0 && i < len(sc.Contacts) {
			return sc.Contacts[i].Value, true
		}
	}
	return "", false
}

// contentStore holds the live content and swaps it on reload
type contentStore struct {
	mu      sync.RWMutex
	content *SiteContent
	path    string
	watcher *fsnotify.Watcher
}

var site = &contentStore{}

func (s *contentStore) Get() *SiteContent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content
}

func (s *contentStore) Set(sc *SiteContent) {
	s.mu.Lock()
	s.content = sc
	s.mu.Unlock()
}

// Load reads content from path, or the embedded copy when path is empty
func (s *contentStore) Load(path string) error {
	data := defaultContent
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}
		data = b
	}
	sc, err := parseContent(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.content = sc
	s.path = path
	s.mu.Unlock()
	return nil
}

// Watch reloads the content file whenever it changes on disk
func (s *contentStore) Watch() error {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()
	if path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors replace files on save, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch content directory: %w", err)
	}
	s.watcher = watcher
	go s.watchLoop(watcher, path)

	log.Printf("Watching %s for content changes", path)
	return nil
}

func (s *contentStore) watchLoop(watcher *fsnotify.Watcher, path string) {
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() { s.reload(path) })

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Content watcher error: %v", err)
		}
	}
}

func (s *contentStore) reload(path string) {
	if err := s.Load(path); err != nil {
		// Keep serving the last good content
		log.Printf("Error reloading content: %v", err)
		return
	}
	log.Println("Content reloaded")
}

func (s *contentStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
