// Package catalog holds the fixed course, learning-path, mentor and
// immersive-scene datasets the progress layer reads. The data is seeded in
// code; nothing here is persisted or mutated at runtime.
package catalog

import "strings"

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

type Module struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	DurationLabel string `json:"duration"`
}

type Course struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Level         string   `json:"level"`
	DurationLabel string   `json:"duration"`
	Modules       []Module `json:"modules"`
}

type Stage struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	CourseIDs []string `json:"courseIds"`
}

type Path struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Elite  bool    `json:"elite"`
	Stages []Stage `json:"stages"`
}

type Mentor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type SceneCue struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	Stage          string `json:"stage"`
	FacilitatorCue string `json:"facilitatorCue"`
	SuccessSignal  string `json:"successSignal"`
}

type Scene struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Cues  []SceneCue `json:"cues"`
}

type Catalog struct {
	courses map[string]Course
	order   []string
	paths   []Path
	mentors []Mentor
	scenes  map[string]Scene
}

// New returns the built-in catalog.
func New() *Catalog {
	c := &Catalog{
		courses: make(map[string]Course, len(seedCourses)),
		scenes:  make(map[string]Scene, len(seedScenes)),
		paths:   seedPaths,
		mentors: seedMentors,
	}
	for _, course := range seedCourses {
		c.courses[course.ID] = course
		c.order = append(c.order, course.ID)
	}
	for _, scene := range seedScenes {
		c.scenes[scene.ID] = scene
	}
	return c
}

func (c *Catalog) Courses() []Course {
	items := make([]Course, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, c.courses[id])
	}
	return items
}

func (c *Catalog) CourseByID(id string) (Course, bool) {
	course, ok := c.courses[strings.TrimSpace(id)]
	return course, ok
}

func (c *Catalog) ModuleByID(courseID, moduleID string) (Module, bool) {
	course, ok := c.CourseByID(courseID)
	if !ok {
		return Module{}, false
	}
	for _, module := range course.Modules {
		if module.ID == moduleID {
			return module, true
		}
	}
	return Module{}, false
}

func (c *Catalog) Paths() []Path {
	return c.paths
}

func (c *Catalog) PathByID(id string) (Path, bool) {
	for _, path := range c.paths {
		if path.ID == id {
			return path, true
		}
	}
	return Path{}, false
}

func (c *Catalog) Mentors() []Mentor {
	return c.mentors
}

func (c *Catalog) Scenes() []Scene {
	return append([]Scene(nil), seedScenes...)
}

func (c *Catalog) SceneByID(id string) (Scene, bool) {
	scene, ok := c.scenes[strings.TrimSpace(id)]
	return scene, ok
}
