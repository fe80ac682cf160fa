package library

import (
	"fmt"

	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

// Profile aggregates the language-model scores for one story. It is
// identified by its backing file path. Each sub-score is a descriptor of
// its own; Profile cascades SetTags/UnsetTags through all of them.
type Profile struct {
	Path       string      `yaml:"path"`
	Maturity   *Maturity   `yaml:"maturity,omitempty"`
	Difficulty *Difficulty `yaml:"difficulty,omitempty"`
	Topics     []*Topic    `yaml:"topics,omitempty"`
	Ideologies []*Ideology `yaml:"ideologies,omitempty"`

	owner *Book
}

func (p *Profile) NodeName() string  { return "profile:" + p.Path }
func (p *Profile) Kind() string      { return "profile" }
func (p *Profile) Owner() Descriptor { return ownerOrNil(p.owner) }

func (p *Profile) children() []Descriptor {
	var out []Descriptor
	if p.Maturity != nil {
		p.Maturity.owner = p
		out = append(out, p.Maturity)
	}
	if p.Difficulty != nil {
		p.Difficulty.owner = p
		out = append(out, p.Difficulty)
	}
	for _, t := range p.Topics {
		t.owner = p
		out = append(out, t)
	}
	for _, i := range p.Ideologies {
		i.owner = p
		out = append(out, i)
	}
	return out
}

func (p *Profile) SetTags(g *taggraph.Graph) error {
	for _, c := range p.children() {
		if err := c.SetTags(g); err != nil {
			return err
		}
	}
	return nil
}

func (p *Profile) UnsetTags(g *taggraph.Graph) {
	for _, c := range p.children() {
		c.UnsetTags(g)
	}
	untag(g, p)
}

// Maturity records the restricted flag and which content categories the
// scorer found present or absent, with supporting examples.
type Maturity struct {
	Restricted bool     `yaml:"restricted"`
	Present    []string `yaml:"present,omitempty"`
	Absent     []string `yaml:"absent,omitempty"`
	Examples   []string `yaml:"examples,omitempty"`

	owner *Profile
}

func (m *Maturity) NodeName() string  { return "maturity:" + m.owner.Path }
func (m *Maturity) Kind() string      { return "maturity" }
func (m *Maturity) Owner() Descriptor { return m.owner }

func (m *Maturity) SetTags(g *taggraph.Graph) error {
	if m.Restricted {
		if err := tagValue(g, DimMaturity, "restricted", nil, m); err != nil {
			return err
		}
	}
	for _, cat := range m.Present {
		if err := tagValue(g, DimMaturity, cat, nil, m); err != nil {
			return err
		}
	}
	return nil
}

func (m *Maturity) UnsetTags(g *taggraph.Graph) { untag(g, m) }

// Difficulty records reading difficulty: estimated years of education
// (carried as a connection weight so it sorts numerically), the named
// reading level, and the difficult vocabulary found.
type Difficulty struct {
	EducationYears float64  `yaml:"education_years"`
	ReadingLevel   string   `yaml:"reading_level,omitempty"`
	Words          []string `yaml:"words,omitempty"`
	Phrases        []string `yaml:"phrases,omitempty"`

	owner *Profile
}

func (d *Difficulty) NodeName() string  { return "difficulty:" + d.owner.Path }
func (d *Difficulty) Kind() string      { return "difficulty" }
func (d *Difficulty) Owner() Descriptor { return d.owner }

func (d *Difficulty) SetTags(g *taggraph.Graph) error {
	w := taggraph.Float64(d.EducationYears)
	years := fmt.Sprintf("years-%g", d.EducationYears)
	if err := tagWeightedValue(g, DimEducation, years, w, d); err != nil {
		return err
	}
	if d.ReadingLevel != "" {
		if err := tagValue(g, DimReadingLevel, d.ReadingLevel, nil, d); err != nil {
			return err
		}
	}
	for _, word := range d.Words {
		if err := tagValue(g, DimDifficult, word, nil, d); err != nil {
			return err
		}
	}
	return nil
}

func (d *Difficulty) UnsetTags(g *taggraph.Graph) { untag(g, d) }

// Topic is one subject the scorer identified, with examples.
type Topic struct {
	ID       string   `yaml:"id"`
	Examples []string `yaml:"examples,omitempty"`

	owner *Profile
}

func (t *Topic) NodeName() string  { return "topic:" + t.owner.Path + "/" + t.ID }
func (t *Topic) Kind() string      { return "topic" }
func (t *Topic) Owner() Descriptor { return t.owner }

func (t *Topic) SetTags(g *taggraph.Graph) error {
	return tagValue(g, DimTopic, t.ID, nil, t)
}

func (t *Topic) UnsetTags(g *taggraph.Graph) { untag(g, t) }

// Ideology is one ideological leaning the scorer identified; Presence
// (0-1) lands as the connection weight.
type Ideology struct {
	ID       string   `yaml:"id"`
	Presence float64  `yaml:"presence"`
	Examples []string `yaml:"examples,omitempty"`

	owner *Profile
}

func (i *Ideology) NodeName() string  { return "ideology:" + i.owner.Path + "/" + i.ID }
func (i *Ideology) Kind() string      { return "ideology" }
func (i *Ideology) Owner() Descriptor { return i.owner }

func (i *Ideology) SetTags(g *taggraph.Graph) error {
	return tagValue(g, DimIdeology, i.ID, taggraph.Float64(i.Presence), i)
}

func (i *Ideology) UnsetTags(g *taggraph.Graph) { untag(g, i) }
