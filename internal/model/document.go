package model

import (
	"encoding/json"
	"slices"
)

const (
	DefaultTheme       = "dark"
	DefaultAnimation   = "none"
	DefaultCountryCode = "+91"
)

// PortfolioDocument is the content of one user's portfolio as edited in the form.
// Absent optional values are zero values; lookups never fail on a missing field.
type PortfolioDocument struct {
	Name         string        `json:"name"`
	About        string        `json:"about"`
	ProfileImage string        `json:"profileImage,omitempty"`
	Resume       string        `json:"resume,omitempty"`
	Skills       []string      `json:"skills"`
	Projects     []Project     `json:"projects"`
	Achievements []Achievement `json:"achievements"`
	Experience   []Experience  `json:"experience"`
	SocialLinks  SocialLinks   `json:"socialLinks"`
	Stats        Stats         `json:"stats"`
	Theme        string        `json:"theme"`
	Animation    string        `json:"animation,omitempty"`
}

type Project struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"` // comma delimited
	Link         string `json:"link,omitempty"`
	Image        string `json:"image,omitempty"`
}

// IsPlaceholder reports whether the row only holds form state.
func (p Project) IsPlaceholder() bool {
	return p.Name == ""
}

type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

func (e Experience) IsPlaceholder() bool {
	return e.Title == ""
}

type SocialLinks struct {
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	CountryCode string `json:"countryCode"`
	Github      string `json:"github,omitempty"`
	Linkedin    string `json:"linkedin,omitempty"`
	Instagram   string `json:"instagram,omitempty"`
}

// Stats values are display strings such as "5+", never parsed as numbers.
type Stats struct {
	YearsOfExperience    string `json:"yearsOfExperience,omitempty"`
	ProjectsCompleted    string `json:"projectsCompleted,omitempty"`
	InternshipsCompleted string `json:"internshipsCompleted,omitempty"`
	TotalSkills          string `json:"totalSkills,omitempty"`
}

// NewDocument returns the document an edit session starts with: defaults everywhere
// and one empty row in each repeated section of the form.
func NewDocument() *PortfolioDocument {
	return &PortfolioDocument{
		Skills:       make([]string, 0),
		Projects:     []Project{{}},
		Achievements: []Achievement{TitledAsset("", "")},
		Experience:   []Experience{{}},
		SocialLinks:  SocialLinks{CountryCode: DefaultCountryCode},
		Theme:        DefaultTheme,
		Animation:    DefaultAnimation,
	}
}

// WithDefaults fills the members older stored documents may lack.
func (d *PortfolioDocument) WithDefaults() *PortfolioDocument {
	if d.Skills == nil {
		d.Skills = make([]string, 0)
	}
	if d.Projects == nil {
		d.Projects = make([]Project, 0)
	}
	if d.Achievements == nil {
		d.Achievements = make([]Achievement, 0)
	}
	if d.Experience == nil {
		d.Experience = make([]Experience, 0)
	}
	if d.SocialLinks.CountryCode == "" {
		d.SocialLinks.CountryCode = DefaultCountryCode
	}
	if d.Theme == "" {
		d.Theme = DefaultTheme
	}
	if d.Animation == "" {
		d.Animation = DefaultAnimation
	}
	return d
}

// Clone returns a deep copy that shares no slices with d.
func (d *PortfolioDocument) Clone() *PortfolioDocument {
	if d == nil {
		return nil
	}
	c := *d
	c.Skills = slices.Clone(d.Skills)
	c.Projects = slices.Clone(d.Projects)
	c.Achievements = slices.Clone(d.Achievements)
	c.Experience = slices.Clone(d.Experience)
	return &c
}

// MissingRequired lists the fields that must be filled before publishing.
func (d *PortfolioDocument) MissingRequired() []string {
	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.About == "" {
		missing = append(missing, "about")
	}
	return missing
}

func (d *PortfolioDocument) MarshalBinary() ([]byte, error) {
	return json.Marshal(d)
}

// ParseDocument decodes a serialized document and applies defaults.
func ParseDocument(data []byte) (*PortfolioDocument, error) {
	doc := &PortfolioDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc.WithDefaults(), nil
}
