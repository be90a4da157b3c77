package render

import (
	"strconv"
	"strings"

	"github.com/emrgen/folio/internal/model"
)

// ViewModel is a fully normalized portfolio ready for the page layer. Every
// section flag is decided here; nothing downstream checks optional fields again.
type ViewModel struct {
	Name         string `json:"name"`
	Handle       string `json:"handle"`
	ProfileImage string `json:"profileImage,omitempty"`
	Resume       string `json:"resume,omitempty"`

	ShowAbout bool   `json:"showAbout"`
	About     string `json:"about,omitempty"`

	ShowStats bool      `json:"showStats"`
	Stats     StatsView `json:"stats"`

	ShowSkills bool     `json:"showSkills"`
	Skills     []string `json:"skills"`

	ShowProjects bool          `json:"showProjects"`
	Projects     []ProjectView `json:"projects"`

	ShowExperience bool             `json:"showExperience"`
	Experience     []ExperienceView `json:"experience"`

	ShowAchievements bool              `json:"showAchievements"`
	Achievements     []AchievementView `json:"achievements"`

	Contact ContactView `json:"contact"`
}

type StatsView struct {
	YearsOfExperience    string `json:"yearsOfExperience,omitempty"`
	ProjectsCompleted    string `json:"projectsCompleted,omitempty"`
	InternshipsCompleted string `json:"internshipsCompleted,omitempty"`
	TotalSkills          string `json:"totalSkills,omitempty"`
}

type ProjectView struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Link         string   `json:"link,omitempty"`
	Image        string   `json:"image,omitempty"`
}

type ExperienceView struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

type AchievementView struct {
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
}

type ContactView struct {
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"` // country code and number
	WhatsApp  string `json:"whatsapp,omitempty"`
	Github    string `json:"github,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Resolve normalizes doc into a ViewModel. It reads doc only and never modifies it.
// assetBase prefixes stored asset paths that are not already absolute references.
func Resolve(doc *model.PortfolioDocument, assetBase string) (*ViewModel, error) {
	if doc == nil {
		return nil, ErrInvalidDocument
	}

	vm := &ViewModel{
		Name:         doc.Name,
		Handle:       strings.Join(strings.Fields(doc.Name), ""),
		ProfileImage: AssetURL(doc.ProfileImage, assetBase),
		Resume:       AssetURL(doc.Resume, assetBase),
		ShowAbout:    doc.About != "",
		About:        doc.About,
		Skills:       make([]string, 0, len(doc.Skills)),
		Projects:     make([]ProjectView, 0),
		Experience:   make([]ExperienceView, 0),
		Achievements: make([]AchievementView, 0),
		Contact:      resolveContact(doc.SocialLinks),
	}

	vm.Skills = append(vm.Skills, doc.Skills...)
	vm.ShowSkills = len(vm.Skills) > 0

	vm.Stats = StatsView{
		YearsOfExperience:    doc.Stats.YearsOfExperience,
		ProjectsCompleted:    doc.Stats.ProjectsCompleted,
		InternshipsCompleted: doc.Stats.InternshipsCompleted,
		TotalSkills:          doc.Stats.TotalSkills,
	}
	if vm.Stats.TotalSkills == "" && len(vm.Skills) > 0 {
		vm.Stats.TotalSkills = strconv.Itoa(len(vm.Skills))
	}
	vm.ShowStats = vm.Stats != StatsView{}

	for _, p := range doc.Projects {
		if p.IsPlaceholder() {
			continue
		}
		vm.Projects = append(vm.Projects, ProjectView{
			Name:         p.Name,
			Description:  p.Description,
			Technologies: SplitTags(p.Technologies),
			Link:         p.Link,
			Image:        AssetURL(p.Image, assetBase),
		})
	}
	vm.ShowProjects = len(vm.Projects) > 0

	for _, e := range doc.Experience {
		if e.IsPlaceholder() {
			continue
		}
		vm.Experience = append(vm.Experience, ExperienceView{
			Title:       e.Title,
			Company:     e.Company,
			Duration:    e.Duration,
			Description: e.Description,
		})
	}
	vm.ShowExperience = len(vm.Experience) > 0

	for _, a := range doc.Achievements {
		entry := a.Entry()
		if entry.Title == "" {
			continue
		}
		vm.Achievements = append(vm.Achievements, AchievementView{
			Title: entry.Title,
			Image: AssetURL(entry.Image, assetBase),
		})
	}
	vm.ShowAchievements = len(vm.Achievements) > 0

	return vm, nil
}

func resolveContact(links model.SocialLinks) ContactView {
	c := ContactView{
		Email:     links.Email,
		Github:    links.Github,
		Linkedin:  links.Linkedin,
		Instagram: links.Instagram,
	}

	if links.Phone != "" {
		code := links.CountryCode
		if code == "" {
			code = model.DefaultCountryCode
		}
		c.Phone = code + links.Phone
		c.WhatsApp = "https://wa.me/" + strings.TrimPrefix(code, "+") + digits(links.Phone)
	}

	return c
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
