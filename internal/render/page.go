package render

import (
	"html/template"
	"io"

	"github.com/emrgen/folio/internal/theme"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .View.Name}}{{.View.Name}}{{else}}Portfolio{{end}}</title>
<link rel="stylesheet" href="/static/portfolio.css">
</head>
<body>
<div class="portfolio-container {{.Variant.ThemeClass}} {{.Variant.AnimationClass}}{{if .Variant.ForcedContrast}} forced-contrast{{end}}">
{{- if .Variant.DecorativeBackground}}
<div class="animated-bg" aria-hidden="true"><span class="orb orb-1"></span><span class="orb orb-2"></span><span class="orb orb-3"></span></div>
{{- end}}
{{with .View}}
<header class="portfolio-header">
  {{if .ProfileImage}}<img class="profile-image" src="{{.ProfileImage}}" alt="{{.Name}}">{{end}}
  <div class="intro-text">
    <h1 class="greeting">Hi, I'm <span class="name-highlight">{{.Name}}</span></h1>
    {{if .Contact.Email}}<p class="email">{{.Contact.Email}}</p>{{end}}
    {{if .Resume}}<a class="resume-btn" href="{{.Resume}}" target="_blank" rel="noopener noreferrer">Resume</a>{{end}}
  </div>
</header>
{{if .ShowStats}}
<section class="stats">
  {{if .Stats.YearsOfExperience}}<div class="stat"><h3>{{.Stats.YearsOfExperience}}</h3><p>Experience</p></div>{{end}}
  {{if .Stats.ProjectsCompleted}}<div class="stat"><h3>{{.Stats.ProjectsCompleted}}</h3><p>Projects</p></div>{{end}}
  {{if .Stats.InternshipsCompleted}}<div class="stat"><h3>{{.Stats.InternshipsCompleted}}</h3><p>Internships</p></div>{{end}}
  {{if .Stats.TotalSkills}}<div class="stat"><h3>{{.Stats.TotalSkills}}</h3><p>Skills</p></div>{{end}}
</section>
{{end}}
{{if .ShowAbout}}
<section class="section about"><h2 class="section-title">About Me</h2><p class="about-text">{{.About}}</p></section>
{{end}}
{{if .ShowSkills}}
<section class="section skills"><h2 class="section-title">Skills</h2>
  <div class="skills-grid">{{range .Skills}}<span class="skill-badge">{{.}}</span>{{end}}</div>
</section>
{{end}}
{{if .ShowProjects}}
<section class="section projects"><h2 class="section-title">Projects</h2>
  {{range .Projects}}
  <article class="project-card">
    {{if .Image}}<img class="project-image" src="{{.Image}}" alt="{{.Name}}">{{end}}
    <h3>{{.Name}}</h3>
    <p>{{.Description}}</p>
    {{if .Technologies}}<div class="tech-tags">{{range .Technologies}}<span class="tech-tag">{{.}}</span>{{end}}</div>{{end}}
    {{if .Link}}<a class="project-link" href="{{.Link}}" target="_blank" rel="noopener noreferrer">View Project</a>{{end}}
  </article>
  {{end}}
</section>
{{end}}
{{if .ShowExperience}}
<section class="section experience"><h2 class="section-title">Experience</h2>
  {{range .Experience}}
  <article class="experience-card"><h3>{{.Title}}</h3><p class="company">{{.Company}}</p><p class="duration">{{.Duration}}</p><p>{{.Description}}</p></article>
  {{end}}
</section>
{{end}}
{{if .ShowAchievements}}
<section class="section achievements"><h2 class="section-title">Achievements</h2>
  {{range .Achievements}}
  <article class="achievement-card">{{if .Image}}<img src="{{.Image}}" alt="Achievement">{{end}}<p>{{.Title}}</p></article>
  {{end}}
</section>
{{end}}
<footer class="social-links">
  {{if .Contact.WhatsApp}}<a href="{{.Contact.WhatsApp}}">WhatsApp</a>{{end}}
  {{if .Contact.Github}}<a href="{{.Contact.Github}}">GitHub</a>{{end}}
  {{if .Contact.Linkedin}}<a href="{{.Contact.Linkedin}}">LinkedIn</a>{{end}}
  {{if .Contact.Instagram}}<a href="{{.Contact.Instagram}}">Instagram</a>{{end}}
  <p class="copyright">{{.Handle}} &copy; {{$.Year}}</p>
</footer>
{{end}}
</div>
</body>
</html>
`))

var messageTemplate = template.Must(template.New("message").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body><div class="{{.Class}}"><h2>{{.Title}}</h2>{{if .Detail}}<p>{{.Detail}}</p>{{end}}</div></body></html>
`))

// Page writes the public page for vm using the decided variant.
func Page(w io.Writer, vm *ViewModel, variant theme.Variant, year int) error {
	if vm == nil {
		return UnavailablePage(w)
	}

	return pageTemplate.Execute(w, struct {
		View    *ViewModel
		Variant theme.Variant
		Year    int
	}{vm, variant, year})
}

// EmptyPage is shown by a preview context while the slot holds no document.
func EmptyPage(w io.Writer) error {
	return messageTemplate.Execute(w, map[string]string{
		"Class":  "loading-container",
		"Title":  "Loading preview...",
		"Detail": "No preview data available yet. Start editing your portfolio.",
	})
}

// UnavailablePage is shown when a document cannot be rendered.
func UnavailablePage(w io.Writer) error {
	return messageTemplate.Execute(w, map[string]string{
		"Class":  "error-container",
		"Title":  "Portfolio not available",
		"Detail": "This portfolio cannot be displayed.",
	})
}
