package model

import (
	"fmt"
	"slices"
)

const (
	ArrayProjects     = "projects"
	ArrayExperience   = "experience"
	ArrayAchievements = "achievements"
	SetSkills         = "skills"
)

// UpdateField replaces one scalar leaf. Nested leaves use dotted paths such as
// "socialLinks.email" or "stats.yearsOfExperience".
func (d *PortfolioDocument) UpdateField(path, value string) error {
	leaf, err := d.leaf(path)
	if err != nil {
		return err
	}
	*leaf = value
	return nil
}

// Field reads one scalar leaf.
func (d *PortfolioDocument) Field(path string) (string, error) {
	leaf, err := d.leaf(path)
	if err != nil {
		return "", err
	}
	return *leaf, nil
}

func (d *PortfolioDocument) leaf(path string) (*string, error) {
	switch path {
	case "name":
		return &d.Name, nil
	case "about":
		return &d.About, nil
	case "profileImage":
		return &d.ProfileImage, nil
	case "resume":
		return &d.Resume, nil
	case "theme":
		return &d.Theme, nil
	case "animation":
		return &d.Animation, nil
	case "socialLinks.email":
		return &d.SocialLinks.Email, nil
	case "socialLinks.phone":
		return &d.SocialLinks.Phone, nil
	case "socialLinks.countryCode":
		return &d.SocialLinks.CountryCode, nil
	case "socialLinks.github":
		return &d.SocialLinks.Github, nil
	case "socialLinks.linkedin":
		return &d.SocialLinks.Linkedin, nil
	case "socialLinks.instagram":
		return &d.SocialLinks.Instagram, nil
	case "stats.yearsOfExperience":
		return &d.Stats.YearsOfExperience, nil
	case "stats.projectsCompleted":
		return &d.Stats.ProjectsCompleted, nil
	case "stats.internshipsCompleted":
		return &d.Stats.InternshipsCompleted, nil
	case "stats.totalSkills":
		return &d.Stats.TotalSkills, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
}

// UpdateArrayElement replaces one field of one element of projects, experience or
// achievements. Achievement updates go through the normalizing accessors so an
// existing image or title is never dropped.
func (d *PortfolioDocument) UpdateArrayElement(array string, index int, field, value string) error {
	if err := d.checkIndex(array, index); err != nil {
		return err
	}

	switch array {
	case ArrayProjects:
		p := &d.Projects[index]
		switch field {
		case "name":
			p.Name = value
		case "description":
			p.Description = value
		case "technologies":
			p.Technologies = value
		case "link":
			p.Link = value
		case "image":
			p.Image = value
		default:
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, array, field)
		}
	case ArrayExperience:
		e := &d.Experience[index]
		switch field {
		case "title":
			e.Title = value
		case "company":
			e.Company = value
		case "duration":
			e.Duration = value
		case "description":
			e.Description = value
		default:
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, array, field)
		}
	case ArrayAchievements:
		switch field {
		case "title":
			d.Achievements[index] = d.Achievements[index].WithTitle(value)
		case "image":
			d.Achievements[index] = d.Achievements[index].WithImage(value)
		default:
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, array, field)
		}
	}

	return nil
}

// AppendArrayElement grows an array by one. A nil template appends an empty row.
func (d *PortfolioDocument) AppendArrayElement(array string, template any) error {
	switch array {
	case ArrayProjects:
		p := Project{}
		if template != nil {
			t, ok := template.(Project)
			if !ok {
				return fmt.Errorf("%w: %s wants Project, got %T", ErrTemplateMismatch, array, template)
			}
			p = t
		}
		d.Projects = append(d.Projects, p)
	case ArrayExperience:
		e := Experience{}
		if template != nil {
			t, ok := template.(Experience)
			if !ok {
				return fmt.Errorf("%w: %s wants Experience, got %T", ErrTemplateMismatch, array, template)
			}
			e = t
		}
		d.Experience = append(d.Experience, e)
	case ArrayAchievements:
		a := TitledAsset("", "")
		switch t := template.(type) {
		case nil:
		case Achievement:
			a = t
		case string:
			a = LegacyTitle(t)
		default:
			return fmt.Errorf("%w: %s wants Achievement, got %T", ErrTemplateMismatch, array, template)
		}
		d.Achievements = append(d.Achievements, a)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownArray, array)
	}

	return nil
}

// RemoveArrayElement shrinks an array by one. Any index, including 0, may be removed.
func (d *PortfolioDocument) RemoveArrayElement(array string, index int) error {
	if err := d.checkIndex(array, index); err != nil {
		return err
	}

	switch array {
	case ArrayProjects:
		d.Projects = slices.Delete(d.Projects, index, index+1)
	case ArrayExperience:
		d.Experience = slices.Delete(d.Experience, index, index+1)
	case ArrayAchievements:
		d.Achievements = slices.Delete(d.Achievements, index, index+1)
	}

	return nil
}

// NormalizeAchievement sets the title of the achievement at index and returns the
// stored entry, converting a legacy string to object shape on the way.
func (d *PortfolioDocument) NormalizeAchievement(index int, title string) (Achievement, error) {
	if err := d.checkIndex(ArrayAchievements, index); err != nil {
		return Achievement{}, err
	}

	d.Achievements[index] = d.Achievements[index].WithTitle(title)
	return d.Achievements[index], nil
}

// ToggleSetMember adds value to the set if absent and removes every occurrence
// of it otherwise.
func (d *PortfolioDocument) ToggleSetMember(set, value string) error {
	if set != SetSkills {
		return fmt.Errorf("%w: %q", ErrUnknownArray, set)
	}

	if slices.Contains(d.Skills, value) {
		d.Skills = slices.DeleteFunc(d.Skills, func(s string) bool { return s == value })
		return nil
	}

	d.Skills = append(d.Skills, value)
	return nil
}

func (d *PortfolioDocument) length(array string) (int, error) {
	switch array {
	case ArrayProjects:
		return len(d.Projects), nil
	case ArrayExperience:
		return len(d.Experience), nil
	case ArrayAchievements:
		return len(d.Achievements), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownArray, array)
}

func (d *PortfolioDocument) checkIndex(array string, index int) error {
	n, err := d.length(array)
	if err != nil {
		return err
	}
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %s[%d] (len %d)", ErrIndexOutOfRange, array, index, n)
	}
	return nil
}
