package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type achievementKind uint8

const (
	titledAsset achievementKind = iota
	legacyTitle
)

// Achievement holds either the legacy bare-string shape or the {title, image}
// object shape. Read it through Entry so callers never branch on the shape.
type Achievement struct {
	kind  achievementKind
	title string
	image string
}

// AchievementEntry is the normalized form of an Achievement.
type AchievementEntry struct {
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
}

func LegacyTitle(title string) Achievement {
	return Achievement{kind: legacyTitle, title: title}
}

func TitledAsset(title, image string) Achievement {
	return Achievement{kind: titledAsset, title: title, image: image}
}

func (a Achievement) IsLegacy() bool {
	return a.kind == legacyTitle
}

// Entry returns the achievement in object shape, whatever shape is stored.
func (a Achievement) Entry() AchievementEntry {
	if a.kind == legacyTitle {
		return AchievementEntry{Title: a.title}
	}
	return AchievementEntry{Title: a.title, Image: a.image}
}

func (a Achievement) Title() string {
	return a.Entry().Title
}

func (a Achievement) Image() string {
	return a.Entry().Image
}

// WithTitle converts to object shape and replaces the title, keeping any image.
func (a Achievement) WithTitle(title string) Achievement {
	return TitledAsset(title, a.Entry().Image)
}

// WithImage converts to object shape and replaces the image, keeping the title.
func (a Achievement) WithImage(image string) Achievement {
	return TitledAsset(a.Entry().Title, image)
}

func (a Achievement) IsPlaceholder() bool {
	return a.Entry().Title == ""
}

func (a Achievement) MarshalJSON() ([]byte, error) {
	if a.kind == legacyTitle {
		return json.Marshal(a.title)
	}
	return json.Marshal(AchievementEntry{Title: a.title, Image: a.image})
}

func (a *Achievement) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("achievement: empty value")
	}

	switch data[0] {
	case '"':
		var title string
		if err := json.Unmarshal(data, &title); err != nil {
			return err
		}
		*a = LegacyTitle(title)
		return nil
	case '{':
		var entry AchievementEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return err
		}
		*a = TitledAsset(entry.Title, entry.Image)
		return nil
	case 'n':
		*a = TitledAsset("", "")
		return nil
	}

	return fmt.Errorf("achievement: expected string or object, got %s", string(data))
}
