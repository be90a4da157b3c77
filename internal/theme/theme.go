// Package theme decides which visual variant a portfolio renders with. It only
// returns the decision; class names and styles belong to the page layer.
package theme

import "strings"

type Theme string

const (
	Dark       Theme = "dark"
	Light      Theme = "light"
	Minimalist Theme = "minimalist"
	Gradient   Theme = "gradient"
	Neon       Theme = "neon"
	Ocean      Theme = "ocean"
	Sunset     Theme = "sunset"
	Forest     Theme = "forest"
	Cyberpunk  Theme = "cyberpunk"
	Pastel     Theme = "pastel"
	Animated   Theme = "animated"
)

type Animation string

const (
	None   Animation = "none"
	Fade   Animation = "fade"
	Slide  Animation = "slide"
	Typing Animation = "typing"
	Pulse  Animation = "pulse"
)

var themes = []Theme{Dark, Light, Minimalist, Gradient, Neon, Ocean, Sunset, Forest, Cyberpunk, Pastel, Animated}

var animations = []Animation{None, Fade, Slide, Typing, Pulse}

// Variant is the resolved rendering decision for a (theme, animation) pair.
type Variant struct {
	Theme     Theme     `json:"theme"`
	Animation Animation `json:"animation"`
	// ForcedContrast is set for themes on a light background where body text must
	// be forced to black.
	ForcedContrast bool `json:"forcedContrast"`
	// DecorativeBackground enables the animated background elements.
	DecorativeBackground bool `json:"decorativeBackground"`
}

// ThemeClass is the container class the page layer applies for the theme.
func (v Variant) ThemeClass() string {
	return "theme-" + string(v.Theme)
}

func (v Variant) AnimationClass() string {
	return "animation-" + string(v.Animation)
}

// Select maps raw identifiers to a variant. Unknown or empty values fall back to
// dark and none; it never fails.
func Select(theme, animation string) Variant {
	t := ParseTheme(theme)
	a := ParseAnimation(animation)

	return Variant{
		Theme:                t,
		Animation:            a,
		ForcedContrast:       t == Light || t == Minimalist,
		DecorativeBackground: t == Animated,
	}
}

func ParseTheme(s string) Theme {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range themes {
		if string(t) == s {
			return t
		}
	}
	return Dark
}

func ParseAnimation(s string) Animation {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range animations {
		if string(a) == s {
			return a
		}
	}
	return None
}

// Themes lists the selectable themes in form order.
func Themes() []Theme {
	return append([]Theme(nil), themes...)
}

func Animations() []Animation {
	return append([]Animation(nil), animations...)
}
