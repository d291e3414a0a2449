package biocard

// Theme is a named page/banner gradient pair.
type Theme struct {
	Name   string `json:"name"`
	Page   string `json:"page"`
	Banner string `json:"banner"`
}

var Themes = []Theme{
	{Name: "Blue/Purple/Pink", Page: "from-blue-900 via-purple-900 to-pink-700", Banner: "from-blue-400 via-fuchsia-500 to-pink-400"},
	{Name: "Green/Teal/Blue", Page: "from-green-700 via-teal-600 to-blue-700", Banner: "from-green-300 via-teal-400 to-blue-400"},
	{Name: "Orange/Red/Yellow", Page: "from-yellow-500 via-orange-500 to-red-500", Banner: "from-yellow-200 via-orange-300 to-red-300"},
	{Name: "Gray/Slate", Page: "from-gray-800 via-slate-700 to-gray-900", Banner: "from-gray-400 via-slate-400 to-gray-500"},
	{Name: "Pink/Red", Page: "from-pink-500 via-red-500 to-yellow-500", Banner: "from-pink-200 via-red-200 to-yellow-200"},
	{Name: "Aqua/Blue", Page: "from-cyan-400 via-blue-500 to-indigo-500", Banner: "from-cyan-200 via-blue-200 to-indigo-200"},
	{Name: "Lime/Green", Page: "from-lime-400 via-green-500 to-emerald-500", Banner: "from-lime-200 via-green-200 to-emerald-200"},
	{Name: "Indigo/Violet", Page: "from-indigo-500 via-violet-500 to-fuchsia-500", Banner: "from-indigo-200 via-violet-200 to-fuchsia-200"},
	{Name: "Gold", Page: "from-yellow-400 via-yellow-600 to-yellow-800", Banner: "from-yellow-200 via-yellow-400 to-yellow-600"},
	{Name: "Black/White", Page: "from-black via-gray-700 to-white", Banner: "from-gray-200 via-gray-400 to-white"},
}

// ThemeByName returns the theme with given name or the first theme
// when the name is unknown (legacy or default "gradient" banners).
func ThemeByName(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// Font is the stored font class of a profile.
type Font string

const (
	FontSans  Font = "font-sans"
	FontSerif Font = "font-serif"
	FontMono  Font = "font-mono"

	DefaultFont = FontSans
)

type FontOption struct {
	Name  string `json:"name"`
	Class Font   `json:"class"`
}

var Fonts = []FontOption{
	{Name: "Sans", Class: FontSans},
	{Name: "Serif", Class: FontSerif},
	{Name: "Mono", Class: FontMono},
}

// FontByClass returns the matching font option, falling back to the first one.
func FontByClass(class Font) FontOption {
	for _, f := range Fonts {
		if f.Class == class {
			return f
		}
	}
	return Fonts[0]
}
