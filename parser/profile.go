package parser

import "fmt"

// FieldHeaders lists infobox header synonyms per field, in matching order.
type FieldHeaders struct {
	Genre    []string
	Director []string
	Country  []string
	Year     []string
}

// Profile captures the markup conventions of one wiki language edition.
type Profile struct {
	Name           string
	ArticlePrefix  string
	CategoryPrefix string
	NextPageLabel  string
	TitleSeparator string
	Headers        FieldHeaders
}

// RussianProfile matches ru.wikipedia.org.
var RussianProfile = Profile{
	Name:           "ru",
	ArticlePrefix:  "/wiki/",
	CategoryPrefix: "/wiki/Категория:",
	NextPageLabel:  "Следующая страница",
	TitleSeparator: "—",
	Headers: FieldHeaders{
		Genre:    []string{"Жанр", "Жанры"},
		Director: []string{"Режиссёр", "Режиссер", "Режиссёр-постановщик"},
		Country:  []string{"Страна", "Страны"},
		Year:     []string{"Год", "Дата выхода", "Премьера"},
	},
}

// EnglishProfile matches en.wikipedia.org.
var EnglishProfile = Profile{
	Name:           "en",
	ArticlePrefix:  "/wiki/",
	CategoryPrefix: "/wiki/Category:",
	NextPageLabel:  "next page",
	TitleSeparator: " - ",
	Headers: FieldHeaders{
		Genre:    []string{"Genre", "Genres"},
		Director: []string{"Directed by", "Director"},
		Country:  []string{"Country", "Countries"},
		Year:     []string{"Release date", "Released", "Year", "Premiere"},
	},
}

// ProfileByName resolves a profile from its configuration name.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", RussianProfile.Name:
		return RussianProfile, nil
	case EnglishProfile.Name:
		return EnglishProfile, nil
	default:
		return Profile{}, fmt.Errorf("unknown site profile %q", name)
	}
}
