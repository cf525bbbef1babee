package parser

import "testing"

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		separator string
		want      string
		wantOK    bool
	}{
		{
			name:      "primary heading",
			body:      `<html><head><title>Other — Википедия</title></head><body><h1 id="firstHeading"> Сталкер </h1></body></html>`,
			separator: "—",
			want:      "Сталкер",
			wantOK:    true,
		},
		{
			name:      "nested heading span",
			body:      `<html><body><h1 id="firstHeading" class="firstHeading"><span class="mw-page-title-main">Amélie</span></h1></body></html>`,
			separator: " - ",
			want:      "Amélie",
			wantOK:    true,
		},
		{
			name:      "whitespace heading text falls through",
			body:      "<html><body><h1 id=\"firstHeading\">\n  <span>Солярис</span>\n</h1></body></html>",
			separator: "—",
			want:      "Солярис",
			wantOK:    true,
		},
		{
			name:      "document title",
			body:      `<html><head><title>Амели — Википедия</title></head><body></body></html>`,
			separator: "—",
			want:      "Амели",
			wantOK:    true,
		},
		{
			name:      "nothing found",
			body:      `<html><body><p>no heading</p></body></html>`,
			separator: "—",
			want:      "",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractTitle(mustDoc(t, tt.body), tt.separator)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("ExtractTitle() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractForeignID(t *testing.T) {
	const marker = "imdb.com/title/tt"
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{
			name:   "external link",
			body:   `<a href="/wiki/X">x</a><a class="external" href="https://www.imdb.com/title/tt0211915/">IMDb</a>`,
			want:   "tt0211915",
			wantOK: true,
		},
		{
			name:   "tt without digits",
			body:   `<a href="https://www.imdb.com/title/ttabc/">IMDb</a>`,
			want:   "",
			wantOK: false,
		},
		{
			name:   "first matching link decides",
			body:   `<a href="https://imdb.com/title/tt/">bad</a><a href="https://imdb.com/title/tt123/">good</a>`,
			want:   "",
			wantOK: false,
		},
		{
			name:   "id elsewhere without the path",
			body:   `<a href="https://example.com/tt0211915">other</a>`,
			want:   "",
			wantOK: false,
		},
		{
			name:   "no links",
			body:   `<p>nothing</p>`,
			want:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractForeignID(mustDoc(t, "<html><body>"+tt.body+"</body></html>"), marker)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("ExtractForeignID() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractRating(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{
			name:   "json-ld number",
			body:   `<script type="application/ld+json">{"@type":"Movie","aggregateRating":{"@type":"AggregateRating","ratingCount":100,"ratingValue":8.3}}</script>`,
			want:   "8.3",
			wantOK: true,
		},
		{
			name:   "json-ld quoted",
			body:   `<script type="application/ld+json">{"aggregateRating":{"ratingValue" : "7"}}</script>`,
			want:   "7",
			wantOK: true,
		},
		{
			name: "rendered fallback",
			body: `<script type="application/ld+json">{"@type":"Movie"}</script>` +
				`<div data-testid="hero-rating-bar__aggregate-rating"><span data-testid="hero-rating-bar__aggregate-rating__score"><span> 6.9 </span><span>/10</span></span></div>`,
			want:   "6.9",
			wantOK: true,
		},
		{
			name:   "no rating",
			body:   `<p>Coming soon</p>`,
			want:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractRating(mustDoc(t, "<html><head></head><body>"+tt.body+"</body></html>"))
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("ExtractRating() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBuildDraftRussian(t *testing.T) {
	body := `<html><head><title>Амели — Википедия</title></head><body>
<h1 id="firstHeading"><span class="mw-page-title-main">Амели</span></h1>
<table class="infobox"><tbody>
<tr><th>Жанры</th><td><a href="/wiki/Комедия">комедия</a>, <a href="/wiki/Мелодрама">мелодрама</a></td></tr>
<tr><th>Режиссёр</th><td><a href="/wiki/Жёне">Жан-Пьер Жёне</a></td></tr>
<tr><th>Страна</th><td><span><a>Франция</a></span><br/><span><a>Германия</a></span></td></tr>
<tr><th>Год</th><td><a href="/wiki/2001_год_в_кино">2001</a></td></tr>
</tbody></table>
<a class="external" href="https://www.imdb.com/title/tt0211915/">IMDb</a>
</body></html>`

	draft := BuildDraft(mustDoc(t, body), RussianProfile, "imdb.com/title/tt", "https://ru.wikipedia.org/wiki/Амели")

	checks := map[string][2]string{
		"title":    {draft.Title, "Амели"},
		"genre":    {draft.Genre, "комедия, мелодрама"},
		"director": {draft.Director, "Жан-Пьер Жёне"},
		"country":  {draft.Country, "Франция, Германия"},
		"year":     {draft.Year, "2001"},
		"imdb":     {draft.ForeignID, "tt0211915"},
	}
	for field, pair := range checks {
		if pair[0] != pair[1] {
			t.Errorf("%s = %q, want %q", field, pair[0], pair[1])
		}
	}
	if draft.URL != "https://ru.wikipedia.org/wiki/Амели" {
		t.Errorf("url = %q", draft.URL)
	}
}

func TestBuildDraftMissingFields(t *testing.T) {
	draft := BuildDraft(mustDoc(t, `<html><body><h1 id="firstHeading">Stub</h1></body></html>`), EnglishProfile, "imdb.com/title/tt", "http://example.test/wiki/Stub")
	if draft.Title != "Stub" {
		t.Fatalf("title = %q, want Stub", draft.Title)
	}
	if draft.Genre != "" || draft.Director != "" || draft.Country != "" || draft.Year != "" || draft.ForeignID != "" {
		t.Fatalf("expected absent fields, got %+v", draft)
	}
}
