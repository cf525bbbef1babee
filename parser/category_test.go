package parser

import (
	"reflect"
	"testing"
)

func TestParseCategoryPage(t *testing.T) {
	body := `<html><body>
<div id="mw-subcategories">
  <a href="/wiki/%D0%9A%D0%B0%D1%82%D0%B5%D0%B3%D0%BE%D1%80%D0%B8%D1%8F:%D0%A4%D0%B8%D0%BB%D1%8C%D0%BC%D1%8B_2001_%D0%B3%D0%BE%D0%B4%D0%B0">Фильмы 2001 года</a>
</div>
<div id="mw-pages">
  <a href="/w/index.php?title=X&amp;pagefrom=B">Следующая страница</a>
  <a href="/wiki/Амели">Амели</a>
  <a href="/wiki/Сталкер_(фильм)">Сталкер</a>
</div>
</body></html>`

	page := ParseCategoryPage(mustDoc(t, body), RussianProfile)
	if len(page.Subcategories) != 1 {
		t.Fatalf("subcategories = %v", page.Subcategories)
	}
	if !RussianProfile.IsCategoryLink(page.Subcategories[0]) {
		t.Fatalf("encoded subcategory link should be recognised: %s", page.Subcategories[0])
	}
	if page.NextPage != "/w/index.php?title=X&pagefrom=B" {
		t.Fatalf("next page = %q", page.NextPage)
	}

	var articles []string
	for _, href := range page.Articles {
		if RussianProfile.IsArticleLink(href) {
			articles = append(articles, href)
		}
	}
	want := []string{"/wiki/Амели", "/wiki/Сталкер_(фильм)"}
	if !reflect.DeepEqual(articles, want) {
		t.Fatalf("articles = %v, want %v", articles, want)
	}
}

func TestIsArticleLink(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{href: "/wiki/Amelie", want: true},
		{href: "/wiki/Talk:Amelie", want: false},
		{href: "/wiki/Category:Films", want: false},
		{href: "/wiki/Amelie#Plot", want: false},
		{href: "#top", want: false},
		{href: "/w/index.php?title=Amelie", want: false},
		{href: "https://en.wikipedia.org/wiki/Amelie", want: false},
		{href: "/wiki/Help%3AContents", want: false},
		{href: "", want: false},
	}
	for _, tt := range tests {
		if got := EnglishProfile.IsArticleLink(tt.href); got != tt.want {
			t.Errorf("IsArticleLink(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}

func TestProfileByName(t *testing.T) {
	if p, err := ProfileByName(""); err != nil || p.Name != "ru" {
		t.Fatalf("default profile = %q, %v", p.Name, err)
	}
	if p, err := ProfileByName("en"); err != nil || p.CategoryPrefix != "/wiki/Category:" {
		t.Fatalf("en profile = %+v, %v", p, err)
	}
	if _, err := ProfileByName("xx"); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}
