package premise

import "testing"

func TestByGenreIsCaseInsensitive(t *testing.T) {
	c := NewCatalog()

	got := c.ByGenre("fantasy")
	if len(got) == 0 {
		t.Fatal("no fantasy premises found")
	}
	for _, p := range got {
		if p.Genre != "Fantasy" {
			t.Errorf("ByGenre(\"fantasy\") returned %s premise %q", p.Genre, p.ID)
		}
	}
}

func TestByGenreEmptyReturnsAll(t *testing.T) {
	c := NewCatalog()
	if got, want := len(c.ByGenre("")), len(builtin); got != want {
		t.Errorf("ByGenre(\"\") returned %d premises, want %d", got, want)
	}
}

func TestGenresAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, g := range NewCatalog().Genres() {
		if seen[g] {
			t.Errorf("genre %q listed twice", g)
		}
		seen[g] = true
	}
}
