package repository

import (
	"strings"
	"testing"
)

func TestBuildMovieFiltersDefaults(t *testing.T) {
	cond, orderBy, args, err := buildMovieFilters(MovieSearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cond != "1=1" {
		t.Errorf("cond = %q, want 1=1", cond)
	}
	if orderBy != "m.year DESC" {
		t.Errorf("orderBy = %q, want m.year DESC", orderBy)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestBuildMovieFiltersSort(t *testing.T) {
	cases := []struct {
		sortBy string
		want   string
	}{
		{"price", "m.price ASC"},
		{"-price", "m.price DESC"},
		{"year", "m.year ASC"},
		{"-imdb", "m.imdb DESC"},
		{"votes", "m.votes ASC"},
	}
	for _, tc := range cases {
		_, orderBy, _, err := buildMovieFilters(MovieSearchQuery{SortBy: tc.sortBy})
		if err != nil {
			t.Errorf("sort %q: unexpected error %v", tc.sortBy, err)
			continue
		}
		if orderBy != tc.want {
			t.Errorf("sort %q: orderBy = %q, want %q", tc.sortBy, orderBy, tc.want)
		}
	}

	if _, _, _, err := buildMovieFilters(MovieSearchQuery{SortBy: "name"}); err != ErrBadSort {
		t.Errorf("sort name: err = %v, want ErrBadSort", err)
	}
	if _, _, _, err := buildMovieFilters(MovieSearchQuery{SortBy: "-name; DROP TABLE movies"}); err != ErrBadSort {
		t.Errorf("injection attempt: err = %v, want ErrBadSort", err)
	}
}

func TestBuildMovieFiltersArgs(t *testing.T) {
	q := MovieSearchQuery{
		Search:        "Nolan",
		Genre:         "Thriller",
		Year:          2010,
		Certification: "PG-13",
		MinRating:     7.5,
		MaxRating:     9.0,
	}
	cond, _, args, err := buildMovieFilters(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// min, max, year, genre, certification, then 4 like args for search
	if len(args) != 9 {
		t.Fatalf("len(args) = %d, want 9", len(args))
	}
	if args[0] != 7.5 || args[1] != 9.0 {
		t.Errorf("rating args = %v, %v", args[0], args[1])
	}
	if args[2] != 2010 {
		t.Errorf("year arg = %v", args[2])
	}
	if args[3] != "Thriller" || args[4] != "PG-13" {
		t.Errorf("genre/cert args = %v, %v", args[3], args[4])
	}
	for i := 5; i < 9; i++ {
		if args[i] != "%nolan%" {
			t.Errorf("search arg %d = %v, want %%nolan%%", i, args[i])
		}
	}

	for _, frag := range []string{"m.imdb >= ?", "m.imdb <= ?", "m.year = ?", "movie_genres", "certifications", "LOWER(m.name) LIKE ?"} {
		if !strings.Contains(cond, frag) {
			t.Errorf("cond missing %q: %s", frag, cond)
		}
	}
}
