package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Movie represents a purchasable title in the catalog.  Prices are stored
// as DECIMAL(10,2) and handled with shopspring/decimal to avoid float
// rounding on money.  The UUID is the public identifier exposed next to
// the numeric primary key.
//
// Fields:
//  ID            – primary key identifier.
//  UUID          – stable public identifier.
//  Name          – title of the movie.
//  Year          – release year.
//  Time          – runtime in minutes.
//  IMDB          – IMDb score (0..10).
//  Votes         – number of IMDb votes.
//  MetaScore     – Metacritic score.
//  Gross         – worldwide gross in millions.
//  Description   – synopsis text.
//  Price         – purchase price.
//  CertificationID – foreign key into certifications.
//  IsAvailable   – whether the title can currently be purchased.
type Movie struct {
    ID              uint64
    UUID            string
    Name            string
    Year            int
    Time            int
    IMDB            float64
    Votes           int
    MetaScore       float64
    Gross           float64
    Description     string
    Price           decimal.Decimal
    CertificationID uint64
    IsAvailable     bool
    CreatedAt       time.Time
    UpdatedAt       time.Time
}

// Genre is a row in `genres`.  Movies link to genres through the
// movie_genres join table.
type Genre struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

// Star is a row in `stars` (actors).  Linked through movie_stars.
type Star struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

// Director is a row in `directors`.  Linked through movie_directors.
type Director struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

// Certification is a row in `certifications` (age rating labels).
type Certification struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

// Comment is a row in `comments`.  ParentID is set on replies; replying
// triggers a notification email to the parent comment's author.
type Comment struct {
    ID        uint64
    UserID    uint64
    MovieID   uint64
    ParentID  *uint64
    Text      string
    CreatedAt time.Time
}

// Rating is a per-user score of a movie, 1..10 inclusive.
type Rating struct {
    ID      uint64
    UserID  uint64
    MovieID uint64
    Rating  int
}

// RatingMin and RatingMax bound user ratings.
const (
    RatingMin = 1
    RatingMax = 10
)

// Favorite marks a movie saved by a user; unique per (user, movie).
type Favorite struct {
    ID        uint64
    UserID    uint64
    MovieID   uint64
    CreatedAt time.Time
}
