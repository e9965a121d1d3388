// Package tmdb is the wire client for the movie/TV metadata web API (v3
// and v4 auth).
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.themoviedb.org/3"
const ImageBaseURL = "https://image.tmdb.org/t/p/"

// Client wraps the metadata-service HTTP API.
type Client struct {
	apiKey     string
	useBearer  bool
	baseURL    string
	httpClient *http.Client
}

// New builds a Client for the given key, auto-detecting v3 (query
// parameter) vs v4 (bearer token) auth: a key beginning "eyJ" is treated
// as a JWT bearer token.
func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		useBearer:  strings.HasPrefix(apiKey, "eyJ"),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) buildURL(path string, query url.Values) string {
	if !c.useBearer {
		if query == nil {
			query = url.Values{}
		}
		query.Set("api_key", c.apiKey)
	}
	u := c.baseURL + path
	if q := query.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

func (c *Client) do(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path, query), nil)
	if err != nil {
		return err
	}
	if c.useBearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// VerifyAPIKey preflights the configured credential.
func (c *Client) VerifyAPIKey(ctx context.Context) error {
	var out struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, "/authentication", nil, &out)
}

// MovieSearchItem is one result from search/movie.
type MovieSearchItem struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	VoteCount     int     `json:"vote_count"`
	VoteAverage   float64 `json:"vote_average"`
}

type movieSearchResponse struct {
	Results []MovieSearchItem `json:"results"`
}

// SearchMovie calls search/movie?query&year.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) ([]MovieSearchItem, error) {
	q := url.Values{"query": {query}}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	var resp movieSearchResponse
	if err := c.do(ctx, "/search/movie", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Genre is a generic id+name pair shared by movie and TV responses.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductionCountry pairs an ISO code with a display name.
type ProductionCountry struct {
	ISO31661 string `json:"iso_3166_1"`
	Name     string `json:"name"`
}

// CastMember is one entry in a credits.cast list.
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is one entry in a credits.crew list.
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Credits bundles cast and crew.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// ReleaseDateEntry is one country's certification/type entry.
type ReleaseDateEntry struct {
	Certification string `json:"certification"`
	Type          int    `json:"type"`
}

// ReleaseDateCountry groups release_dates by ISO country.
type ReleaseDateCountry struct {
	ISO31661     string             `json:"iso_3166_1"`
	ReleaseDates []ReleaseDateEntry `json:"release_dates"`
}

// ReleaseDates is the top-level append_to_response block.
type ReleaseDates struct {
	Results []ReleaseDateCountry `json:"results"`
}

// Collection is the belongs_to_collection block.
type Collection struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductionCompany is a studio credit.
type ProductionCompany struct {
	Name string `json:"name"`
}

// MovieDetails is the full movie/<id> response.
type MovieDetails struct {
	ID                  int64               `json:"id"`
	ImdbID              string              `json:"imdb_id"`
	Title               string              `json:"title"`
	OriginalTitle       string              `json:"original_title"`
	OriginalLanguage    string              `json:"original_language"`
	ReleaseDate         string              `json:"release_date"`
	Overview            string              `json:"overview"`
	Tagline             string              `json:"tagline"`
	Runtime             int                 `json:"runtime"`
	Genres              []Genre             `json:"genres"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	VoteAverage         float64             `json:"vote_average"`
	VoteCount           int                 `json:"vote_count"`
	PosterPath          string              `json:"poster_path"`
	BackdropPath        string              `json:"backdrop_path"`
	BelongsToCollection *Collection         `json:"belongs_to_collection"`
	Credits             *Credits            `json:"credits"`
	ReleaseDates        *ReleaseDates       `json:"release_dates"`
}

// GetMovieDetails calls movie/<id>?append_to_response=credits,release_dates.
func (c *Client) GetMovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	q := url.Values{"append_to_response": {"credits,release_dates"}}
	var out MovieDetails
	if err := c.do(ctx, fmt.Sprintf("/movie/%d", id), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TvSearchItem is one result from search/tv.
type TvSearchItem struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	OriginalName   string `json:"original_name"`
	FirstAirDate   string `json:"first_air_date"`
}

type tvSearchResponse struct {
	Results []TvSearchItem `json:"results"`
}

// SearchTv calls search/tv?query&first_air_date_year.
func (c *Client) SearchTv(ctx context.Context, query string, year int) ([]TvSearchItem, error) {
	q := url.Values{"query": {query}}
	if year > 0 {
		q.Set("first_air_date_year", strconv.Itoa(year))
	}
	var resp tvSearchResponse
	if err := c.do(ctx, "/search/tv", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ExternalIDs carries the imdb_id cross-reference for a TV show.
type ExternalIDs struct {
	ImdbID string `json:"imdb_id"`
}

// Network is a broadcaster credit.
type Network struct {
	Name string `json:"name"`
}

// Creator is a created_by credit.
type Creator struct {
	Name string `json:"name"`
}

// TvDetails is the full tv/<id> response.
type TvDetails struct {
	ID                  int64               `json:"id"`
	Name                string              `json:"name"`
	OriginalName        string              `json:"original_name"`
	OriginalLanguage    string              `json:"original_language"`
	FirstAirDate        string              `json:"first_air_date"`
	Overview            string              `json:"overview"`
	Tagline             string              `json:"tagline"`
	Genres              []Genre             `json:"genres"`
	ProductionCountries []ProductionCountry `json:"production_countries"`
	Networks            []Network           `json:"networks"`
	CreatedBy           []Creator           `json:"created_by"`
	VoteAverage         float64             `json:"vote_average"`
	VoteCount           int                 `json:"vote_count"`
	NumberOfSeasons     int                 `json:"number_of_seasons"`
	NumberOfEpisodes    int                 `json:"number_of_episodes"`
	Status              string              `json:"status"`
	PosterPath          string              `json:"poster_path"`
	BackdropPath        string              `json:"backdrop_path"`
	ExternalIDs         *ExternalIDs        `json:"external_ids"`
	Credits             *Credits            `json:"credits"`
}

// GetTvDetails calls tv/<id>?append_to_response=external_ids,credits.
func (c *Client) GetTvDetails(ctx context.Context, id int64) (*TvDetails, error) {
	q := url.Values{"append_to_response": {"external_ids,credits"}}
	var out TvDetails
	if err := c.do(ctx, fmt.Sprintf("/tv/%d", id), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EpisodeDetails is the tv/<id>/season/<n>/episode/<m> response.
type EpisodeDetails struct {
	Name     string `json:"name"`
	AirDate  string `json:"air_date"`
	Overview string `json:"overview"`
}

// GetEpisodeDetails calls tv/<id>/season/<n>/episode/<m>.
func (c *Client) GetEpisodeDetails(ctx context.Context, tvID int64, season, episode int) (*EpisodeDetails, error) {
	path := fmt.Sprintf("/tv/%d/season/%d/episode/%d", tvID, season, episode)
	var out EpisodeDetails
	if err := c.do(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PosterURL builds "https://image.tmdb.org/t/p/<size>/<path>".
func PosterURL(path, size string) string {
	if path == "" {
		return ""
	}
	return ImageBaseURL + size + "/" + strings.TrimPrefix(path, "/")
}
