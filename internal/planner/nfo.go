package planner

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/jpixy/media-organizer/internal/model"
)

type uniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr,omitempty"`
	Value   string `xml:",chardata"`
}

type actorXML struct {
	Name  string `xml:"name"`
	Role  string `xml:"role"`
	Order int    `xml:"order"`
}

type thumbXML struct {
	Aspect string `xml:"aspect,attr,omitempty"`
	Value  string `xml:",chardata"`
}

type fanartXML struct {
	Thumb string `xml:"thumb"`
}

type movieNFO struct {
	XMLName       xml.Name    `xml:"movie"`
	Title         string      `xml:"title"`
	OriginalTitle string      `xml:"originaltitle"`
	Year          int         `xml:"year"`
	UniqueIDs     []uniqueID  `xml:"uniqueid"`
	Plot          string      `xml:"plot"`
	Genres        []string    `xml:"genre"`
	Countries     []string    `xml:"country"`
	Studios       []string    `xml:"studio"`
	Directors     []string    `xml:"director"`
	Actors        []actorXML  `xml:"actor"`
	Thumb         thumbXML    `xml:"thumb"`
	Fanart        fanartXML   `xml:"fanart"`
	SetName       string      `xml:"set>name,omitempty"`
	Runtime       int         `xml:"runtime,omitempty"`
	Rating        float64     `xml:"rating,omitempty"`
}

// GenerateMovieNFO produces the Kodi/Jellyfin-compatible movie.nfo document
// per spec §6's field list.
func GenerateMovieNFO(m *model.MovieMeta) ([]byte, error) {
	doc := movieNFO{
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		Year:          m.Year,
		Plot:          m.Overview,
		Genres:        m.Genres,
		Studios:       m.Studios,
		Directors:     m.Directors,
		Runtime:       m.Runtime,
		Rating:        m.Rating,
		Thumb:         thumbXML{Aspect: "poster", Value: firstOrEmpty(m.PosterURLs)},
		Fanart:        fanartXML{Thumb: m.BackdropURL},
	}
	if m.ImdbID != "" {
		doc.UniqueIDs = append(doc.UniqueIDs, uniqueID{Type: "imdb", Value: m.ImdbID})
	}
	if m.TmdbID != 0 {
		doc.UniqueIDs = append(doc.UniqueIDs, uniqueID{Type: "tmdb", Default: true, Value: itoa(m.TmdbID)})
	}
	for _, c := range m.Countries {
		doc.Countries = append(doc.Countries, c.Name)
	}
	for _, a := range m.Actors {
		doc.Actors = append(doc.Actors, actorXML{Name: a.Name, Role: a.Role, Order: a.Order})
	}
	if m.Collection != nil {
		doc.SetName = m.Collection.Name
	}
	return marshalNFO(doc)
}

type tvshowNFO struct {
	XMLName   xml.Name   `xml:"tvshow"`
	Title     string     `xml:"title"`
	OriginalTitle string `xml:"originaltitle"`
	Year      int        `xml:"year"`
	Premiered string     `xml:"premiered"`
	Status    string     `xml:"status"`
	Season    int        `xml:"season,omitempty"`
	Episode   int        `xml:"episode,omitempty"`
	UniqueIDs []uniqueID `xml:"uniqueid"`
	Plot      string     `xml:"plot"`
	Genres    []string   `xml:"genre"`
	Countries []string   `xml:"country"`
	Studios   []string   `xml:"studio"`
	Actors    []actorXML `xml:"actor"`
	Thumb     thumbXML   `xml:"thumb"`
	Fanart    fanartXML  `xml:"fanart"`
}

// GenerateShowNFO produces the Kodi/Jellyfin-compatible tvshow.nfo
// document, written once per show regardless of episode count.
func GenerateShowNFO(s *model.ShowMeta) ([]byte, error) {
	doc := tvshowNFO{
		Title:         s.Name,
		OriginalTitle: s.OriginalName,
		Year:          s.Year,
		Premiered:     s.FirstAirDate,
		Status:        s.Status,
		Season:        s.NumberOfSeasons,
		Episode:       s.NumberOfEpisodes,
		Plot:          s.Overview,
		Genres:        s.Genres,
		Studios:       s.Networks,
		Thumb:         thumbXML{Aspect: "poster", Value: firstOrEmpty(s.PosterURLs)},
		Fanart:        fanartXML{Thumb: s.BackdropURL},
	}
	if s.ImdbID != "" {
		doc.UniqueIDs = append(doc.UniqueIDs, uniqueID{Type: "imdb", Value: s.ImdbID})
	}
	if s.TmdbID != 0 {
		doc.UniqueIDs = append(doc.UniqueIDs, uniqueID{Type: "tmdb", Default: true, Value: itoa(s.TmdbID)})
	}
	for _, c := range s.Countries {
		doc.Countries = append(doc.Countries, c.Name)
	}
	for _, a := range s.Actors {
		doc.Actors = append(doc.Actors, actorXML{Name: a.Name, Role: a.Role, Order: a.Order})
	}
	return marshalNFO(doc)
}

type episodeNFO struct {
	XMLName   xml.Name `xml:"episodedetails"`
	Title     string   `xml:"title"`
	ShowTitle string   `xml:"showtitle"`
	Season    int      `xml:"season"`
	Episode   int      `xml:"episode"`
	Aired     string   `xml:"aired"`
	Plot      string   `xml:"plot"`
}

// GenerateEpisodeNFO produces the episodedetails.nfo document for one
// episode.
func GenerateEpisodeNFO(s *model.ShowMeta, e *model.EpisodeMeta) ([]byte, error) {
	doc := episodeNFO{
		Title:     e.Name,
		ShowTitle: displayTitle(s.Name, s.OriginalName),
		Season:    e.SeasonNumber,
		Episode:   e.EpisodeNumber,
		Aired:     e.AirDate,
		Plot:      e.Overview,
	}
	return marshalNFO(doc)
}

func marshalNFO(doc interface{}) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	var out strings.Builder
	out.WriteString(xml.Header)
	out.Write(body)
	out.WriteString("\n")
	return []byte(out.String()), nil
}

func firstOrEmpty(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

func itoa(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
