package wordpress

import (
	"strconv"
	"strings"
)

// Term is a taxonomy value (category or tag) as the remote API reports it.
type Term struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TermRef references a term either by its remote numeric ID or by a
// human-readable name still to be resolved. Exactly one side is set;
// a positive ID wins.
type TermRef struct {
	ID   int
	Name string
}

func ByID(id int) TermRef {
	return TermRef{ID: id}
}

func ByName(name string) TermRef {
	return TermRef{Name: name}
}

func (r TermRef) IsID() bool {
	return r.ID > 0
}

// ByNames wraps a list of free-text names, skipping blanks. A single element
// may itself be a comma-separated list; splitting happens at resolution time.
func ByNames(names []string) []TermRef {
	refs := make([]TermRef, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		refs = append(refs, ByName(n))
	}
	return refs
}

// refsFromIDs converts resolved IDs back into by-ID references, used when the
// publisher rewrites a payload's taxonomy fields in place.
func refsFromIDs(ids []int) []TermRef {
	refs := make([]TermRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, ByID(id))
	}
	return refs
}

// parseNumericRef treats a numeric string as a by-ID reference.
func parseNumericRef(s string) (TermRef, bool) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return TermRef{}, false
	}
	return ByID(id), true
}

// PostPayload is the post submission structure. The publisher mutates the
// taxonomy fields in place, replacing name references with resolved IDs,
// before transmission.
type PostPayload struct {
	Title         string
	Content       string
	Excerpt       string
	Status        string
	Categories    []TermRef
	Tags          []TermRef
	FeaturedMedia int
}

// postRequest is the wire shape of a post creation call: integer IDs only.
type postRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt,omitempty"`
	Status        string `json:"status"`
	Categories    []int  `json:"categories,omitempty"`
	Tags          []int  `json:"tags,omitempty"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
}

// Media is the attachment record the remote API returns on upload. Transient;
// the caller associates it with a post payload.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
	Link      string `json:"link"`
	AltText   string `json:"alt_text"`
	MimeType  string `json:"mime_type"`
}

type renderedText struct {
	Rendered string `json:"rendered"`
}

// PublishedPost carries the field-projected shape of a published-post
// listing; only the requested fields are populated.
type PublishedPost struct {
	ID         int          `json:"id"`
	Date       string       `json:"date"`
	Link       string       `json:"link"`
	Title      renderedText `json:"title"`
	Categories []int        `json:"categories"`
	Tags       []int        `json:"tags"`
}

func (p PublishedPost) TitleText() string {
	return p.Title.Rendered
}

// RelatedPost is a search hit with its front-end permalink.
type RelatedPost struct {
	Title string
	URL   string
}

type searchResult struct {
	Title    string `json:"title"`
	Embedded struct {
		Self []struct {
			Link string `json:"link"`
		} `json:"self"`
	} `json:"_embedded"`
}
