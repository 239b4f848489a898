package database

// Visibility scopes an article can carry. An unset scope means public.
const (
	ScopePublic  = "public"
	ScopeFriends = "friends-only"
	ScopePrivate = "private"
)

// Interaction actions.
const (
	ActionView = "view"
	ActionLike = "like"
)

// Community kinds.
const (
	KindGroup = "group"
	KindPage  = "page"
)

// User is a platform member together with their social graph.
type User struct {
	ID        string
	Name      string
	AvatarURL *string
	Friends   []string
	Following []string
	Groups    []string
	Pages     []string
	CreatedAt *string
}

// Article is a post as stored. CreatedAt and DeletedAt are epoch milliseconds.
// AuthorID is empty when the author reference no longer resolves to a user.
type Article struct {
	ID        string  `json:"id"`
	AuthorID  string  `json:"author_id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Scope     string  `json:"scope,omitempty"`
	SourceURL *string `json:"source_url,omitempty"`
	GroupID   *string `json:"group_id,omitempty"`
	PlaceID   *string `json:"place_id,omitempty"`
	CreatedAt int64   `json:"created_at"`
	DeletedAt *int64  `json:"deleted_at,omitempty"`

	ContentFetched bool `json:"-"`
}

// Interaction is a single view or like event.
type Interaction struct {
	ID        string
	UserID    string
	ArticleID string
	Action    string
	CreatedAt int64
}

// ImageTag is a tag detected in an article's images, with its confidence weight.
type ImageTag struct {
	Tag    string  `json:"tag"`
	Weight float64 `json:"weight"`
}

// TagProfile holds the tags attached to one article.
type TagProfile struct {
	ArticleID string
	Tags      []string
	ImageTags []ImageTag
}

// Comment is a comment left on an article.
type Comment struct {
	ID        string
	AuthorID  string
	ArticleID string
	Body      string
	CreatedAt int64
}

// Group is a group or page users can belong to.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Place is a location an article can be tagged with.
type Place struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Photo is an image attached to an article.
type Photo struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// AuthorSummary is the public part of a user embedded in hydrated articles.
type AuthorSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// HydratedArticle is an article with its author, photos, group and place expanded.
type HydratedArticle struct {
	Article
	Author *AuthorSummary `json:"author,omitempty"`
	Photos []Photo        `json:"photos"`
	Group  *Group         `json:"group,omitempty"`
	Place  *Place         `json:"place,omitempty"`
}

// Stats contains aggregate database statistics.
type Stats struct {
	Users           int
	Articles        int
	DeletedArticles int
	TaggedArticles  int
	Interactions    int
	Comments        int
}

// TagCount is a plain tag with the number of articles carrying it.
type TagCount struct {
	Tag   string
	Count int
}
