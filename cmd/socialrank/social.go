package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/socialrank/internal/database"
)

// --- users command ---

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users and the social graph",
}

var userAvatar string

var usersAddCmd = &cobra.Command{
	Use:   "add [id] [name]",
	Short: "Add a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var avatar *string
		if userAvatar != "" {
			avatar = &userAvatar
		}
		id, err := db.InsertUser(args[0], args[1], avatar)
		if err != nil {
			return err
		}
		fmt.Printf("Added user [%s]: %s\n", id, args[1])
		return nil
	},
}

var usersFriendCmd = &cobra.Command{
	Use:   "friend [user-id] [friend-id]",
	Short: "Make two users friends",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := requireUsers(cmd, db, args...); err != nil {
			return err
		}
		if err := db.AddFriendship(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s and %s are now friends\n", args[0], args[1])
		return nil
	},
}

var usersFollowCmd = &cobra.Command{
	Use:   "follow [follower-id] [followee-id]",
	Short: "Make one user follow another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := requireUsers(cmd, db, args...); err != nil {
			return err
		}
		if err := db.Follow(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s now follows %s\n", args[0], args[1])
		return nil
	},
}

var usersJoinCmd = &cobra.Command{
	Use:   "join [user-id] [group-id]",
	Short: "Add a user to a group or page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := requireUsers(cmd, db, args[0]); err != nil {
			return err
		}
		if err := db.JoinGroup(args[1], args[0]); err != nil {
			return err
		}
		fmt.Printf("%s joined %s\n", args[0], args[1])
		return nil
	},
}

var usersShowCmd = &cobra.Command{
	Use:   "show [user-id]",
	Short: "Show a user and their connections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := db.GetUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %s not found", args[0])
		}

		fmt.Printf("[%s] %s\n", u.ID, u.Name)
		fmt.Printf("  Friends:   %s\n", listOrNone(u.Friends))
		fmt.Printf("  Following: %s\n", listOrNone(u.Following))
		fmt.Printf("  Groups:    %s\n", listOrNone(u.Groups))
		fmt.Printf("  Pages:     %s\n", listOrNone(u.Pages))
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&userAvatar, "avatar", "", "Avatar URL")

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersFriendCmd)
	usersCmd.AddCommand(usersFollowCmd)
	usersCmd.AddCommand(usersJoinCmd)
	usersCmd.AddCommand(usersShowCmd)
}

// --- groups command ---

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage groups and pages",
}

var groupIsPage bool

var groupsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a group, or a page with --page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		kind := database.KindGroup
		if groupIsPage {
			kind = database.KindPage
		}
		id, err := db.InsertGroup(args[0], kind)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s [%s]: %s\n", kind, id, args[0])
		return nil
	},
}

func init() {
	groupsAddCmd.Flags().BoolVar(&groupIsPage, "page", false, "Create a page instead of a group")
	groupsCmd.AddCommand(groupsAddCmd)
}

// --- articles command ---

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Manage articles",
}

var (
	articleBody   string
	articleScope  string
	articleURL    string
	articleGroup  string
	articlePlace  string
	articlePhotos []string
	imageTags     []string
)

var articlesAddCmd = &cobra.Command{
	Use:   "add [author-id] [title]",
	Short: "Publish an article",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch articleScope {
		case "", database.ScopePublic, database.ScopeFriends, database.ScopePrivate:
		default:
			return fmt.Errorf("invalid scope %q: use public, friends-only or private", articleScope)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := requireUsers(cmd, db, args[0]); err != nil {
			return err
		}

		a := database.Article{AuthorID: args[0], Title: args[1], Body: articleBody, Scope: articleScope}
		if articleURL != "" {
			a.SourceURL = &articleURL
		}
		if articleGroup != "" {
			a.GroupID = &articleGroup
		}
		if articlePlace != "" {
			placeID, err := db.InsertPlace(articlePlace, nil, nil)
			if err != nil {
				return fmt.Errorf("creating place: %w", err)
			}
			a.PlaceID = &placeID
		}

		id, err := db.InsertArticle(a)
		if err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("an article with URL %s already exists", articleURL)
		}
		for i, photo := range articlePhotos {
			if err := db.AddPhoto(id, photo, i); err != nil {
				return fmt.Errorf("adding photo: %w", err)
			}
		}
		fmt.Printf("Added article [%s]: %s\n", id, args[1])
		return nil
	},
}

var articlesDeleteCmd = &cobra.Command{
	Use:   "delete [article-id]",
	Short: "Soft-delete an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		a, err := db.GetArticleByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("article %s not found", args[0])
		}
		if err := db.SoftDeleteArticle(a.ID, nowMillis()); err != nil {
			return err
		}
		fmt.Printf("Deleted article [%s]: %s\n", a.ID, a.Title)
		return nil
	},
}

var articlesTagCmd = &cobra.Command{
	Use:   "tag [article-id] [tag...]",
	Short: "Set an article's tags; image tags go in --image tag=weight",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed, err := parseImageTags(imageTags)
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		a, err := db.GetArticleByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("article %s not found", args[0])
		}

		if err := db.SetArticleTags(a.ID, args[1:]); err != nil {
			return err
		}
		if err := db.SetImageTags(a.ID, parsed); err != nil {
			return err
		}
		fmt.Printf("Tagged [%s] with %d tags and %d image tags\n", a.ID, len(args)-1, len(parsed))
		return nil
	},
}

func init() {
	articlesAddCmd.Flags().StringVar(&articleBody, "body", "", "Article body (markdown)")
	articlesAddCmd.Flags().StringVar(&articleScope, "scope", "", "Visibility: public, friends-only or private")
	articlesAddCmd.Flags().StringVar(&articleURL, "url", "", "Source URL")
	articlesAddCmd.Flags().StringVar(&articleGroup, "group", "", "Group or page ID")
	articlesAddCmd.Flags().StringVar(&articlePlace, "place", "", "Place name")
	articlesAddCmd.Flags().StringArrayVar(&articlePhotos, "photo", nil, "Photo URL (repeatable)")
	articlesTagCmd.Flags().StringArrayVar(&imageTags, "image", nil, "Image tag as tag=weight (repeatable)")

	articlesCmd.AddCommand(articlesAddCmd)
	articlesCmd.AddCommand(articlesDeleteCmd)
	articlesCmd.AddCommand(articlesTagCmd)
}

// --- interact and comment commands ---

var interactCmd = &cobra.Command{
	Use:       "interact [user-id] [article-id] [view|like]",
	Short:     "Record a view or like",
	Args:      cobra.ExactArgs(3),
	ValidArgs: []string{database.ActionView, database.ActionLike},
	RunE: func(cmd *cobra.Command, args []string) error {
		action := args[2]
		if action != database.ActionView && action != database.ActionLike {
			return fmt.Errorf("invalid action %q: use view or like", action)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := requireUsers(cmd, db, args[0]); err != nil {
			return err
		}
		id, err := db.RecordInteraction(args[0], args[1], action)
		if err != nil {
			return err
		}
		fmt.Printf("Recorded %s [%s]\n", action, id)
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment [user-id] [article-id] [text]",
	Short: "Comment on an article",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(args[2])
		if text == "" {
			return fmt.Errorf("comment text must not be empty")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := requireUsers(cmd, db, args[0]); err != nil {
			return err
		}
		id, err := db.InsertComment(args[0], args[1], text)
		if err != nil {
			return err
		}
		fmt.Printf("Added comment [%s]\n", id)
		return nil
	},
}

func requireUsers(cmd *cobra.Command, db *database.DB, ids ...string) error {
	for _, id := range ids {
		u, err := db.GetUser(cmd.Context(), id)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %s not found", id)
		}
	}
	return nil
}

func parseImageTags(raw []string) ([]database.ImageTag, error) {
	tags := make([]database.ImageTag, 0, len(raw))
	for _, r := range raw {
		tag, weight, ok := strings.Cut(r, "=")
		if !ok || tag == "" {
			return nil, fmt.Errorf("invalid image tag %q: want tag=weight", r)
		}
		w, err := strconv.ParseFloat(weight, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", r, err)
		}
		if !database.ValidWeight(w) {
			return nil, fmt.Errorf("invalid weight in %q: must be a finite number >= 0", r)
		}
		tags = append(tags, database.ImageTag{Tag: tag, Weight: w})
	}
	return tags, nil
}

func listOrNone(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
