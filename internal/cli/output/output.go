package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/reelshare/backend/internal/cli/api"
)

// Writer is where tables go. Tests swap it.
var Writer io.Writer = os.Stdout

// JSON prints v as indented JSON.
func JSON(v interface{}) {
	enc := json.NewEncoder(Writer)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(Writer, 0, 0, 2, ' ', 0)
}

// ListTable prints the lists visible to the current user.
func ListTable(lists []api.List) {
	if len(lists) == 0 {
		fmt.Fprintln(Writer, "No lists found.")
		return
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tITEMS\tACCESS\tUPDATED")
	for _, l := range lists {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			ShortID(l.ID), l.Name, l.Category, len(l.Items), Access(l), RelativeTime(l.UpdatedAt))
	}
	w.Flush()
}

// ListDetail prints one list with its items and, for the owner, its shares.
func ListDetail(l api.List) {
	w := newTable()
	fmt.Fprintf(w, "Name:\t%s\n", l.Name)
	fmt.Fprintf(w, "ID:\t%s\n", l.ID)
	if l.Description != nil && *l.Description != "" {
		fmt.Fprintf(w, "Description:\t%s\n", *l.Description)
	}
	fmt.Fprintf(w, "Category:\t%s\n", l.Category)
	fmt.Fprintf(w, "Access:\t%s\n", Access(l))
	fmt.Fprintf(w, "Created:\t%s\n", l.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:\t%s\n", l.UpdatedAt.Format(time.RFC3339))
	w.Flush()

	fmt.Fprintln(Writer)
	ItemTable(l.Items)

	if l.IsOwner && len(l.Shares) > 0 {
		fmt.Fprintln(Writer)
		ShareTable(l.Shares)
	}
}

func ItemTable(items []api.Item) {
	if len(items) == 0 {
		fmt.Fprintln(Writer, "No titles in this list.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "TMDB ID\tTYPE\tTITLE\tYEAR\tRATING")
	for _, it := range items {
		year := "-"
		if it.ReleaseDate != nil && len(*it.ReleaseDate) >= 4 {
			year = (*it.ReleaseDate)[:4]
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", it.TMDBID, it.Type, it.Title, year, FormatRating(it.Rating))
	}
	w.Flush()
}

func ShareTable(shares []api.Share) {
	if len(shares) == 0 {
		fmt.Fprintln(Writer, "Not shared with anyone.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "SHARED WITH\tPERMISSION\tSINCE")
	for _, s := range shares {
		who := s.SharedWithUserID
		if s.User != nil {
			who = s.User.Email
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", who, s.Permission, RelativeTime(s.CreatedAt))
	}
	w.Flush()
}

// SearchTable prints catalog search hits.
func SearchTable(results []api.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(Writer, "No titles found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "TMDB ID\tTYPE\tTITLE\tYEAR\tRATING")
	for _, r := range results {
		year := r.Year()
		if year == "" {
			year = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.MediaType, r.DisplayTitle(), year, FormatRating(r.VoteAverage))
	}
	w.Flush()
}

func UserTable(users []api.User) {
	if len(users) == 0 {
		fmt.Fprintln(Writer, "No users found.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "EMAIL\tID")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\n", u.Email, u.ID)
	}
	w.Flush()
}

func UserInfo(u api.User, server string, expiresAt time.Time) {
	w := newTable()
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	fmt.Fprintf(w, "Server:\t%s\n", server)
	if !expiresAt.IsZero() {
		fmt.Fprintf(w, "Session:\tvalid until %s\n", expiresAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

// ActivityTable prints feed entries, newest first, marking unread ones.
func ActivityTable(activities []api.Activity) {
	if len(activities) == 0 {
		fmt.Fprintln(Writer, "No activity yet.")
		return
	}
	w := newTable()
	fmt.Fprintln(w, "\tWHEN\tMESSAGE")
	for _, a := range activities {
		marker := " "
		if !a.IsRead {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", marker, RelativeTime(a.CreatedAt), a.Message)
	}
	w.Flush()
}

func VersionInfo(cliVersion string, server *api.VersionInfo) {
	w := newTable()
	fmt.Fprintf(w, "CLI:\t%s\n", cliVersion)
	if server != nil {
		fmt.Fprintf(w, "Server:\t%s (API %s)\n", server.Version, server.APIVersion)
		if server.Commit != "" {
			fmt.Fprintf(w, "Commit:\t%s\n", server.Commit)
		}
		fmt.Fprintf(w, "Auth:\t%s\n", server.AuthProvider)
		fmt.Fprintf(w, "Search:\t%s\n", server.SearchMode)
	} else {
		fmt.Fprintf(w, "Server:\tunreachable\n")
	}
	w.Flush()
}

// Access describes the viewer's relation to a list.
func Access(l api.List) string {
	if l.IsOwner {
		return "owner"
	}
	return "shared (" + l.Permission + ")"
}

// FormatRating renders a 0-10 score with one decimal.
func FormatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *r)
}

// ShortID keeps the first block of a UUID for table display.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago", "3d ago").
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
