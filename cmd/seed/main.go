// Seed populates an Inkwell server with demo users, articles, comments and
// interactions for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/inkwell-hq/inkwell/internal/client"
	"github.com/inkwell-hq/inkwell/internal/model"
	"github.com/inkwell-hq/inkwell/internal/store/sqlite"
)

var writers = []struct {
	name     string
	nickname string
}{
	{"ada", "Ada"},
	{"basho", "Bashō"},
	{"clarice", "Clarice"},
	{"dante", "Dante"},
	{"emily", "Emily"},
}

var articles = []struct {
	title   string
	content string
}{
	{"Why I Still Write Every Morning", "The blank page is the only honest critic I know. Every morning it asks the same question and every morning the answer is different."},
	{"Notes on Slow Reading", "We skim because we can. But the books that changed me were the ones I read at walking pace."},
	{"A Field Guide to Abandoned Drafts", "My drafts folder is a graveyard, and like most graveyards it is peaceful and full of lessons."},
	{"The Case for Writing Badly", "First drafts exist to be wrong. Give yourself permission to write the worst paragraph of your life."},
	{"What My Commute Taught Me About Plot", "Forty minutes, twice a day, the same stations in the same order. And yet no two trips tell the same story."},
	{"On Keeping a Commonplace Book", "Copy out the sentences you love. Ownership of a sentence begins in the wrist."},
	{"Revision Is Re-Seeing", "Editing is not sanding down; it is looking again, from a different window."},
	{"Letters I Never Sent", "Some of my best writing lives in envelopes that were never addressed."},
	{"The Quiet Discipline of Daily Notes", "Nothing dramatic happens in a daily note. That is exactly the point."},
	{"Against the Perfect Opening Line", "Chasing the perfect first sentence is how second paragraphs die."},
}

var comments = []string{
	"This put words to something I have felt for years.",
	"I disagree with the premise, but I could not stop reading.",
	"Saving this one to reread next month.",
	"The part about the drafts folder hit close to home.",
	"Would love a follow-up on this topic.",
	"Beautifully put. Thank you for writing it.",
	"I tried this for a week and it actually works.",
	"Not sure I agree, but appreciate the perspective.",
	"This changed how I think about revision.",
	"The ending landed perfectly.",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Inkwell server URL")
	dbPath := flag.String("db", "", "Database path; when set, the first writer is promoted to admin")
	flag.Parse()

	log.Printf("Seeding database at %s...\n", *baseURL)

	// Register all writers and keep logged-in clients.
	var clients []*client.Client
	for _, w := range writers {
		c := client.New(*baseURL)
		if err := c.RegisterAndLogin(w.name, w.name+"-seed-password"); err != nil {
			log.Fatalf("register %s: %v", w.name, err)
		}
		log.Printf("registered %s", w.name)
		clients = append(clients, c)
	}

	// Publish articles from random writers.
	var articleIDs []int64
	for _, a := range articles {
		idx := rand.Intn(len(clients))
		article, err := clients[idx].PublishArticle(a.title, a.content)
		if err != nil {
			log.Printf("publish failed: %v", err)
			continue
		}
		articleIDs = append(articleIDs, article.ID)
		log.Printf("published #%d: %s (by %s)", article.ID, a.title, writers[idx].name)

		// Small delay to spread out created_at times.
		time.Sleep(50 * time.Millisecond)
	}

	// Comment from random writers.
	for _, articleID := range articleIDs {
		numComments := rand.Intn(3) + 1
		for i := 0; i < numComments; i++ {
			idx := rand.Intn(len(clients))
			text := comments[rand.Intn(len(comments))]
			comment, err := clients[idx].PostComment(articleID, text)
			if err != nil {
				log.Printf("comment failed: %v", err)
				continue
			}
			log.Printf("comment #%d on article #%d (by %s)", comment.ID, articleID, writers[idx].name)
		}
	}

	// Like and favorite some articles. Duplicate likes are no-ops server-side
	// so the random picks do not need dedup.
	for _, c := range clients {
		numLikes := rand.Intn(len(articleIDs)) + 1
		for i := 0; i < numLikes; i++ {
			articleID := articleIDs[rand.Intn(len(articleIDs))]
			if _, err := c.LikeArticle(articleID); err != nil {
				continue
			}
			if rand.Float32() < 0.3 {
				_, _ = c.FavoriteArticle(articleID)
			}
		}
	}
	log.Printf("added likes and favorites")

	// Follow some authors.
	follows := 0
	for i, c := range clients {
		for j := range clients {
			if i == j || rand.Float32() > 0.5 {
				continue
			}
			other, err := clients[j].Me()
			if err != nil {
				continue
			}
			if _, err := c.Follow(other.ID); err == nil {
				follows++
			}
		}
	}
	log.Printf("added %d follows", follows)

	// Registration always yields USER; promoting an admin needs the database.
	if *dbPath != "" {
		if err := promoteAdmin(*dbPath, writers[0].name); err != nil {
			log.Printf("promote admin failed: %v", err)
		} else {
			log.Printf("promoted %s to admin", writers[0].name)
		}
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Writers:  %d\n", len(writers))
	fmt.Printf("Articles: %d\n", len(articleIDs))
	fmt.Println("\nView at:", *baseURL)
}

func promoteAdmin(dbPath, username string) error {
	st, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	user, err := st.FindUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return st.UpdateUserRole(ctx, user.ID, model.RoleAdmin)
}
