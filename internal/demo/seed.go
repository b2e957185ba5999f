// Package demo provides the read-only demo mode and the sample catalog it
// is browsed with.
package demo

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/audioshelf/internal/entities"
	"github.com/mrlokans/audioshelf/internal/services"
)

// Catalog is the part of the catalog service the seeder writes through.
type Catalog interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
	CreateCategory(ctx context.Context, actor services.Actor, name string) (*entities.Category, error)
	CreateTag(ctx context.Context, actor services.Actor, name string) (*entities.Tag, error)
	CreateBook(ctx context.Context, actor services.Actor, in services.BookInput) (*entities.Book, error)
	AddChapter(ctx context.Context, actor services.Actor, bookID uint, in services.ChapterInput) (*entities.Chapter, error)
}

type sampleBook struct {
	title      string
	author     string
	categories []string
	tags       []string
	chapters   []string
}

const audioBase = "https://archive.org/download/"

var sampleBooks = []sampleBook{
	{
		title:      "The Time Machine",
		author:     "H. G. Wells",
		categories: []string{"Science Fiction"},
		tags:       []string{"classic", "short"},
		chapters:   []string{"The Inventor", "The Machine", "The Time Traveller Returns"},
	},
	{
		title:      "Pride and Prejudice",
		author:     "Jane Austen",
		categories: []string{"Romance", "Classics"},
		tags:       []string{"classic"},
		chapters:   []string{"Chapter 1", "Chapter 2", "Chapter 3", "Chapter 4"},
	},
	{
		title:      "The Adventures of Sherlock Holmes",
		author:     "Arthur Conan Doyle",
		categories: []string{"Mystery", "Classics"},
		tags:       []string{"series", "short"},
		chapters:   []string{"A Scandal in Bohemia", "The Red-Headed League"},
	},
}

// SeedResult counts what Seed created.
type SeedResult struct {
	Books      int
	Chapters   int
	Categories int
	Tags       int
	Skipped    bool
}

// Seed fills an empty catalog with sample books. A catalog that already
// has books is left alone.
func Seed(ctx context.Context, catalog Catalog, actor services.Actor) (SeedResult, error) {
	var result SeedResult

	existing, err := catalog.ListBooks(ctx)
	if err != nil {
		return result, err
	}
	if len(existing) > 0 {
		log.Printf("[demo] catalog already has %d books, skipping seed", len(existing))
		result.Skipped = true
		return result, nil
	}

	categoryIDs := map[string]uint{}
	tagIDs := map[string]uint{}
	for _, sample := range sampleBooks {
		for _, name := range sample.categories {
			if _, ok := categoryIDs[name]; ok {
				continue
			}
			category, err := catalog.CreateCategory(ctx, actor, name)
			if err != nil {
				return result, fmt.Errorf("create category %q: %w", name, err)
			}
			categoryIDs[name] = category.ID
			result.Categories++
		}
		for _, name := range sample.tags {
			if _, ok := tagIDs[name]; ok {
				continue
			}
			tag, err := catalog.CreateTag(ctx, actor, name)
			if err != nil {
				return result, fmt.Errorf("create tag %q: %w", name, err)
			}
			tagIDs[name] = tag.ID
			result.Tags++
		}

		book, err := catalog.CreateBook(ctx, actor, services.BookInput{
			Title:       sample.title,
			Author:      sample.author,
			CategoryIDs: lookup(categoryIDs, sample.categories),
			TagIDs:      lookup(tagIDs, sample.tags),
		})
		if err != nil {
			return result, fmt.Errorf("create book %q: %w", sample.title, err)
		}
		result.Books++

		for i, title := range sample.chapters {
			position := i + 1
			_, err := catalog.AddChapter(ctx, actor, book.ID, services.ChapterInput{
				Title:    title,
				Position: &position,
				AudioURL: fmt.Sprintf("%sbook-%d/chapter-%02d.mp3", audioBase, book.ID, position),
			})
			if err != nil {
				return result, fmt.Errorf("add chapter %q: %w", title, err)
			}
			result.Chapters++
		}
	}

	log.Printf("[demo] seeded %d books, %d chapters", result.Books, result.Chapters)
	return result, nil
}

func lookup(ids map[string]uint, names []string) []uint {
	out := make([]uint, 0, len(names))
	for _, name := range names {
		out = append(out, ids[name])
	}
	return out
}
