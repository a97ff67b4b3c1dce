package assets

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path"
	"sort"
	"strings"
)

var (
	ErrInvalidBookName = errors.New("invalid book name")
	ErrBookNotFound    = errors.New("book not found")
)

const bookExt = ".pdf"

// Library answers asset lookups for alphabet images and picture books.
type Library struct {
	alphabets fs.FS
	books     fs.FS
}

// NewLibrary opens the asset directories on disk.
func NewLibrary(alphabetDir, booksDir string) *Library {
	return NewLibraryFS(os.DirFS(alphabetDir), os.DirFS(booksDir))
}

// NewLibraryFS builds a library over arbitrary filesystems.
func NewLibraryFS(alphabets, books fs.FS) *Library {
	return &Library{alphabets: alphabets, books: books}
}

// Exists reports whether an alphabet asset with the given file name exists.
func (l *Library) Exists(name string) bool {
	if l == nil || l.alphabets == nil || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(l.alphabets, name)
	return err == nil && !info.IsDir()
}

// ListBooks returns the PDF file names in the books directory, sorted.
// A missing directory yields an empty list.
func (l *Library) ListBooks() []string {
	books := []string{}
	if l == nil || l.books == nil {
		return books
	}

	entries, err := fs.ReadDir(l.books, ".")
	if err != nil {
		log.Printf("[assets] failed to read books dir: %v", err)
		return books
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(path.Ext(entry.Name()), bookExt) {
			books = append(books, entry.Name())
		}
	}
	sort.Strings(books)
	return books
}

// OpenBook opens a book by its bare file name. Names with path separators
// or without the .pdf extension are rejected.
func (l *Library) OpenBook(name string) (fs.File, error) {
	clean, err := SanitizeBookName(name)
	if err != nil {
		return nil, err
	}
	if l == nil || l.books == nil {
		return nil, ErrBookNotFound
	}

	f, err := l.books.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return f, nil
}

// SanitizeBookName validates a client-supplied book file name.
func SanitizeBookName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrInvalidBookName
	}
	if !strings.EqualFold(path.Ext(name), bookExt) {
		return "", ErrInvalidBookName
	}
	return name, nil
}
