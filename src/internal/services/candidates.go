package services

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

// Candidate is one guess at the document identifier a device would mint
// for a library item, produced per match attempt and never persisted.
type Candidate struct {
	Strategy string
	Raw      string
	Hash     string
}

// Mount points KOReader commonly runs from. The "Filename" matching mode
// hashes the full on-device path, so identifier-based filenames are tried
// under each of these roots too.
var devicePrefixes = []string{
	"/mnt/onboard/",              // Kobo
	"/mnt/us/documents/",         // Kindle
	"/mnt/ext1/",                 // PocketBook
	"/storage/emulated/0/Books/", // Android
}

// CandidateHashes returns the ordered identifier guesses for one library
// item. Order reflects confidence (content hashes first, identifier-based
// forms last) and is meaningful only for diagnostics; the matcher treats
// the list as a set.
func CandidateHashes(item domain.LibraryItem) []Candidate {
	var out []Candidate
	add := func(strategy, raw, hash string) {
		if hash == "" {
			return
		}
		for _, c := range out {
			if c.Hash == hash {
				return
			}
		}
		out = append(out, Candidate{Strategy: strategy, Raw: raw, Hash: hash})
	}
	addString := func(strategy, raw string) {
		add(strategy, raw, StringMD5(raw))
		if n := Normalize(raw); n != raw {
			add(strategy+"-normalized", n, StringMD5(n))
		}
	}

	if item.Path != "" {
		if _, err := os.Stat(item.Path); err == nil {
			add("binary", item.Path, SparseMD5(item.Path))
			add("prefix", item.Path, PrefixMD5(item.Path, DefaultHashPrefixSize))
		}

		filename := filepath.Base(item.Path)
		addString("filename", filename)
		if stem := strings.TrimSuffix(filename, filepath.Ext(filename)); stem != "" && stem != filename {
			addString("filename-stem", stem)
		}
		add("path", item.Path, StringMD5(item.Path))
	}

	if item.Title != "" {
		for _, title := range titleVariants(item.Title) {
			addString("title", title+".epub")
			addString("title", title)
		}
	}

	if u, err := uuid.Parse(item.ID); err == nil {
		bare := strings.ReplaceAll(u.String(), "-", "")
		for _, id := range []string{bare, u.String()} {
			addString("item-id", id+".epub")
			addString("item-id", id)
			for _, prefix := range devicePrefixes {
				addString("item-id-path", prefix+id+".epub")
			}
		}
	}

	return out
}

// titleVariants expands a display title into the filename spellings a
// device library tends to hold. "Title - Author" collections are commonly
// stored the other way around, so both orders plus the bare title are tried.
func titleVariants(title string) []string {
	variants := []string{title}
	parts := strings.SplitN(title, " - ", 2)
	if len(parts) == 2 {
		variants = append(variants, parts[0], parts[1]+" - "+parts[0])
	}
	return variants
}

var dashFold = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
	"－", "-", // fullwidth hyphen
	"​", "", // zero-width space
	"\uFEFF", "", // zero-width no-break space
)

// Normalize folds a name into the plain-ASCII-punctuation spelling a
// device filesystem most likely holds: NFC recomposition (macOS exports
// NFD filenames), surrounding whitespace trimmed, internal whitespace
// runs collapsed to single spaces, dash look-alikes folded to "-" and
// zero-width characters stripped. Idempotent.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = dashFold.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
