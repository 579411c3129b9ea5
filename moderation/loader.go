package moderation

import (
	"bufio"
	"embed"
	"io/fs"
	"log/slog"
	"path"
	"sharecircle/errors"
	"slices"
	"strings"
)

//go:embed censored/*.txt
var dictionaries embed.FS

// LoadWords reads every dir/*.txt dictionary of fsys, one word per line,
// and returns the distinct words sorted.
func LoadWords(fsys fs.FS, dir string) ([]string, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}

	var words []string
	for _, name := range files {
		f, err := fsys.Open(name)
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if word := strings.TrimSpace(scanner.Text()); word != "" {
				words = append(words, word)
			}
		}
		err = scanner.Err()
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}

	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	slices.Sort(words)
	return slices.Compact(words), nil
}

// NewDefaultModerator builds a moderator from the embedded dictionaries.
func NewDefaultModerator(mask rune, log *slog.Logger) (*Moderator, error) {
	words, err := LoadWords(dictionaries, "censored")
	if err != nil {
		return nil, err
	}
	log.Info("Censored words loaded", "words", len(words))
	return NewModerator(words, mask, log)
}
