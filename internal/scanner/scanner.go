// Package scanner walks a source tree and selects the files an analysis run
// will extract. Exclusions combine configured patterns with the tree's own
// .gitignore files, both evaluated with gitignore matching semantics.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/arcgraph/arcgraph/pkg/config"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

// Scanner finds source files under a root directory.
type Scanner struct {
	cfg        *config.Config
	extensions map[string]parser.Language
}

// New creates a scanner for the given configuration.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	extensions := parser.DefaultExtensions()
	for ext, lang := range cfg.ExtensionMap() {
		extensions[ext] = lang
	}
	return &Scanner{cfg: cfg, extensions: extensions}
}

// Detect returns the language for a path under this scanner's extension
// table, including configured overrides.
func (s *Scanner) Detect(path string) parser.Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := s.extensions[ext]; ok {
		return lang
	}
	return parser.LangUnknown
}

// findGitRoot walks up from start looking for a .git directory.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ignoreSet holds the exclusion matchers for one scan. Config patterns match
// against scan-root-relative paths; .gitignore patterns keep the domains they
// were read with, so they match against git-root-relative paths.
type ignoreSet struct {
	cfgMatcher gitignore.Matcher
	gitMatcher gitignore.Matcher
	gitPrefix  []string
}

// buildIgnores parses the configured patterns and, when enabled, reads the
// enclosing repository's .gitignore files. Built fresh per scan so repeated
// runs and runs over different roots never share state.
func (s *Scanner) buildIgnores(absRoot string) ignoreSet {
	var set ignoreSet

	if len(s.cfg.Ignore.Patterns) > 0 {
		patterns := make([]gitignore.Pattern, 0, len(s.cfg.Ignore.Patterns))
		for _, pattern := range s.cfg.Ignore.Patterns {
			patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
		}
		set.cfgMatcher = gitignore.NewMatcher(patterns)
	}

	if s.cfg.Ignore.Gitignore {
		if gitRoot := findGitRoot(absRoot); gitRoot != "" {
			bfs := osfs.New(gitRoot)
			if patterns, err := gitignore.ReadPatterns(bfs, nil); err == nil && len(patterns) > 0 {
				set.gitMatcher = gitignore.NewMatcher(patterns)
				if rel, err := filepath.Rel(gitRoot, absRoot); err == nil && rel != "." {
					set.gitPrefix = strings.Split(rel, string(filepath.Separator))
				}
			}
		}
	}
	return set
}

func (set ignoreSet) excluded(relPath string, isDir bool) bool {
	if set.cfgMatcher == nil && set.gitMatcher == nil {
		return false
	}
	parts := strings.Split(relPath, string(filepath.Separator))
	if set.cfgMatcher != nil && set.cfgMatcher.Match(parts, isDir) {
		return true
	}
	if set.gitMatcher != nil {
		full := append(append([]string(nil), set.gitPrefix...), parts...)
		if set.gitMatcher.Match(full, isDir) {
			return true
		}
	}
	return false
}

// Scan recursively collects the supported source files under root.
// Unreadable entries are skipped, and symlinks that resolve outside the
// root are never followed.
func (s *Scanner) Scan(root string) ([]string, error) {
	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	ignores := s.buildIgnores(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if ignores.excluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if ignores.excluded(relPath, false) {
			return nil
		}
		if s.Detect(path) != parser.LangUnknown {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// isWithinRoot checks containment after symlink resolution. The trailing
// separator stops "/root2" from matching "/root".
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// GroupByLanguage groups files by detected language.
func (s *Scanner) GroupByLanguage(files []string) map[parser.Language][]string {
	groups := make(map[parser.Language][]string)
	for _, f := range files {
		if lang := s.Detect(f); lang != parser.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}

// FilterBySize drops files larger than maxSize bytes and returns the paths
// it dropped. A maxSize of 0 disables the filter.
func FilterBySize(files []string, maxSize int64) (kept, skipped []string) {
	if maxSize <= 0 {
		return files, nil
	}
	kept = make([]string, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped = append(skipped, f)
			continue
		}
		kept = append(kept, f)
	}
	return kept, skipped
}
