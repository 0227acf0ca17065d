package runner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/src-d/enry/v2"
)

// CollectFiles walks the target paths and returns the sorted, deduplicated
// list of files matching the extension filter. Plain file arguments bypass
// the extension and vendor filters; the caller named them explicitly.
func CollectFiles(paths []string, extensions []string, skipVendored bool) ([]string, error) {
	seen := make(map[string]struct{})

	var files []string

	add := func(path string) {
		if _, dup := seen[path]; dup {
			return
		}

		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, target := range paths {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}

		if !info.IsDir() {
			add(filepath.Clean(target))

			continue
		}

		walkErr := filepath.WalkDir(target, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if entry.IsDir() {
				if skipVendored && path != target && enry.IsVendor(path+"/") {
					return filepath.SkipDir
				}

				return nil
			}

			if !matchesExtension(path, extensions) {
				return nil
			}

			if skipVendored && enry.IsVendor(path) {
				return nil
			}

			add(path)

			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", target, walkErr)
		}
	}

	sort.Strings(files)

	return files, nil
}

func matchesExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")

	for _, allowed := range extensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}

	return false
}

func readFile(path string) ([]byte, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return contents, nil
}

func writeFile(path string, contents []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	return os.WriteFile(path, contents, info.Mode().Perm())
}
