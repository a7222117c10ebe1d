package installer

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// launcherCandidate is one scored executable from the staging tree.
type launcherCandidate struct {
	path  string
	score int
}

// pickLauncher enumerates the extracted tree and selects the file to
// run. Scoring is a fixed heuristic: uninstallers are disqualified,
// installer-ish names add weight, a real executable outranks a
// script. Ties break toward the shortest path.
func pickLauncher(root, productName string) (string, error) {
	var (
		mu         sync.Mutex
		candidates []launcherCandidate
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if score, ok := scoreLauncher(path, productName); ok {
			mu.Lock()
			candidates = append(candidates, launcherCandidate{path: path, score: score})
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("enumerate staging directory: %w", err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no launcher executable found in update archive")
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score || (c.score == best.score && len(c.path) < len(best.path)) {
			best = c
		}
	}
	return best.path, nil
}

// scoreLauncher scores a single file. ok is false for files that are
// not launcher candidates at all.
func scoreLauncher(path, productName string) (int, bool) {
	name := strings.ToLower(strings.TrimSuffix(baseName(path), ext(path)))

	var score int
	switch ext(path) {
	case ".exe":
		score += 2
	case ".cmd", ".bat":
		score += 1
	default:
		return 0, false
	}

	if strings.Contains(name, "uninstall") {
		return 0, false
	}

	for keyword, weight := range map[string]int{
		"setup":     4,
		"installer": 4,
		"update":    3,
		"portable":  2,
	} {
		if strings.Contains(name, keyword) {
			score += weight
		}
	}
	if productName != "" && strings.Contains(name, strings.ToLower(productName)) {
		score += 3
	}
	return score, true
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func ext(path string) string {
	base := baseName(path)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return strings.ToLower(base[i:])
	}
	return ""
}
