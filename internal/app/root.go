package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/config"
)

// FindRoot walks up from the working directory to the first directory that
// holds optimizer_config.yaml or the input/build_optimizer tree.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findRootFrom(cwd)
}

func findRootFrom(start string) (string, error) {
	// Support running from repo root, from cmd/build_optimizer, or from internal/*.
	dir := start
	for i := 0; i < 10; i++ {
		for _, probe := range []string{
			filepath.Join(dir, config.FileName),
			filepath.Join(dir, "input", "build_optimizer"),
		} {
			if _, err := os.Stat(probe); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("cannot find app root from %q (expected to find %s or input/build_optimizer in this dir or any parent)", start, config.FileName)
}
