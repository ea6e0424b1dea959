package workspace

import (
	"sort"
	"sync"

	"github.com/boyter/gocodewalker"
)

// Discover walks root for .oml documents, respecting .gitignore, and returns
// their paths sorted for deterministic load order.
func Discover(root string) ([]string, error) {
	fileListQueue := make(chan *gocodewalker.File, 100)

	fileWalker := gocodewalker.NewFileWalker(root, fileListQueue)
	fileWalker.AllowListExtensions = []string{"oml"}

	var walkErr error
	fileWalker.SetErrorHandler(func(e error) bool {
		walkErr = e
		return true
	})

	var paths []string

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for f := range fileListQueue {
			paths = append(paths, f.Location)
		}
	}()

	if err := fileWalker.Start(); err != nil {
		return nil, err
	}

	wg.Wait()

	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(paths)

	return paths, nil
}

// LoadAll discovers and loads every document under root.
func (l *Loader) LoadAll(root string) error {
	paths, err := Discover(root)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if _, err := l.Load(path); err != nil {
			return err
		}
	}

	return nil
}
