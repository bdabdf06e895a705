// cmd/tools/rulebook-lint/main.go
//
// rulebook-lint validates a rule catalog file and prints a short summary.
// Run it before shipping a catalog change; the server refuses to start on
// an invalid catalog, this just fails faster.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"finregx-backend/internal/rulebook"
)

func main() {
	path := flag.String("path", "configs/rulebook.json", "Path to rulebook file")
	flag.Parse()

	catalog, err := rulebook.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: %s\n", *path)
	fmt.Printf("  version:    %s\n", catalog.Version)
	fmt.Printf("  categories: %d\n", len(catalog.Categories))
	fmt.Printf("  articles:   %d\n", len(catalog.Articles))
	fmt.Printf("  experts:    %d\n", len(catalog.Experts))
	fmt.Printf("  programs:   %d\n", len(catalog.Programs))

	byCategory := make(map[string]int)
	critical := 0
	for _, a := range catalog.Articles {
		byCategory[a.Category]++
		if a.Critical {
			critical++
		}
	}
	fmt.Printf("  critical:   %d\n", critical)

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("    %-20s share=%-6.4g articles=%d\n", name, catalog.CategoryShare(name), byCategory[name])
	}
}
