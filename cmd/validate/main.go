package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnemet/quicktable"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: quicktable-validate <catalog_path1> [catalog_path2] ...")
		os.Exit(1)
	}

	allValid := true
	for _, path := range os.Args[1:] {
		name := filepath.Base(path)

		cat, err := quicktable.LoadCatalog(path)
		if err == nil {
			// timezone is only checked when the catalog is resolved
			_, err = cat.Resolve("/", nil)
		}
		if err != nil {
			allValid = false
			if !errors.Is(err, quicktable.ErrInvalidCatalog) && !errors.Is(err, quicktable.ErrDuplicateTable) &&
				!errors.Is(err, quicktable.ErrInvalidDirection) {
				fmt.Printf("❌ Error validating %s: %v\n", name, err)
				continue
			}
			fmt.Printf("❌ %s is invalid!\n", name)
			for _, desc := range strings.Split(err.Error(), "; ") {
				fmt.Printf("   - %s\n", desc)
			}
			continue
		}

		fmt.Printf("✅ %s is valid (%d tables).\n", name, len(cat.Tables))
	}

	if !allValid {
		os.Exit(1)
	}
}
