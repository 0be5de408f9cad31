package vstore_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hupe1980/vstore"
)

func Example() {
	dir, err := os.MkdirTemp("", "vstore-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "payload.tgz")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		log.Fatal(err)
	}

	s, err := vstore.Open(filepath.Join(dir, "index.yml"), filepath.Join(dir, "artifacts"))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	rec, err := s.Publish(ctx, "pkg", "fp123", src, vstore.Metadata{Version: "1.0"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(rec.Key, rec.Fingerprint, rec.Version, rec.State())
	fmt.Println(rec.SHA1)

	ok, _ := s.Exists(ctx, "pkg", "fp123")
	fmt.Println("exists:", ok)

	_, err = s.Publish(ctx, "pkg", "fp123", src, vstore.Metadata{Version: "1.0"})
	fmt.Println(err != nil)

	// Output:
	// pkg fp123 1.0 verified
	// aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d
	// exists: true
	// true
}
