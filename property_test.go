package vstore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hupe1980/vstore/index"
	"github.com/hupe1980/vstore/internal/digest"
)

// scratch hands out a fresh (index, artifacts, payload) triple per property run.
type scratch struct {
	base string
	n    int
}

func (s *scratch) next(t *testing.T, payload []byte) (*Store, string, string) {
	s.n++
	dir := filepath.Join(s.base, strconv.Itoa(s.n))
	artifacts := filepath.Join(dir, "artifacts")

	src := filepath.Join(dir, "payload.tgz")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := Open(filepath.Join(dir, "index", index.DefaultFileName), artifacts)
	if err != nil {
		t.Fatal(err)
	}
	return st, src, artifacts
}

func TestPublishProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)
	sc := &scratch{base: t.TempDir()}
	ctx := context.Background()

	properties.Property("published versions exist and hold the payload", prop.ForAll(
		func(key, fp string, payload []byte) bool {
			st, src, artifacts := sc.next(t, payload)
			if st.HasIndexFile() {
				return false
			}

			if _, err := st.Publish(ctx, key, fp, src, Metadata{}); err != nil {
				return false
			}
			ok, err := st.Exists(ctx, key, fp)
			if err != nil || !ok {
				return false
			}

			stored, err := os.ReadFile(filepath.Join(artifacts, fp+".tgz"))
			return err == nil && bytes.Equal(stored, payload) && st.HasIndexFile()
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("recorded digest matches the stored bytes", prop.ForAll(
		func(fp string, payload []byte) bool {
			st, src, artifacts := sc.next(t, payload)

			rec, err := st.Publish(ctx, "pkg", fp, src, Metadata{})
			if err != nil {
				return false
			}
			stored, err := os.ReadFile(filepath.Join(artifacts, fp+".tgz"))
			if err != nil {
				return false
			}
			return rec.SHA1 == digest.Bytes(stored) && st.Verify(ctx, "pkg", fp) == nil
		},
		gen.Identifier(),
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("publishing a pair twice is rejected", prop.ForAll(
		func(key, fp string, payload []byte) bool {
			st, src, _ := sc.next(t, payload)

			if _, err := st.Publish(ctx, key, fp, src, Metadata{}); err != nil {
				return false
			}
			_, err := st.Publish(ctx, key, fp, src, Metadata{})
			return errors.Is(err, ErrDuplicateVersion)
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("updating a never-added pair is not found", prop.ForAll(
		func(key, fp string) bool {
			st, _, _ := sc.next(t, nil)
			err := st.Index().Update(ctx, index.NewRecord(key, fp))
			return errors.Is(err, index.ErrNotFound) && !st.HasIndexFile()
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
